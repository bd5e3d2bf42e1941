package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID          int64         `db:"id"`
	EventID     int64         `db:"event_id"`
	UserID      int64         `db:"user_id"`
	Seats       pq.Int64Array `db:"seats"`
	Quantity    int64         `db:"quantity"`
	TotalAmount int64         `db:"total_amount"`
	Status      string        `db:"status"`
	Name        *string       `db:"name"`
	Email       *string       `db:"email"`
	Mobile      *string       `db:"mobile"`
	CreatedAt   time.Time     `db:"created_at"`

	EventTitle    *string    `db:"event_title"`
	EventDate     *time.Time `db:"event_date"`
	EventLocation *string    `db:"event_location"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	b := &booking.Booking{
		ID:          r.ID,
		EventID:     r.EventID,
		UserID:      r.UserID,
		Seats:       []int64(r.Seats),
		Quantity:    r.Quantity,
		TotalAmount: r.TotalAmount,
		Status:      booking.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		EventDate:   r.EventDate,
	}
	if r.Name != nil {
		b.Name = *r.Name
	}
	if r.Email != nil {
		b.Email = *r.Email
	}
	if r.Mobile != nil {
		b.Mobile = *r.Mobile
	}
	if r.EventTitle != nil {
		b.EventTitle = *r.EventTitle
	}
	if r.EventLocation != nil {
		b.EventLocation = *r.EventLocation
	}
	return b
}

const bookingSelect = `
	SELECT b.id, b.event_id, b.user_id, b.seats, b.quantity, b.total_amount, b.status,
	       b.name, b.email, b.mobile, b.created_at,
	       e.title AS event_title, e.date AS event_date, e.location AS event_location
	FROM bookings b
	JOIN events e ON b.event_id = e.id
`

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は予約行と座席割当行を作成する
// booking_seats の一意制約違反はアプリケーション層の衝突検査をすり抜けた
// 場合の最終防衛線であり、SeatConflictError に変換する
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)

	query := `
		INSERT INTO bookings (event_id, user_id, seats, quantity, total_amount, status, name, email, mobile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		b.EventID, b.UserID, pq.Int64Array(b.Seats), b.Quantity, b.TotalAmount,
		string(b.Status), nullable(b.Name), nullable(b.Email), nullable(b.Mobile), b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("予約作成に失敗しました: %w", err)
	}

	return r.InsertSeats(ctx, tx, b.EventID, b.Seats, b.ID)
}

// InsertSeats は予約の座席割当行を登録する
func (r *BookingRepository) InsertSeats(ctx context.Context, tx transaction.Tx, eventID int64, seats []int64, bookingID int64) error {
	sqlxTx := UnwrapTx(tx)

	for _, seatNo := range seats {
		_, err := sqlxTx.ExecContext(ctx,
			`INSERT INTO booking_seats (event_id, seat_no, booking_id) VALUES ($1, $2, $3)`,
			eventID, seatNo, bookingID,
		)
		if err != nil {
			var pgErr *pq.Error
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return &booking.SeatConflictError{Seats: []int64{seatNo}}
			}
			return fmt.Errorf("座席割当行の作成に失敗しました: %w", err)
		}
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*booking.Booking, error) {
	var row bookingRow
	err := r.db.GetContext(ctx, &row, bookingSelect+` WHERE b.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はIDから予約を行ロック付きで取得する
// 状態遷移の判定に使うため、イベント結合は行わず予約行のみをロックする
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*booking.Booking, error) {
	sqlxTx := UnwrapTx(tx)

	query := `
		SELECT id, event_id, user_id, seats, quantity, total_amount, status,
		       name, email, mobile, created_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`
	var row bookingRow
	err := sqlxTx.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約のロック取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は条件に一致する予約一覧を取得する
func (r *BookingRepository) List(ctx context.Context, filter booking.ListFilter) ([]*booking.Booking, error) {
	query := bookingSelect
	var conditions []string
	var params []interface{}

	if filter.UserID != nil {
		params = append(params, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("b.user_id = $%d", len(params)))
	}
	if filter.EventID != nil {
		params = append(params, *filter.EventID)
		conditions = append(conditions, fmt.Sprintf("b.event_id = $%d", len(params)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY b.created_at DESC"

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, params...); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}
	return toEntities(rows), nil
}

// GetByUserID はユーザーIDから予約一覧を取得する
func (r *BookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*booking.Booking, error) {
	var rows []bookingRow
	err := r.db.SelectContext(ctx, &rows, bookingSelect+` WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザー予約一覧取得に失敗しました: %w", err)
	}
	return toEntities(rows), nil
}

// ListSeatsByEvent はイベントのキャンセル済み以外の全予約の座席番号を取得する
func (r *BookingRepository) ListSeatsByEvent(ctx context.Context, tx transaction.Tx, eventID int64) ([]int64, error) {
	query := `
		SELECT bs.seat_no
		FROM booking_seats bs
		JOIN bookings b ON bs.booking_id = b.id
		WHERE bs.event_id = $1 AND b.status != 'cancelled'
		ORDER BY bs.seat_no
	`
	var seats []int64
	var err error
	if sqlxTx := UnwrapTx(tx); sqlxTx != nil {
		err = sqlxTx.SelectContext(ctx, &seats, query, eventID)
	} else {
		err = r.db.SelectContext(ctx, &seats, query, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("予約済み座席の取得に失敗しました: %w", err)
	}
	return seats, nil
}

// ListSeatsByEventAndUser は指定ユーザーのキャンセル済み以外の予約の座席番号を取得する
func (r *BookingRepository) ListSeatsByEventAndUser(ctx context.Context, tx transaction.Tx, eventID, userID int64) ([]int64, error) {
	query := `
		SELECT bs.seat_no
		FROM booking_seats bs
		JOIN bookings b ON bs.booking_id = b.id
		WHERE bs.event_id = $1 AND b.user_id = $2 AND b.status != 'cancelled'
		ORDER BY bs.seat_no
	`
	var seats []int64
	var err error
	if sqlxTx := UnwrapTx(tx); sqlxTx != nil {
		err = sqlxTx.SelectContext(ctx, &seats, query, eventID, userID)
	} else {
		err = r.db.SelectContext(ctx, &seats, query, eventID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザー予約済み座席の取得に失敗しました: %w", err)
	}
	return seats, nil
}

// UpdateStatus は予約の状態を更新する
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, status booking.Status) error {
	sqlxTx := UnwrapTx(tx)

	result, err := sqlxTx.ExecContext(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("予約更新に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// DeleteSeats は予約の座席割当行を削除する
func (r *BookingRepository) DeleteSeats(ctx context.Context, tx transaction.Tx, id int64) error {
	sqlxTx := UnwrapTx(tx)

	if _, err := sqlxTx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = $1`, id); err != nil {
		return fmt.Errorf("座席割当行の削除に失敗しました: %w", err)
	}
	return nil
}

func toEntities(rows []bookingRow) []*booking.Booking {
	result := make([]*booking.Booking, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ booking.Repository = (*BookingRepository)(nil)
