package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID             int64      `db:"id"`
	Title          string     `db:"title"`
	Description    *string    `db:"description"`
	Location       *string    `db:"location"`
	Date           *time.Time `db:"date"`
	TotalSeats     int64      `db:"total_seats"`
	AvailableSeats int64      `db:"available_seats"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	e := &event.Event{
		ID:             r.ID,
		Title:          r.Title,
		TotalSeats:     r.TotalSeats,
		AvailableSeats: r.AvailableSeats,
		Status:         event.Status(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Location != nil {
		e.Location = *r.Location
	}
	if r.Date != nil {
		e.Date = *r.Date
	}
	return e
}

const eventColumns = `id, title, description, location, date, total_seats, available_seats, status, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はイベント行に行ロックを取得した上でイベントを取得する
// 割当の単位作業はこの行ロックをコミットまで保持する
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*event.Event, error) {
	sqlxTx := UnwrapTx(tx)
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	var row eventRow
	err := sqlxTx.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// DecrementAvailable は空席数を減算する
func (r *EventRepository) DecrementAvailable(ctx context.Context, tx transaction.Tx, id int64, quantity int64) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE events SET available_seats = available_seats - $1, updated_at = NOW() WHERE id = $2`

	result, err := sqlxTx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("空席数の更新に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// GetAvailable は空席数を再読込する
func (r *EventRepository) GetAvailable(ctx context.Context, tx transaction.Tx, id int64) (int64, error) {
	sqlxTx := UnwrapTx(tx)

	var available int64
	err := sqlxTx.GetContext(ctx, &available, `SELECT available_seats FROM events WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, event.ErrEventNotFound
		}
		return 0, fmt.Errorf("空席数の取得に失敗しました: %w", err)
	}
	return available, nil
}

// Restock は空席数を加算する（総座席数を上限とする）
func (r *EventRepository) Restock(ctx context.Context, tx transaction.Tx, id int64, quantity int64) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE events SET available_seats = LEAST(available_seats + $1, total_seats), updated_at = NOW() WHERE id = $2`

	result, err := sqlxTx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("空席数の返却に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
