package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seatset"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// AvailabilityCache は空席数キャッシュのインターフェース
type AvailabilityCache interface {
	GetAvailableCount(ctx context.Context, eventID int64) (int64, error)
	SetAvailableCount(ctx context.Context, eventID int64, count int64, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID int64) error
}

// BookingService は座席割当プロトコルを実装する
// 全ての前提条件検査と効果は、イベント行への行ロックを保持する
// 単一の SERIALIZABLE トランザクション内で実行される
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	eventRepo   event.Repository
	users       booking.ContactDefaulter
	cache       AvailabilityCache
	cacheTTL    time.Duration
}

// NewBookingService はBookingServiceを作成する
// cache は nil でもよい（キャッシュなしで動作する）
func NewBookingService(
	tm transaction.Manager,
	br booking.Repository,
	er event.Repository,
	users booking.ContactDefaulter,
	cache AvailabilityCache,
	cacheTTL time.Duration,
) *BookingService {
	return &BookingService{
		txManager:   tm,
		bookingRepo: br,
		eventRepo:   er,
		users:       users,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// CreateBookingInput は予約作成の入力
// Seats はJSON値のまま受け取り、座席パーサで正規化する
type CreateBookingInput struct {
	EventID     int64
	UserID      int64
	Seats       json.RawMessage
	Quantity    int64
	TotalAmount int64
	Name        string
	Email       string
	Mobile      string
}

// CreateBooking は予約を作成する
// 検査順序: 入力検証 → イベント存在 → 受付状態 → 空席数 → 座席範囲 →
// 座席衝突 → 同一ユーザー二重予約 → 減算 → 防御的再確認 → 登録
// いずれかの検査に失敗した場合は一切の効果を残さずロールバックする
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	// 入力検証（台帳へのアクセス前に完了させる）
	if input.EventID <= 0 {
		return nil, booking.ErrEventIDRequired
	}
	if input.TotalAmount <= 0 {
		return nil, booking.ErrInvalidAmount
	}

	seats := seatset.Parse(input.Seats)
	seatMode := len(input.Seats) > 0 && string(input.Seats) != "null"
	if seatMode && len(seats) == 0 {
		return nil, booking.ErrSeatsRequired
	}

	var quantity int64
	if seatMode {
		quantity = int64(len(seats))
	} else {
		quantity = input.Quantity
		if quantity <= 0 {
			return nil, booking.ErrInvalidQuantity
		}
		seats = []int64{}
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// イベント行への行ロックをコミットまで保持する
	ev, err := s.eventRepo.GetByIDForUpdate(ctx, tx, input.EventID)
	if err != nil {
		return nil, err
	}
	if ev.IsClosed() {
		return nil, event.ErrEventClosed
	}
	if ev.AvailableSeats < quantity {
		return nil, &booking.InsufficientCapacityError{Available: ev.AvailableSeats}
	}

	if seatMode {
		if invalid := outOfRange(seats, ev.TotalSeats); len(invalid) > 0 {
			return nil, &booking.InvalidSeatError{Seats: invalid, TotalSeats: ev.TotalSeats}
		}

		booked, err := s.bookingRepo.ListSeatsByEvent(ctx, tx, input.EventID)
		if err != nil {
			return nil, err
		}
		if conflicts := intersect(seats, booked); len(conflicts) > 0 {
			return nil, &booking.SeatConflictError{Seats: conflicts}
		}

		// 衝突検査とは原因が異なるため別のエラーで報告する
		own, err := s.bookingRepo.ListSeatsByEventAndUser(ctx, tx, input.EventID, input.UserID)
		if err != nil {
			return nil, err
		}
		if duplicates := intersect(seats, own); len(duplicates) > 0 {
			return nil, &booking.DuplicateHoldError{Seats: duplicates}
		}
	}

	if err := s.eventRepo.DecrementAvailable(ctx, tx, input.EventID, quantity); err != nil {
		return nil, err
	}

	// 分離レベルで防ぎきれない更新競合への防御的確認
	available, err := s.eventRepo.GetAvailable(ctx, tx, input.EventID)
	if err != nil {
		return nil, err
	}
	if available < 0 {
		return nil, booking.ErrCapacityUnderflow
	}

	name, email := input.Name, input.Email
	if name == "" || email == "" {
		defaultName, defaultEmail, err := s.users.GetContact(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = defaultName
		}
		if email == "" {
			email = defaultEmail
		}
	}

	b := &booking.Booking{
		EventID:     input.EventID,
		UserID:      input.UserID,
		Seats:       seats,
		Quantity:    quantity,
		TotalAmount: input.TotalAmount,
		Status:      booking.StatusConfirmed,
		Name:        name,
		Email:       email,
		Mobile:      input.Mobile,
		CreatedAt:   time.Now(),
	}
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, input.EventID)
	return b, nil
}

// ListBookings は条件に一致する予約一覧を取得する
// 非管理者は自分の予約、または特定イベントの予約のみ参照できる
func (s *BookingService) ListBookings(ctx context.Context, actor booking.Actor, filter booking.ListFilter) ([]*booking.Booking, error) {
	if filter.EventID == nil && filter.UserID == nil && !actor.IsAdmin() {
		return nil, booking.ErrForbidden
	}
	if filter.UserID != nil && !actor.IsAdmin() && *filter.UserID != actor.UserID {
		return nil, booking.ErrForbidden
	}
	return s.bookingRepo.List(ctx, filter)
}

// GetBooking はIDから予約を取得する
// 非管理者は自分の予約のみ参照できる
func (s *BookingService) GetBooking(ctx context.Context, actor booking.Actor, id int64) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.UserID != actor.UserID {
		return nil, booking.ErrForbidden
	}
	return b, nil
}

// GetUserBookings はユーザーの予約一覧を取得する
// 非管理者は自分の予約のみ参照できる
func (s *BookingService) GetUserBookings(ctx context.Context, actor booking.Actor, targetUserID int64) ([]*booking.Booking, error) {
	if targetUserID != 0 && !actor.IsAdmin() && targetUserID != actor.UserID {
		return nil, booking.ErrForbidden
	}
	userID := actor.UserID
	if actor.IsAdmin() && targetUserID != 0 {
		userID = targetUserID
	}
	return s.bookingRepo.GetByUserID(ctx, userID)
}

// UpdateBookingStatus は予約の状態を更新する（管理者専用）
// キャンセルへの遷移は空席数を返却し座席割当行を解放する
// キャンセルからの復帰は空席数を再減算し座席割当行を再登録する
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor booking.Actor, id int64, status booking.Status) (*booking.Booking, error) {
	if !actor.IsAdmin() {
		return nil, booking.ErrForbidden
	}
	if status == "" {
		return nil, booking.ErrStatusRequired
	}
	if !booking.IsValidStatus(status) {
		return nil, booking.ErrInvalidStatus
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 状態の判定と更新を同一トランザクションで行う
	// 予約行をロックしてから読むことで、並行する遷移要求の重複適用を防ぐ
	existing, err := s.bookingRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == status {
		return existing, nil
	}

	// 行ロックを取得してから在庫を調整する
	if _, err := s.eventRepo.GetByIDForUpdate(ctx, tx, existing.EventID); err != nil {
		return nil, err
	}

	switch {
	case status == booking.StatusCancelled:
		if err := s.bookingRepo.DeleteSeats(ctx, tx, id); err != nil {
			return nil, err
		}
		if err := s.eventRepo.Restock(ctx, tx, existing.EventID, existing.Quantity); err != nil {
			return nil, err
		}
	case existing.IsCancelled():
		// キャンセル済みからの復帰は通常の割当と同じ検査を受ける
		if err := s.eventRepo.DecrementAvailable(ctx, tx, existing.EventID, existing.Quantity); err != nil {
			return nil, err
		}
		available, err := s.eventRepo.GetAvailable(ctx, tx, existing.EventID)
		if err != nil {
			return nil, err
		}
		if available < 0 {
			return nil, booking.ErrCapacityUnderflow
		}
		if len(existing.Seats) > 0 {
			booked, err := s.bookingRepo.ListSeatsByEvent(ctx, tx, existing.EventID)
			if err != nil {
				return nil, err
			}
			if conflicts := intersect(existing.Seats, booked); len(conflicts) > 0 {
				return nil, &booking.SeatConflictError{Seats: conflicts}
			}
			if err := s.bookingRepo.InsertSeats(ctx, tx, existing.EventID, existing.Seats, id); err != nil {
				return nil, err
			}
		}
	}

	if err := s.bookingRepo.UpdateStatus(ctx, tx, id, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, existing.EventID)
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *BookingService) invalidateCache(ctx context.Context, eventID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("キャッシュ無効化に失敗", zap.Int64("event_id", eventID), zap.Error(err))
	}
}

// outOfRange は [1, totalSeats] の範囲外の座席番号を返す
func outOfRange(seats []int64, totalSeats int64) []int64 {
	var invalid []int64
	for _, s := range seats {
		if s < 1 || s > totalSeats {
			invalid = append(invalid, s)
		}
	}
	return invalid
}

// intersect は seats のうち taken に含まれるものを返す（順序保持）
func intersect(seats []int64, taken []int64) []int64 {
	takenSet := make(map[int64]struct{}, len(taken))
	for _, t := range taken {
		takenSet[t] = struct{}{}
	}
	var result []int64
	for _, s := range seats {
		if _, ok := takenSet[s]; ok {
			result = append(result, s)
		}
	}
	return result
}
