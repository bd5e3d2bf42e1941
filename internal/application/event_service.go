package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// EventService はイベントの占有状況の読み取りを提供する
// イベント自体のCRUDは外部コンポーネントの責務
type EventService struct {
	eventRepo   event.Repository
	bookingRepo booking.Repository
	cache       AvailabilityCache
	cacheTTL    time.Duration
}

// NewEventService はEventServiceを作成する
func NewEventService(er event.Repository, br booking.Repository, cache AvailabilityCache, cacheTTL time.Duration) *EventService {
	return &EventService{eventRepo: er, bookingRepo: br, cache: cache, cacheTTL: cacheTTL}
}

// GetEvent はIDからイベントを取得する
func (s *EventService) GetEvent(ctx context.Context, id int64) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// GetAvailability はイベントの空席数を取得する（キャッシュ優先）
func (s *EventService) GetAvailability(ctx context.Context, eventID int64) (int64, error) {
	if s.cache != nil {
		if count, err := s.cache.GetAvailableCount(ctx, eventID); err == nil {
			return count, nil
		}
	}

	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailableCount(ctx, eventID, ev.AvailableSeats, s.cacheTTL); err != nil {
			logger.Warn("キャッシュ保存に失敗", zap.Int64("event_id", eventID), zap.Error(err))
		}
	}
	return ev.AvailableSeats, nil
}

// GetBookedSeats はイベントの予約済み座席番号一覧を取得する
// クライアントの座席マップ表示に使用される（キャンセル済みは含まない）
func (s *EventService) GetBookedSeats(ctx context.Context, eventID int64) ([]int64, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.bookingRepo.ListSeatsByEvent(ctx, nil, eventID)
}
