package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
)

func TestEventService_GetAvailability(t *testing.T) {
	t.Run("キャッシュヒット時は台帳を読まない", func(t *testing.T) {
		eventRepo := new(MockEventRepository)
		cache := new(MockAvailabilityCache)
		cache.On("GetAvailableCount", mock.Anything, int64(5)).Return(int64(42), nil)

		svc := NewEventService(eventRepo, new(MockBookingRepository), cache, 30*time.Second)
		count, err := svc.GetAvailability(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, int64(42), count)
		eventRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("キャッシュミス時は台帳から読みキャッシュへ保存する", func(t *testing.T) {
		eventRepo := new(MockEventRepository)
		eventRepo.On("GetByID", mock.Anything, int64(5)).Return(liveEvent(42), nil)
		cache := new(MockAvailabilityCache)
		cache.On("GetAvailableCount", mock.Anything, int64(5)).Return(int64(0), errors.New("キャッシュが見つかりません"))
		cache.On("SetAvailableCount", mock.Anything, int64(5), int64(42), 30*time.Second).Return(nil)

		svc := NewEventService(eventRepo, new(MockBookingRepository), cache, 30*time.Second)
		count, err := svc.GetAvailability(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, int64(42), count)
		cache.AssertExpectations(t)
	})

	t.Run("キャッシュなしでも動作する", func(t *testing.T) {
		eventRepo := new(MockEventRepository)
		eventRepo.On("GetByID", mock.Anything, int64(5)).Return(liveEvent(42), nil)

		svc := NewEventService(eventRepo, new(MockBookingRepository), nil, 0)
		count, err := svc.GetAvailability(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, int64(42), count)
	})
}

func TestEventService_GetBookedSeats(t *testing.T) {
	t.Run("キャンセルされていない予約の座席を返す", func(t *testing.T) {
		eventRepo := new(MockEventRepository)
		eventRepo.On("GetByID", mock.Anything, int64(5)).Return(liveEvent(42), nil)
		bookingRepo := new(MockBookingRepository)
		bookingRepo.On("ListSeatsByEvent", mock.Anything, nil, int64(5)).Return([]int64{1, 2, 7}, nil)

		svc := NewEventService(eventRepo, bookingRepo, nil, 0)
		seats, err := svc.GetBookedSeats(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 7}, seats)
	})

	t.Run("イベントが存在しなければエラー", func(t *testing.T) {
		eventRepo := new(MockEventRepository)
		eventRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, event.ErrEventNotFound)
		bookingRepo := new(MockBookingRepository)

		svc := NewEventService(eventRepo, bookingRepo, nil, 0)
		_, err := svc.GetBookedSeats(context.Background(), 99)

		assert.ErrorIs(t, err, event.ErrEventNotFound)
		bookingRepo.AssertNotCalled(t, "ListSeatsByEvent", mock.Anything, mock.Anything, mock.Anything)
	})
}
