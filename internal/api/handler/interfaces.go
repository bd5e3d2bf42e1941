package handler

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	ListBookings(ctx context.Context, actor booking.Actor, filter booking.ListFilter) ([]*booking.Booking, error)
	GetBooking(ctx context.Context, actor booking.Actor, id int64) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, actor booking.Actor, targetUserID int64) ([]*booking.Booking, error)
	UpdateBookingStatus(ctx context.Context, actor booking.Actor, id int64, status booking.Status) (*booking.Booking, error)
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	GetEvent(ctx context.Context, id int64) (*event.Event, error)
	GetAvailability(ctx context.Context, eventID int64) (int64, error)
	GetBookedSeats(ctx context.Context, eventID int64) ([]int64, error)
}
