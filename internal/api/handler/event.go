package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
)

type EventHandler struct {
	service EventServiceInterface
}

func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type EventResponse struct {
	ID             int64      `json:"id" example:"5"`
	Title          string     `json:"title" example:"夏のライブ2025"`
	Description    string     `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	Date           time.Time `json:"date"`
	TotalSeats     int64     `json:"total_seats" example:"100"`
	AvailableSeats int64     `json:"available_seats" example:"42"`
	Status         string    `json:"status" example:"live"`
}

type AvailabilityResponse struct {
	EventID        int64 `json:"event_id" example:"5"`
	AvailableSeats int64 `json:"available_seats" example:"42"`
}

type BookedSeatsResponse struct {
	EventID int64   `json:"event_id" example:"5"`
	Seats   []int64 `json:"seats" example:"1,2,7"`
}

func toEventResponse(ev *event.Event) EventResponse {
	return EventResponse{
		ID: ev.ID, Title: ev.Title, Description: ev.Description,
		Location: ev.Location, Date: ev.Date,
		TotalSeats: ev.TotalSeats, AvailableSeats: ev.AvailableSeats,
		Status: string(ev.Status),
	}
}

func parseEventID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "無効なイベントIDです")
	}
	return id, nil
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	id, err := parseEventID(c)
	if err != nil {
		return err
	}
	ev, err := h.service.GetEvent(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(ev))
}

// GetAvailability godoc
// @Summary 空席数を取得
// @Description イベントの現在の空席数を返します
// @Tags events
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/availability [get]
func (h *EventHandler) GetAvailability(c echo.Context) error {
	id, err := parseEventID(c)
	if err != nil {
		return err
	}
	available, err := h.service.GetAvailability(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{EventID: id, AvailableSeats: available})
}

// GetBookedSeats godoc
// @Summary 予約済み座席を取得
// @Description 座席マップ表示用に、キャンセルされていない予約の座席番号一覧を返します
// @Tags events
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {object} BookedSeatsResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/seats [get]
func (h *EventHandler) GetBookedSeats(c echo.Context) error {
	id, err := parseEventID(c)
	if err != nil {
		return err
	}
	seats, err := h.service.GetBookedSeats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if seats == nil {
		seats = []int64{}
	}
	return c.JSON(http.StatusOK, BookedSeatsResponse{EventID: id, Seats: seats})
}
