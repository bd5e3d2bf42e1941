package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	EventID int64 `json:"event_id" validate:"required" example:"5"`
	// 座席番号の配列。JSON文字列やカンマ区切り文字列も受け付ける
	Seats       json.RawMessage `json:"seats,omitempty" swaggertype:"array,integer" example:"1,2"`
	Quantity    int64           `json:"quantity,omitempty" example:"2"`
	TotalAmount int64           `json:"total_amount" validate:"required" example:"3000"`
	Name        string          `json:"name,omitempty" example:"山田太郎"`
	Email       string          `json:"email,omitempty" example:"taro@example.com"`
	Mobile      string          `json:"mobile,omitempty" example:"090-1234-5678"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required" example:"cancelled"`
}

type BookingResponse struct {
	ID            int64      `json:"id" example:"42"`
	EventID       int64      `json:"event_id" example:"5"`
	UserID        int64      `json:"user_id" example:"1"`
	Seats         []int64    `json:"seats" example:"1,2"`
	Quantity      int64      `json:"quantity" example:"2"`
	TotalAmount   int64      `json:"total_amount" example:"3000"`
	Status        string     `json:"status" example:"confirmed"`
	Name          string     `json:"name,omitempty"`
	Email         string     `json:"email,omitempty"`
	Mobile        string     `json:"mobile,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	EventTitle    string     `json:"event_title,omitempty"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	EventLocation string     `json:"event_location,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	seats := b.Seats
	if seats == nil {
		seats = []int64{}
	}
	return BookingResponse{
		ID: b.ID, EventID: b.EventID, UserID: b.UserID,
		Seats: seats, Quantity: b.Quantity, TotalAmount: b.TotalAmount,
		Status: string(b.Status),
		Name:   b.Name, Email: b.Email, Mobile: b.Mobile,
		CreatedAt:  b.CreatedAt,
		EventTitle: b.EventTitle, EventDate: b.EventDate, EventLocation: b.EventLocation,
	}
}

func toBookingResponses(bookings []*booking.Booking) []BookingResponse {
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return resp
}

// Create godoc
// @Summary 予約を作成
// @Description 座席指定または数量指定で予約を確定します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "座席が既に予約済み"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		EventID:     req.EventID,
		UserID:      actor.UserID,
		Seats:       req.Seats,
		Quantity:    req.Quantity,
		TotalAmount: req.TotalAmount,
		Name:        req.Name,
		Email:       req.Email,
		Mobile:      req.Mobile,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// List godoc
// @Summary 予約一覧を取得
// @Description 条件に一致する予約一覧を取得します。非管理者は自分の予約か特定イベントの予約のみ参照できます
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param event_id query int false "イベントID"
// @Param user_id query int false "ユーザーID"
// @Success 200 {array} BookingResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var filter booking.ListFilter
	if raw := c.QueryParam("event_id"); raw != "" {
		eventID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "無効なイベントIDです")
		}
		filter.EventID = &eventID
	}
	if raw := c.QueryParam("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "無効なユーザーIDです")
		}
		filter.UserID = &userID
	}

	bookings, err := h.service.ListBookings(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponses(bookings))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します。非管理者は自分の予約のみ参照できます
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path int true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効な予約IDです")
	}
	b, err := h.service.GetBooking(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetByUser godoc
// @Summary ユーザーの予約一覧を取得
// @Description 指定ユーザーの予約一覧を取得します。非管理者は自分の予約のみ参照できます
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path int true "ユーザーID"
// @Success 200 {array} BookingResponse
// @Failure 403 {object} api.ErrorResponse
// @Router /users/{id}/bookings [get]
func (h *BookingHandler) GetByUser(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	targetUserID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なユーザーIDです")
	}
	bookings, err := h.service.GetUserBookings(c.Request().Context(), actor, targetUserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponses(bookings))
}

// UpdateStatus godoc
// @Summary 予約の状態を更新
// @Description 予約の状態を更新します（管理者専用）。キャンセルは座席と在庫を解放します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param X-User-Role header string true "ロール（admin）"
// @Param id path int true "予約ID"
// @Param request body UpdateBookingStatusRequest true "新しい状態"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効な予約IDです")
	}
	var req UpdateBookingStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.UpdateBookingStatus(c.Request().Context(), actor, id, booking.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
