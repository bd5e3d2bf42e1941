package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// CustomHTTPErrorHandler はドメインエラーをHTTPステータスへ対応付ける
// 座席番号や残席数を含むメッセージはそのままレスポンスに載せる
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message := statusFor(err)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

// statusFor はエラー分類ごとのステータスコードとメッセージを返す
func statusFor(err error) (int, string) {
	var (
		capacityErr  *booking.InsufficientCapacityError
		invalidErr   *booking.InvalidSeatError
		conflictErr  *booking.SeatConflictError
		duplicateErr *booking.DuplicateHoldError
	)

	switch {
	// 入力検証
	case errors.Is(err, booking.ErrEventIDRequired),
		errors.Is(err, booking.ErrSeatsRequired),
		errors.Is(err, booking.ErrInvalidAmount),
		errors.Is(err, booking.ErrInvalidQuantity),
		errors.Is(err, booking.ErrStatusRequired),
		errors.Is(err, booking.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()

	// 存在しない資源
	case errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound, err.Error()

	// 認可境界
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden, err.Error()

	// 割当の前提条件違反
	case errors.Is(err, event.ErrEventClosed):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &capacityErr):
		return http.StatusBadRequest, capacityErr.Error()
	case errors.As(err, &invalidErr):
		return http.StatusBadRequest, invalidErr.Error()
	case errors.As(err, &conflictErr):
		return http.StatusConflict, conflictErr.Error()
	case errors.As(err, &duplicateErr):
		return http.StatusConflict, duplicateErr.Error()

	// 不変条件の破れは常に全体中止として報告する
	case errors.Is(err, booking.ErrCapacityUnderflow):
		return http.StatusInternalServerError, err.Error()

	default:
		return http.StatusInternalServerError, "内部サーバーエラー"
	}
}
