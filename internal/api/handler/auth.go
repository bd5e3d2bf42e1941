package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
)

// 呼び出し元の識別情報はゲートウェイが付与するヘッダーから得る
// 認証そのものはこのサービスの責務ではない
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

// actorFrom はリクエストヘッダーから呼び出し元を組み立てる
func actorFrom(c echo.Context) (booking.Actor, error) {
	raw := c.Request().Header.Get(headerUserID)
	if raw == "" {
		return booking.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return booking.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "無効なユーザーIDです")
	}

	role := booking.RoleUser
	if c.Request().Header.Get(headerUserRole) == string(booking.RoleAdmin) {
		role = booking.RoleAdmin
	}
	return booking.Actor{UserID: userID, Role: role}, nil
}
