package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/ws"
)

// WSHandler はWebSocket接続の受け口
type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve は接続をWebSocketへ昇格する
// パスのイベントIDが正なら接続と同時にそのルームへ参加する
// @Summary 座席ロックの配信チャネル
// @Description WebSocketで座席ロックの取得・解放をリアルタイムに配信する
// @Tags ws
// @Param id path int true "イベントID"
// @Router /ws/events/{id} [get]
func (h *WSHandler) Serve(c echo.Context) error {
	eventID, err := parseEventID(c)
	if err != nil {
		return err
	}
	return h.hub.ServeWS(c.Response(), c.Request(), eventID)
}
