package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

// Client は1本のWebSocket接続を表す
// id はロック保持者の識別子としてそのまま Registry に渡る
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// 参加中のイベント（hub.mu で保護される）
	joined map[int64]struct{}
}

// enqueue は送信キューへ積む。詰まったクライアントのメッセージは捨てる
func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
		logger.Warn("送信キューが満杯のためメッセージを破棄",
			zap.String("client_id", c.id))
	}
}

// send1 は単一クライアント宛のメッセージを積む
func (c *Client) send1(msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("メッセージのエンコードに失敗", zap.Error(err))
		return
	}
	c.enqueue(payload)
}

// readPump は受信ループ。接続ごとに1本のgoroutineで動く
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("接続が異常終了", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
		c.hub.handleMessage(c, raw)
	}
}

// writePump は送信ループ。send チャネルが閉じたら終了する
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
