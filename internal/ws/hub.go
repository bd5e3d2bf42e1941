package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-seat-booking/internal/seatlock"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 座席マップは別オリジンのフロントエンドから開かれる
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub はイベントごとのルームを管理し、座席ロックの変化を周知する
// ロックの取得・解放の判定は Registry に委ね、Hub は配送のみを担う
type Hub struct {
	registry *seatlock.Registry
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	rooms map[int64]map[*Client]struct{}
}

// NewHub はHubを作成する
func NewHub(registry *seatlock.Registry, m *metrics.Metrics) *Hub {
	return &Hub{
		registry: registry,
		metrics:  m,
		rooms:    make(map[int64]map[*Client]struct{}),
	}
}

// ServeWS はHTTP接続をWebSocketへ昇格しクライアントを登録する
// eventID が正の場合は接続と同時にそのイベントのルームへ参加させる
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, eventID int64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		id:     uuid.NewString(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		joined: make(map[int64]struct{}),
	}
	h.metrics.ConnectedViewers.Inc()
	logger.Debug("クライアント接続", zap.String("client_id", client.id))

	if eventID > 0 {
		h.join(client, eventID)
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// Broadcast はロックイベントを該当ルームの全クライアントへ配送する
// スイーパーからの期限切れ通知もここを通る
func (h *Hub) Broadcast(ev seatlock.Event) {
	msg := seatEventMessage{
		Type:      string(ev.Kind),
		EventID:   ev.EventID,
		SeatIndex: ev.SeatIndex,
		HolderID:  ev.HolderID,
	}
	h.broadcastToRoom(ev.EventID, msg)
}

func (h *Hub) broadcastToRoom(eventID int64, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("メッセージのエンコードに失敗", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[eventID] {
		client.enqueue(payload)
	}
}

// join はクライアントをルームへ参加させ、現在のロック状況を返送する
func (h *Hub) join(c *Client, eventID int64) {
	h.mu.Lock()
	room, ok := h.rooms[eventID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[eventID] = room
	}
	room[c] = struct{}{}
	c.joined[eventID] = struct{}{}
	h.mu.Unlock()

	snapshot := lockedSeatsMessage{
		Type:    msgLockedSeats,
		EventID: eventID,
		Seats:   h.registry.Snapshot(eventID),
	}
	c.send1(snapshot)
}

// unregister はクライアントを全ルームから除去する
// 切断してもロックは解放せず、期限切れまで保持される
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	for eventID := range c.joined {
		if room, ok := h.rooms[eventID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, eventID)
			}
		}
	}
	h.mu.Unlock()

	h.metrics.ConnectedViewers.Dec()
	logger.Debug("クライアント切断", zap.String("client_id", c.id))
}

// handleMessage はクライアントからの要求を処理する
func (h *Hub) handleMessage(c *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("解釈できないメッセージを無視", zap.String("client_id", c.id))
		return
	}

	switch msg.Type {
	case msgJoinEvent:
		if msg.EventID > 0 {
			h.join(c, msg.EventID)
		}
	case msgLockSeat:
		h.handleLockSeat(c, msg)
	case msgUnlockSeat:
		// 不正な解放要求は黙って無視する
		// 保持者未指定の解放は強制解放としてレジストリに委ねる
		if ev := h.registry.Release(msg.EventID, msg.SeatIndex, msg.HolderID); ev != nil {
			h.Broadcast(*ev)
		}
	}
}

func (h *Hub) handleLockSeat(c *Client, msg inboundMessage) {
	// 保持者は接続ではなくペイロードで識別される
	// 再接続しても同一保持者による再取得は期限の更新として扱われる
	ev, err := h.registry.Acquire(msg.EventID, msg.SeatIndex, msg.HolderID)
	switch {
	case errors.Is(err, seatlock.ErrInvalidRequest):
		h.metrics.SeatLockRequestsTotal.WithLabelValues("invalid").Inc()
		c.send1(lockFailedMessage{
			Type:      msgSeatLockFailed,
			EventID:   msg.EventID,
			SeatIndex: msg.SeatIndex,
			Message:   err.Error(),
		})
	case errors.Is(err, seatlock.ErrSeatAlreadyLocked):
		h.metrics.SeatLockRequestsTotal.WithLabelValues("rejected").Inc()
		c.send1(lockFailedMessage{
			Type:      msgSeatLockFailed,
			EventID:   msg.EventID,
			SeatIndex: msg.SeatIndex,
			Message:   err.Error(),
		})
	case ev == nil:
		// 同一保持者による再要求は期限の更新のみ
		h.metrics.SeatLockRequestsTotal.WithLabelValues("refreshed").Inc()
	default:
		h.metrics.SeatLockRequestsTotal.WithLabelValues("granted").Inc()
		h.Broadcast(*ev)
	}
}
