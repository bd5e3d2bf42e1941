package ws

// 受信メッセージ種別
const (
	msgJoinEvent  = "joinEvent"
	msgLockSeat   = "lockSeat"
	msgUnlockSeat = "unlockSeat"
)

// 送信メッセージ種別
const (
	msgLockedSeats    = "lockedSeats"
	msgSeatLockFailed = "seatLockFailed"
)

// inboundMessage はクライアントからの要求
// HolderID はロック保持者の識別子で、接続ではなく利用者に紐づく
type inboundMessage struct {
	Type      string `json:"type"`
	EventID   int64  `json:"eventId"`
	SeatIndex int64  `json:"seatIndex"`
	HolderID  string `json:"holderId"`
}

// lockedSeatsMessage は参加直後に送るロック状況のスナップショット
type lockedSeatsMessage struct {
	Type    string           `json:"type"`
	EventID int64            `json:"eventId"`
	Seats   map[int64]string `json:"seats"`
}

// seatEventMessage はロック取得・解放の周知
type seatEventMessage struct {
	Type      string `json:"type"`
	EventID   int64  `json:"eventId"`
	SeatIndex int64  `json:"seatIndex"`
	HolderID  string `json:"holderId"`
}

// lockFailedMessage はロック要求の失敗通知（要求者のみに送る）
type lockFailedMessage struct {
	Type      string `json:"type"`
	EventID   int64  `json:"eventId"`
	SeatIndex int64  `json:"seatIndex"`
	Message   string `json:"message"`
}
