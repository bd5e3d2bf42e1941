package event

import "time"

// Status はイベントのライフサイクル状態を表す
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusClosed   Status = "closed"
)

// Event はイベントエンティティを表す
// 座席の割当状況は AvailableSeats カウンタで管理する
type Event struct {
	ID             int64
	Title          string
	Description    string
	Location       string
	Date           time.Time
	TotalSeats     int64
	AvailableSeats int64
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsClosed はイベントが予約受付を終了しているかを返す
func (e *Event) IsClosed() bool {
	return e.Status == StatusClosed
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if e.AvailableSeats < 0 || e.AvailableSeats > e.TotalSeats {
		return ErrInvalidAvailableSeats
	}
	return nil
}
