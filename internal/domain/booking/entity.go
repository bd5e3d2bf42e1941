package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// IsValidStatus は状態値が有効かを返す
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Booking は予約エンティティを表す
// Seats が空の場合は座席指定なしの数量予約として扱う
type Booking struct {
	ID          int64
	EventID     int64
	UserID      int64
	Seats       []int64
	Quantity    int64
	TotalAmount int64
	Status      Status
	Name        string
	Email       string
	Mobile      string
	CreatedAt   time.Time

	// 一覧表示用に結合されるイベント情報
	EventTitle    string
	EventDate     *time.Time
	EventLocation string
}

// IsCancelled は予約がキャンセル済みかを返す
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// Role は呼び出し元の権限を表す
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor は操作の呼び出し元を表す
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin は呼び出し元が管理者かを返す
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
