// Package seatlock はチェックアウト中の座席を一時的に確保する
// プロセス内ロックレジストリを提供する
//
// ロックは助言的なものであり、台帳側の割当保証とは独立している
// レジストリで拒否されても台帳上の割当が失敗するとは限らない（逆も同様）
package seatlock

import (
	"errors"
	"sync"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/clock"
)

// DefaultExpiry はロックの既定有効期間
const DefaultExpiry = 5 * time.Minute

var (
	ErrInvalidRequest    = errors.New("無効なロック要求です")
	ErrSeatAlreadyLocked = errors.New("座席は既にロックされています")
)

// EventKind はレジストリが発行するイベントの種別
type EventKind string

const (
	EventSeatLocked   EventKind = "seatLocked"
	EventSeatUnlocked EventKind = "seatUnlocked"
)

// Event はロック状態の変化を表すドメインイベント
// ブロードキャスト層がこれを購読して各イベントの閲覧者へ配信する
type Event struct {
	Kind      EventKind
	EventID   int64
	SeatIndex int64
	HolderID  string
}

type lock struct {
	holderID string
	since    time.Time
}

// Registry は (イベントID, 座席番号) ごとのロックを保持する
// 全ての変更は単一のミューテックスで直列化される
type Registry struct {
	mu     sync.Mutex
	clock  clock.Clock
	expiry time.Duration
	locks  map[int64]map[int64]lock
}

// NewRegistry は新しいレジストリを作成する
// expiry が0以下の場合は DefaultExpiry を使用する
func NewRegistry(clk clock.Clock, expiry time.Duration) *Registry {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Registry{
		clock:  clk,
		expiry: expiry,
		locks:  make(map[int64]map[int64]lock),
	}
}

// Acquire は座席のロックを取得する
// 取得または期限切れロックの奪取に成功した場合は SeatLocked イベントを返す
// 同一保持者による再取得はタイムスタンプの更新のみ行い、イベントは返さない
func (r *Registry) Acquire(eventID, seatIndex int64, holderID string) (*Event, error) {
	if eventID <= 0 || seatIndex <= 0 || holderID == "" {
		return nil, ErrInvalidRequest
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	seats, ok := r.locks[eventID]
	if !ok {
		seats = make(map[int64]lock)
		r.locks[eventID] = seats
	}

	existing, held := seats[seatIndex]
	if held && !r.expired(existing, now) {
		if existing.holderID != holderID {
			return nil, ErrSeatAlreadyLocked
		}
		// 同一保持者なので有効期限を更新する
		seats[seatIndex] = lock{holderID: holderID, since: now}
		return nil, nil
	}

	// 未ロック、または期限切れロックの奪取
	seats[seatIndex] = lock{holderID: holderID, since: now}
	return &Event{Kind: EventSeatLocked, EventID: eventID, SeatIndex: seatIndex, HolderID: holderID}, nil
}

// Release は座席のロックを解放する
// 保持者一致・保持者未指定・期限切れのいずれかの場合のみ削除し、
// SeatUnlocked イベントを返す。それ以外は何もしない
// 無効な要求は黙って無視する
func (r *Registry) Release(eventID, seatIndex int64, holderID string) *Event {
	if eventID <= 0 || seatIndex <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seats, ok := r.locks[eventID]
	if !ok {
		return nil
	}
	existing, held := seats[seatIndex]
	if !held {
		return nil
	}

	now := r.clock.Now()
	if holderID != "" && existing.holderID != holderID && !r.expired(existing, now) {
		return nil
	}

	delete(seats, seatIndex)
	if len(seats) == 0 {
		delete(r.locks, eventID)
	}
	return &Event{Kind: EventSeatUnlocked, EventID: eventID, SeatIndex: seatIndex}
}

// Snapshot はイベントの有効なロック一覧（座席番号→保持者）を返す
// 期限切れのロックは未回収でも含めない
func (r *Registry) Snapshot(eventID int64) map[int64]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[int64]string)
	seats, ok := r.locks[eventID]
	if !ok {
		return result
	}
	now := r.clock.Now()
	for seatIndex, l := range seats {
		if !r.expired(l, now) {
			result[seatIndex] = l.holderID
		}
	}
	return result
}

// SweepExpired は期限切れのロックを全イベントから回収し、
// 解放された座席ごとの SeatUnlocked イベントを返す
func (r *Registry) SweepExpired() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var events []Event
	for eventID, seats := range r.locks {
		for seatIndex, l := range seats {
			if r.expired(l, now) {
				delete(seats, seatIndex)
				events = append(events, Event{Kind: EventSeatUnlocked, EventID: eventID, SeatIndex: seatIndex})
			}
		}
		if len(seats) == 0 {
			delete(r.locks, eventID)
		}
	}
	return events
}

// Len は保持中のロック数を返す（期限切れ含む、メトリクス用）
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, seats := range r.locks {
		n += len(seats)
	}
	return n
}

func (r *Registry) expired(l lock, now time.Time) bool {
	return now.Sub(l.since) > r.expiry
}
