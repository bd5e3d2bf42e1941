// Package clock は時刻取得を注入可能にするための抽象化を提供する
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返すインターフェース
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem は time.Now を使用するクロックを返す
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fake はテスト用の固定クロック
// Advance で時刻を任意に進められる
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake は指定時刻から始まる固定クロックを返す
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now は現在の固定時刻を返す
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance は固定時刻を d だけ進める
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
