package seatlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/clock"
)

func newTestRegistry(t *testing.T) (*Registry, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewRegistry(clk, DefaultExpiry), clk
}

func TestRegistry_Acquire(t *testing.T) {
	t.Run("空いている座席のロックは常に成功する", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		ev, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, EventSeatLocked, ev.Kind)
		assert.Equal(t, int64(10), ev.EventID)
		assert.Equal(t, int64(7), ev.SeatIndex)
		assert.Equal(t, "u1", ev.HolderID)
	})

	t.Run("別の保持者による有効なロックは拒否される", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		_, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)

		ev, err := r.Acquire(10, 7, "u2")
		assert.ErrorIs(t, err, ErrSeatAlreadyLocked)
		assert.Nil(t, ev)
	})

	t.Run("同一保持者による再取得は更新のみでイベントを発行しない", func(t *testing.T) {
		r, clk := newTestRegistry(t)
		_, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)

		clk.Advance(4 * time.Minute)
		ev, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)
		assert.Nil(t, ev)

		// 更新によって有効期限が延びている
		clk.Advance(4 * time.Minute)
		_, err = r.Acquire(10, 7, "u2")
		assert.ErrorIs(t, err, ErrSeatAlreadyLocked)
	})

	t.Run("期限切れロックは別の保持者が奪取できる", func(t *testing.T) {
		r, clk := newTestRegistry(t)
		_, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)

		// 5分以内は拒否
		clk.Advance(100 * time.Second)
		_, err = r.Acquire(10, 7, "u2")
		assert.ErrorIs(t, err, ErrSeatAlreadyLocked)

		// 5分を超えると奪取できる
		clk.Advance(201 * time.Second)
		ev, err := r.Acquire(10, 7, "u2")
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, EventSeatLocked, ev.Kind)
		assert.Equal(t, "u2", ev.HolderID)
	})

	t.Run("無効な要求は拒否される", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		_, err := r.Acquire(0, 7, "u1")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, err = r.Acquire(10, 0, "u1")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, err = r.Acquire(10, 7, "")
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestRegistry_Release(t *testing.T) {
	t.Run("保持者自身による解放", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		_, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)

		ev := r.Release(10, 7, "u1")
		require.NotNil(t, ev)
		assert.Equal(t, EventSeatUnlocked, ev.Kind)

		// 解放後は誰でも取得できる
		lockedEv, err := r.Acquire(10, 7, "u2")
		require.NoError(t, err)
		assert.NotNil(t, lockedEv)
	})

	t.Run("別の保持者による解放は有効期間中は無視される", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		_, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)

		ev := r.Release(10, 7, "u2")
		assert.Nil(t, ev)
		assert.Equal(t, map[int64]string{7: "u1"}, r.Snapshot(10))
	})

	t.Run("期限切れロックは誰でも解放できる", func(t *testing.T) {
		r, clk := newTestRegistry(t)
		_, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)

		clk.Advance(DefaultExpiry + time.Second)
		ev := r.Release(10, 7, "u2")
		require.NotNil(t, ev)
		assert.Equal(t, EventSeatUnlocked, ev.Kind)
	})

	t.Run("保持者未指定の解放は受け付ける", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		_, err := r.Acquire(10, 7, "u1")
		require.NoError(t, err)

		ev := r.Release(10, 7, "")
		assert.NotNil(t, ev)
	})

	t.Run("存在しないロックや無効な要求は無視される", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		assert.Nil(t, r.Release(10, 7, "u1"))
		assert.Nil(t, r.Release(0, 7, "u1"))
		assert.Nil(t, r.Release(10, 0, "u1"))
	})
}

func TestRegistry_Snapshot(t *testing.T) {
	r, clk := newTestRegistry(t)

	_, err := r.Acquire(10, 1, "u1")
	require.NoError(t, err)
	clk.Advance(3 * time.Minute)
	_, err = r.Acquire(10, 2, "u2")
	require.NoError(t, err)
	_, err = r.Acquire(20, 5, "u3")
	require.NoError(t, err)

	// 座席1のロックだけが期限切れになる
	clk.Advance(2*time.Minute + time.Second)

	snap := r.Snapshot(10)
	assert.Equal(t, map[int64]string{2: "u2"}, snap)

	// 別イベントのロックは混ざらない
	assert.Equal(t, map[int64]string{5: "u3"}, r.Snapshot(20))

	// ロックのないイベントは空のスナップショット
	assert.Empty(t, r.Snapshot(99))
}

func TestRegistry_SweepExpired(t *testing.T) {
	r, clk := newTestRegistry(t)

	_, err := r.Acquire(10, 1, "u1")
	require.NoError(t, err)
	_, err = r.Acquire(10, 2, "u2")
	require.NoError(t, err)
	clk.Advance(3 * time.Minute)
	_, err = r.Acquire(20, 5, "u3")
	require.NoError(t, err)

	// 最初の2つだけが期限切れ
	clk.Advance(2*time.Minute + time.Second)

	events := r.SweepExpired()
	assert.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, EventSeatUnlocked, ev.Kind)
		assert.Equal(t, int64(10), ev.EventID)
	}

	// 回収後のスナップショットは空
	assert.Empty(t, r.Snapshot(10))
	assert.Equal(t, map[int64]string{5: "u3"}, r.Snapshot(20))

	// 期限切れがなければ何も返さない
	assert.Empty(t, r.SweepExpired())
}

func TestRegistry_ExpiryTakeoverScenario(t *testing.T) {
	// u1がt=0で座席7をロック、u2がt=100秒で要求→拒否、t=301秒で要求→成功
	r, clk := newTestRegistry(t)

	_, err := r.Acquire(10, 7, "u1")
	require.NoError(t, err)

	clk.Advance(100 * time.Second)
	_, err = r.Acquire(10, 7, "u2")
	assert.ErrorIs(t, err, ErrSeatAlreadyLocked)

	clk.Advance(201 * time.Second)
	ev, err := r.Acquire(10, 7, "u2")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "u2", ev.HolderID)
	assert.Equal(t, map[int64]string{7: "u2"}, r.Snapshot(10))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	// 同一座席への並行取得で成功するのは常に1つだけ
	r, _ := newTestRegistry(t)

	const workers = 32
	var wg sync.WaitGroup
	granted := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		holder := string(rune('a' + i%26))
		go func(h string) {
			defer wg.Done()
			if ev, err := r.Acquire(1, 1, h); err == nil && ev != nil {
				granted <- h
			}
		}(holder)
	}
	wg.Wait()
	close(granted)

	var winners []string
	for h := range granted {
		winners = append(winners, h)
	}
	require.Len(t, winners, 1)
	assert.Equal(t, map[int64]string{1: winners[0]}, r.Snapshot(1))
}

func TestNewRegistry_DefaultExpiry(t *testing.T) {
	clk := clock.NewFake(time.Now())
	r := NewRegistry(clk, 0)
	assert.Equal(t, DefaultExpiry, r.expiry)
}
