package worker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-seat-booking/internal/seatlock"
)

// MockLockRegistry はLockRegistryのモック
type MockLockRegistry struct {
	mock.Mock
}

func (m *MockLockRegistry) SweepExpired() []seatlock.Event {
	args := m.Called()
	return args.Get(0).([]seatlock.Event)
}

func (m *MockLockRegistry) Len() int {
	args := m.Called()
	return args.Int(0)
}

// MockBroadcaster はBroadcasterのモック
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(ev seatlock.Event) {
	m.Called(ev)
}

func newTestSweeper(registry LockRegistry, broadcaster Broadcaster, interval time.Duration) *LockSweeper {
	return NewLockSweeper(registry, broadcaster, metrics.NewWithRegistry(prometheus.NewRegistry()), interval)
}

func TestNewLockSweeper(t *testing.T) {
	sweeper := newTestSweeper(new(MockLockRegistry), new(MockBroadcaster), time.Minute)

	assert.NotNil(t, sweeper)
	assert.Equal(t, time.Minute, sweeper.interval)
	assert.NotNil(t, sweeper.stopCh)
	assert.NotNil(t, sweeper.doneCh)
}

func TestLockSweeper_Sweep(t *testing.T) {
	t.Run("回収したロックの解放を周知する", func(t *testing.T) {
		released := []seatlock.Event{
			{Kind: seatlock.EventSeatUnlocked, EventID: 1, SeatIndex: 3, HolderID: "a"},
			{Kind: seatlock.EventSeatUnlocked, EventID: 1, SeatIndex: 4, HolderID: "b"},
		}
		registry := new(MockLockRegistry)
		registry.On("SweepExpired").Return(released)
		registry.On("Len").Return(1)
		broadcaster := new(MockBroadcaster)
		broadcaster.On("Broadcast", released[0]).Once()
		broadcaster.On("Broadcast", released[1]).Once()

		m := metrics.NewWithRegistry(prometheus.NewRegistry())
		sweeper := NewLockSweeper(registry, broadcaster, m, time.Minute)
		sweeper.sweep()

		registry.AssertExpectations(t)
		broadcaster.AssertExpectations(t)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.SeatLocksActive))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.SeatLocksSwept))
	})

	t.Run("期限切れがなければ何も周知しない", func(t *testing.T) {
		registry := new(MockLockRegistry)
		registry.On("SweepExpired").Return([]seatlock.Event{})
		registry.On("Len").Return(0)
		broadcaster := new(MockBroadcaster)

		sweeper := newTestSweeper(registry, broadcaster, time.Minute)
		sweeper.sweep()

		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})
}

func TestLockSweeper_StartStop(t *testing.T) {
	t.Run("開始と停止が正常に動作する", func(t *testing.T) {
		registry := new(MockLockRegistry)
		registry.On("SweepExpired").Return([]seatlock.Event{}).Maybe()
		registry.On("Len").Return(0).Maybe()
		sweeper := newTestSweeper(registry, new(MockBroadcaster), 50*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go sweeper.Start(ctx)
		time.Sleep(120 * time.Millisecond)
		sweeper.Stop()

		select {
		case <-sweeper.doneCh:
		case <-time.After(1 * time.Second):
			t.Error("sweeper did not stop in time")
		}
	})

	t.Run("コンテキストキャンセルで停止する", func(t *testing.T) {
		registry := new(MockLockRegistry)
		registry.On("SweepExpired").Return([]seatlock.Event{}).Maybe()
		registry.On("Len").Return(0).Maybe()
		sweeper := newTestSweeper(registry, new(MockBroadcaster), 50*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			sweeper.Start(ctx)
			close(done)
		}()

		time.Sleep(80 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			t.Error("sweeper did not stop after context cancel")
		}
	})
}
