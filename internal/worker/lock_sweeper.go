package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-seat-booking/internal/seatlock"
)

// LockRegistry は期限切れロックの回収元
type LockRegistry interface {
	SweepExpired() []seatlock.Event
	Len() int
}

// Broadcaster は回収したロックの解放を閲覧者へ周知する
type Broadcaster interface {
	Broadcast(ev seatlock.Event)
}

// LockSweeper は期限切れの座席ロックを定期的に回収するワーカー
type LockSweeper struct {
	registry    LockRegistry
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	interval    time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewLockSweeper は新しいスイーパーを作成
func NewLockSweeper(
	registry LockRegistry,
	broadcaster Broadcaster,
	m *metrics.Metrics,
	interval time.Duration,
) *LockSweeper {
	return &LockSweeper{
		registry:    registry,
		broadcaster: broadcaster,
		metrics:     m,
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (s *LockSweeper) Start(ctx context.Context) {
	logger.Info("座席ロックスイーパー開始",
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("座席ロックスイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("座席ロックスイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Stop はスイーパーを停止
func (s *LockSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// sweep は期限切れロックを回収し解放を周知する
func (s *LockSweeper) sweep() {
	log := logger.Get()
	log.Debug("期限切れロックの回収開始")

	released := s.registry.SweepExpired()
	s.metrics.SeatLocksActive.Set(float64(s.registry.Len()))
	if len(released) == 0 {
		log.Debug("期限切れロックなし")
		return
	}

	for _, ev := range released {
		s.broadcaster.Broadcast(ev)
	}
	s.metrics.SeatLocksSwept.Add(float64(len(released)))
	log.Info("期限切れロックを回収", zap.Int("count", len(released)))
}
