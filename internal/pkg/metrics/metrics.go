package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約処理の総数（status: success, seat_conflict, duplicate_hold, capacity, validation, error）
	BookingsTotal *prometheus.CounterVec

	// 座席ロック要求の総数（result: granted, refreshed, rejected, invalid）
	SeatLockRequestsTotal *prometheus.CounterVec

	// 回収された期限切れロックの総数
	SeatLocksSwept prometheus.Counter

	// レジストリに残っている座席ロック数（掃除周期ごとに更新）
	SeatLocksActive prometheus.Gauge

	// 接続中の閲覧者数
	ConnectedViewers prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking attempts",
			},
			[]string{"status"},
		),
		SeatLockRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_lock_requests_total",
				Help: "Total number of seat lock requests",
			},
			[]string{"result"},
		),
		SeatLocksSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seat_locks_swept_total",
				Help: "Total number of expired seat locks reclaimed by the sweeper",
			},
		),
		SeatLocksActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "seat_locks_active",
				Help: "Current number of seat locks held in the registry",
			},
		),
		ConnectedViewers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "connected_viewers",
				Help: "Current number of connected event viewers",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.SeatLockRequestsTotal,
		m.SeatLocksSwept,
		m.SeatLocksActive,
		m.ConnectedViewers,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
