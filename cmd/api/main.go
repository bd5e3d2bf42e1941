package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/api"
	"github.com/sanosuguru/go-seat-booking/internal/api/handler"
	apimiddleware "github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/config"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/clock"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-seat-booking/internal/seatlock"
	"github.com/sanosuguru/go-seat-booking/internal/worker"
	"github.com/sanosuguru/go-seat-booking/internal/ws"
)

func main() {
	cfg := config.Load()

	appLogger := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(appLogger)
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := postgres.Ping(ctx, db); err != nil {
		cancel()
		logger.Fatal("データベース疎通確認に失敗", zap.Error(err))
	}
	cancel()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis（空席数キャッシュ）
	redisClient := redis.NewClient(&cfg.Redis)
	defer redisClient.Close()

	var cache application.AvailabilityCache
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	if err := redis.Ping(ctx, redisClient); err != nil {
		logger.Warn("Redis疎通確認に失敗、キャッシュなしで継続", zap.Error(err))
	} else {
		cache = redis.NewAvailabilityCache(redisClient)
	}
	cancel()

	// リポジトリとサービス
	txManager := postgres.NewTxManager(db)
	bookingRepo := postgres.NewBookingRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	userRepo := postgres.NewUserRepository(db)

	bookingService := application.NewBookingService(txManager, bookingRepo, eventRepo, userRepo, cache, cfg.Redis.CacheTTL)
	eventService := application.NewEventService(eventRepo, bookingRepo, cache, cfg.Redis.CacheTTL)

	// 座席ロックレジストリと配信チャネル
	registry := seatlock.NewRegistry(clock.NewSystem(), cfg.SeatLock.Expiry)
	hub := ws.NewHub(registry, m)

	// 期限切れロックの回収ワーカー
	sweeper := worker.NewLockSweeper(registry, hub, m, cfg.SeatLock.SweepInterval)
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	go sweeper.Start(sweeperCtx)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	apimiddleware.SetupMiddleware(e)
	e.Use(apimiddleware.PrometheusMiddleware(m))

	// ハンドラー
	bookingHandler := handler.NewBookingHandler(bookingService)
	eventHandler := handler.NewEventHandler(eventService)
	healthHandler := handler.NewHealthHandler()
	wsHandler := handler.NewWSHandler(hub)

	// ルーティング
	apiGroup := e.Group("/api")
	apiGroup.GET("/health", healthHandler.Check)

	apiGroup.POST("/bookings", bookingHandler.Create)
	apiGroup.GET("/bookings", bookingHandler.List)
	apiGroup.GET("/bookings/:id", bookingHandler.GetByID)
	apiGroup.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)
	apiGroup.GET("/users/:id/bookings", bookingHandler.GetByUser)

	apiGroup.GET("/events/:id", eventHandler.GetByID)
	apiGroup.GET("/events/:id/availability", eventHandler.GetAvailability)
	apiGroup.GET("/events/:id/seats", eventHandler.GetBookedSeats)

	e.GET("/ws/events/:id", wsHandler.Serve)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), apimiddleware.MetricsBasicAuth())

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("シャットダウン開始")

	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("シャットダウン完了")
}
