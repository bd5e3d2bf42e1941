package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 環境変数をクリア
	envVars := []string{
		"PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "AVAILABILITY_CACHE_TTL",
		"SEAT_LOCK_EXPIRY", "SEAT_LOCK_SWEEP_INTERVAL",
	}
	for _, env := range envVars {
		os.Unsetenv(env)
	}

	cfg := Load()

	// Server defaults
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)

	// Database defaults
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "seat_booking", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	// Redis defaults
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)

	// SeatLock defaults
	assert.Equal(t, 5*time.Minute, cfg.SeatLock.Expiry)
	assert.Equal(t, 60*time.Second, cfg.SeatLock.SweepInterval)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("SERVER_READ_TIMEOUT", "60s")
	os.Setenv("DB_HOST", "db.example.com")
	os.Setenv("DB_NAME", "testdb")
	os.Setenv("REDIS_HOST", "redis.example.com")
	os.Setenv("REDIS_DB", "1")
	os.Setenv("SEAT_LOCK_EXPIRY", "10m")
	os.Setenv("SEAT_LOCK_SWEEP_INTERVAL", "30s")
	defer func() {
		for _, env := range []string{
			"PORT", "SERVER_READ_TIMEOUT", "DB_HOST", "DB_NAME",
			"REDIS_HOST", "REDIS_DB", "SEAT_LOCK_EXPIRY", "SEAT_LOCK_SWEEP_INTERVAL",
		} {
			os.Unsetenv(env)
		}
	}()

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "testdb", cfg.Database.DBName)
	assert.Equal(t, "redis.example.com", cfg.Redis.Host)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, 10*time.Minute, cfg.SeatLock.Expiry)
	assert.Equal(t, 30*time.Second, cfg.SeatLock.SweepInterval)
}

func TestLoad_InvalidDuration(t *testing.T) {
	// 不正なduration値はデフォルトにフォールバックする
	os.Setenv("SEAT_LOCK_EXPIRY", "not-a-duration")
	defer os.Unsetenv("SEAT_LOCK_EXPIRY")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.SeatLock.Expiry)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: "5432", User: "postgres",
		Password: "secret", DBName: "seat_booking", SSLMode: "disable",
	}
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=seat_booking")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "localhost", Port: "6379"}
	assert.Equal(t, "localhost:6379", cfg.Addr())
}
