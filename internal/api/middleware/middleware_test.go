package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

func TestSetupMiddleware(t *testing.T) {
	e := echo.New()

	SetupMiddleware(e)

	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "test")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Body.String())
	// リクエストIDが付与されている
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		handler    echo.HandlerFunc
		wantStatus int
	}{
		{
			"正常リクエスト",
			"/test",
			func(c echo.Context) error { return c.String(http.StatusOK, "success") },
			http.StatusOK,
		},
		{
			"クライアントエラー",
			"/error",
			func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad request") },
			http.StatusBadRequest,
		},
		{
			"サーバーエラー",
			"/server-error",
			func(c echo.Context) error { return c.String(http.StatusInternalServerError, "internal error") },
			http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(RequestLogger())
			e.GET(tt.path, tt.handler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPrometheusMiddleware(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	e := echo.New()
	e.Use(PrometheusMiddleware(m))
	e.GET("/events/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/events/5", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// ルートパターンでラベル付けされる
	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/events/:id", "200"))
	assert.Equal(t, float64(1), count)
}
