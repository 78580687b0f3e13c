package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes /healthz and /metrics while an interval watch is
// running.
type MetricsServer struct {
	echo *echo.Echo
	log  *slog.Logger
}

// NewMetricsServer creates the observability endpoint server.
func NewMetricsServer(log *slog.Logger) *MetricsServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(recovery(log), requestLog(log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &MetricsServer{echo: e, log: log}
}

// Start serves on addr in a background goroutine.
func (s *MetricsServer) Start(addr string) {
	s.log.Info("metrics endpoint listening", "addr", addr)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics endpoint error", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
