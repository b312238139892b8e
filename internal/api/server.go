// Package api exposes the reporting core as a read-only HTTP surface.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/dsm-insight/internal/ingest"
	"github.com/Veraticus/dsm-insight/internal/model"
)

// RecordSource supplies the records every request aggregates over.
type RecordSource interface {
	EnrichedRecords(ctx context.Context) ([]model.Record, error)
}

// Settings carries the report defaults a request may override.
type Settings struct {
	Frequency     model.Frequency
	QCAMaster     []string
	RiskThreshold float64
	LineBoundary  float64
	ParetoLimit   int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Frequency:     model.FrequencyMonth,
		RiskThreshold: model.DefaultRiskThreshold,
		LineBoundary:  model.DefaultLineBoundary,
		ParetoLimit:   10,
	}
}

// Handler serves report endpoints.
type Handler struct {
	src      RecordSource
	settings Settings
	sites    *ingest.Reader
}

// NewHandler creates a handler reading from src.
func NewHandler(src RecordSource, settings Settings) *Handler {
	return &Handler{src: src, settings: settings, sites: ingest.NewReader(ingest.DefaultOptions())}
}

// NewRouter wires the routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/kpis", h.KPIs)
		v1.GET("/portfolio", h.Portfolio)
		v1.GET("/summary/:key", h.Summary)
		v1.GET("/trend", h.Trend)
		v1.GET("/drilldown/state/:code", h.DrillDownState)
		v1.GET("/drilldown/sites", h.DrillDownSites)
		v1.GET("/sites/:site", h.SiteProfile)
	}
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Serve runs the router on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("API stopped")
	return nil
}
