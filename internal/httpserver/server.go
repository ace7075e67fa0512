// Package httpserver serves the MCP server over streamable HTTP, next to
// health and Prometheus endpoints.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/deixis/secmcp"
	"github.com/deixis/secmcp/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Options configures the router.
type Options struct {
	Path        string   // route serving MCP, e.g. /mcp
	CorsOrigins []string // allowed browser origins; empty disables CORS
	Logger      zerolog.Logger
}

// NewRouter mounts mcpHandler at opts.Path, plus /healthz and /metrics.
func NewRouter(mcpHandler http.Handler, opts Options) *gin.Engine {
	observability.RegisterMetrics()
	started := time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(opts.Logger))
	r.Use(observability.RequestMetrics())
	if len(opts.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CorsOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID"},
			ExposeHeaders: []string{"Mcp-Session-Id"},
			MaxAge:        12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(started).Round(time.Second).String(),
			"version": secmcp.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	path := opts.Path
	if path == "" {
		path = "/mcp"
	}
	h := gin.WrapH(mcpHandler)
	r.GET(path, h)
	r.POST(path, h)
	r.DELETE(path, h)
	return r
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info().Msg("http server stopped")
	return nil
}
