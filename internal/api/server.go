// Package api serves the read-only HTTP view of the quote database,
// consumed by the public website.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quorkbot/quork/internal/config"
	"github.com/quorkbot/quork/internal/quotes"
)

// Server exposes quote listings over HTTP
type Server struct {
	engine *gin.Engine
	store  *quotes.Store
	addr   string
}

// New creates the API server and registers its routes
func New(cfg *config.APIConfig, store *quotes.Store) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	// The website is served from a different origin than the API
	engine.Use(cors.Default())

	s := &Server{
		engine: engine,
		store:  store,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}

	engine.GET("/api/quotes", s.listQuotes)
	engine.GET("/healthz", s.health)

	return s
}

// Handler returns the underlying HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		slog.Info("api server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	}
}

// listQuotes returns every quote with its net score, newest first. An
// optional guild_id query parameter narrows the listing to one guild.
func (s *Server) listQuotes(c *gin.Context) {
	var guildID *int64
	if raw := c.Query("guild_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guild_id must be an integer"})
			return
		}
		guildID = &id
	}

	rows, err := s.store.ListWithScores(c.Request.Context(), guildID)
	if err != nil {
		slog.Error("failed to list quotes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if rows == nil {
		rows = []quotes.ScoredQuote{}
	}

	c.JSON(http.StatusOK, gin.H{
		"quotes": rows,
		"count":  len(rows),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
