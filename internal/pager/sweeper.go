package pager

import (
	"context"
	"log/slog"
	"time"

	"github.com/quorkbot/quork/internal/discord"
)

// RunSweeper periodically expires idle sessions until the context is
// canceled. An expired session keeps its message visible but loses its
// interactive components.
func (m *Manager) RunSweeper(ctx context.Context, s discord.Session, interval time.Duration) {
	slog.Info("pager sweeper started", "interval", interval, "idle_timeout", m.idleTimeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pager sweeper stopped")
			return
		case <-ticker.C:
			m.sweep(s)
		}
	}
}

func (m *Manager) sweep(s discord.Session) {
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	var expired []*session
	for token, sess := range m.sessions {
		if sess.lastActive.Before(cutoff) {
			expired = append(expired, sess)
			delete(m.sessions, token)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		m.editOrigin(s, sess, m.render(sess), m.components(sess, true))
	}
	if len(expired) > 0 {
		slog.Debug("expired idle pager sessions", "count", len(expired))
	}
}

// Len reports the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
