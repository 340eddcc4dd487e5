// Package session keeps per-user grading state for the lifetime of a session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
	"github.com/kiteforlife/kitegrade/pkg/logger"
	"github.com/kiteforlife/kitegrade/pkg/metrics"
)

const defaultTTL = 2 * time.Hour

// Registry creates, finds and disposes sessions. Sessions never share state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	rubric *rubric.Rubric
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// NewRegistry creates an empty registry for rubric r.
func NewRegistry(r *rubric.Rubric, opts ...Option) *Registry {
	g := &Registry{
		sessions: make(map[string]*Session),
		rubric:   r,
		ttl:      defaultTTL,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Create starts a session holding table t.
func (g *Registry) Create(t *model.ReconciledTable, origin model.Origin) *Session {
	now := g.now()
	s := &Session{
		id:          g.newID(),
		rubric:      g.rubric,
		now:         g.now,
		table:       t,
		origin:      origin,
		evaluations: []model.Evaluation{},
		createdAt:   now,
		lastSeen:    now,
	}

	g.mu.Lock()
	g.sessions[s.id] = s
	n := len(g.sessions)
	g.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	return s
}

// Get returns the session with id and marks it as used. An expired session
// is removed and reported as not found.
func (g *Registry) Get(id string) (*Session, error) {
	g.mu.RLock()
	s, ok := g.sessions[id]
	g.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := g.now()
	if g.expired(s, now) {
		_ = g.Dispose(id)
		return nil, ErrSessionNotFound
	}
	s.touch(now)
	return s, nil
}

// Dispose ends the session and drops its evaluations.
func (g *Registry) Dispose(id string) error {
	g.mu.Lock()
	_, ok := g.sessions[id]
	delete(g.sessions, id)
	n := len(g.sessions)
	g.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.UpdateActiveSessions(n)
	return nil
}

// Len returns the number of live sessions.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// Sweep removes every expired session and returns how many were removed.
func (g *Registry) Sweep() int {
	now := g.now()
	g.mu.Lock()
	removed := 0
	for id, s := range g.sessions {
		if g.expired(s, now) {
			delete(g.sessions, id)
			removed++
		}
	}
	n := len(g.sessions)
	g.mu.Unlock()

	if removed > 0 {
		metrics.UpdateActiveSessions(n)
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (g *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || g.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := g.Sweep(); n > 0 && g.logger != nil {
				g.logger.Debug(ctx, "expired sessions removed", logger.Int("count", n))
			}
		}
	}
}

func (g *Registry) expired(s *Session, now time.Time) bool {
	return g.ttl > 0 && now.Sub(s.idleSince()) > g.ttl
}
