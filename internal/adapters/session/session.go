// Package session keeps per-user grading state for the lifetime of a session.
package session

import (
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

// Session owns one user's reconciled table and the evaluations submitted
// during the session. Evaluations are append-only.
type Session struct {
	id     string
	rubric *rubric.Rubric
	now    func() time.Time

	mu          sync.Mutex
	table       *model.ReconciledTable
	origin      model.Origin
	evaluations []model.Evaluation
	createdAt   time.Time
	lastSeen    time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Table returns the current table and where it came from.
func (s *Session) Table() (*model.ReconciledTable, model.Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table, s.origin
}

// SetTable replaces the current table, typically after an upload.
func (s *Session) SetTable(t *model.ReconciledTable, origin model.Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.origin = origin
}

// Submit validates ev and appends it. The ID is trimmed, every rubric field
// needs a score between rubric.MinScore and rubric.MaxScore, and no other
// score keys are allowed. SubmittedAt is stamped when zero.
func (s *Session) Submit(ev model.Evaluation) (model.Evaluation, error) {
	ev.ID = strings.TrimSpace(ev.ID)
	if ev.ID == "" {
		return model.Evaluation{}, fmt.Errorf("%w: missing student id", ErrInvalidEvaluation)
	}
	for _, f := range s.rubric.Fields() {
		v, ok := ev.Scores[f]
		if !ok {
			return model.Evaluation{}, fmt.Errorf("%w: missing score for %s", ErrInvalidEvaluation, f)
		}
		if v < rubric.MinScore || v > rubric.MaxScore {
			return model.Evaluation{}, fmt.Errorf("%w: %s score %d outside %d-%d",
				ErrInvalidEvaluation, f, v, rubric.MinScore, rubric.MaxScore)
		}
	}
	for k := range ev.Scores {
		if !s.rubric.Has(k) {
			return model.Evaluation{}, fmt.Errorf("%w: unknown field %s", ErrInvalidEvaluation, k)
		}
	}
	ev.Scores = maps.Clone(ev.Scores)
	if ev.SubmittedAt.IsZero() {
		ev.SubmittedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations = append(s.evaluations, ev)
	return ev, nil
}

// Evaluations returns the submitted evaluations in submission order.
func (s *Session) Evaluations() []model.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]model.Evaluation, 0, len(s.evaluations)), s.evaluations...)
}

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) touch(t time.Time) {
	s.mu.Lock()
	s.lastSeen = t
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
