// Package service wires the ingestion pipeline and the session store into
// the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kiteforlife/kitegrade/internal/adapters/loader"
	"github.com/kiteforlife/kitegrade/internal/adapters/session"
	"github.com/kiteforlife/kitegrade/internal/domain/fallback"
	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/mapping"
	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/reconcile"
	"github.com/kiteforlife/kitegrade/internal/domain/report"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
	"github.com/kiteforlife/kitegrade/pkg/logger"
	"github.com/kiteforlife/kitegrade/pkg/metrics"
)

const (
	nanosecondsPerMillisecond = 1e6
	defaultMaxUploadBytes     = 10 << 20
	sweepDivisor              = 4
)

// Service owns the pipeline components and the session registry.
type Service struct {
	mu sync.RWMutex

	rubric     *rubric.Rubric
	loader     *loader.Loader
	mapper     *mapping.Mapper
	reconciler *reconcile.Reconciler
	sessions   *session.Registry

	// Configuration
	skipRows       int
	strictness     header.Strictness
	idPrefix       string
	defaultFile    string
	sessionTTL     time.Duration
	maxUploadBytes int64

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. The pipeline is usable right away; Start only
// launches the session janitor.
func New(opts ...Option) *Service {
	s := &Service{
		rubric:         rubric.Default(),
		skipRows:       loader.DefaultSkipRows,
		strictness:     header.Strict,
		idPrefix:       reconcile.DefaultIdentifierPrefix,
		sessionTTL:     2 * time.Hour,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}

	s.loader = loader.New(
		loader.WithSkipRows(s.skipRows),
		loader.WithLogger(s.logger.Named("loader")),
	)
	s.mapper = mapping.New(mapping.WithStrictness(s.strictness))
	s.reconciler = reconcile.New(s.rubric,
		reconcile.WithStrictness(s.strictness),
		reconcile.WithIdentifierPrefix(s.idPrefix),
	)
	s.sessions = session.NewRegistry(s.rubric,
		session.WithTTL(s.sessionTTL),
		session.WithLogger(s.logger.Named("sessions")),
	)
	return s
}

// Start launches background housekeeping.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if s.sessionTTL > 0 {
		go s.sessions.Run(runCtx, s.sessionTTL/sweepDivisor)
	}
	s.started = true
	s.logger.Info(ctx, "grading service started",
		logger.Int("rubricFields", s.rubric.Len()),
		logger.Int("skipRows", s.skipRows),
		logger.String("accentMode", s.strictness.String()),
		logger.String("defaultFile", s.defaultFile),
	)
	return nil
}

// Stop ends background housekeeping.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.cancel()
	s.started = false
	s.logger.Info(context.Background(), "grading service stopped")
}

// Rubric returns the rubric in use.
func (s *Service) Rubric() *rubric.Rubric { return s.rubric }

// MaxUploadBytes returns the upload size limit.
func (s *Service) MaxUploadBytes() int64 { return s.maxUploadBytes }

// Reconcile runs one source through load, mapping and reconciliation.
// The only error is a *loader.LoadError.
func (s *Service) Reconcile(ctx context.Context, src loader.Source) (*model.ReconciledTable, error) {
	start := time.Now()
	raw, err := s.loader.Load(ctx, src)
	if err != nil {
		var le *loader.LoadError
		if errors.As(err, &le) {
			metrics.RecordLoadFailure(le.Reason())
		}
		return nil, err
	}

	m := s.mapper.Map(raw.Headers, s.rubric)
	for _, c := range m.Matches {
		if c.Kind == model.MatchHeuristic {
			metrics.RecordHeuristicMatch()
		}
	}
	for _, f := range m.Gaps {
		metrics.RecordMappingGap(f)
	}
	if len(m.Gaps) > 0 {
		s.logger.Debug(ctx, "rubric fields without source column",
			logger.String("source", src.Name()),
			logger.Strings("fields", m.Gaps),
		)
	}

	t := s.reconciler.Reconcile(raw, m)
	metrics.RecordRowsReconciled(t.Len())
	metrics.RecordAggregateFailures(t.AggregateFailures)
	metrics.RecordReconcileLatency(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)
	return t, nil
}

// LoadTable walks the fallback chain: the upload when src is not nil, then
// the local default file when it exists, then the demo table. It always
// returns a usable table.
func (s *Service) LoadTable(ctx context.Context, src loader.Source) model.LoadResult {
	res := model.LoadResult{Warnings: []string{}}

	if src != nil {
		t, err := s.Reconcile(ctx, src)
		if err == nil {
			return s.finish(ctx, res, t, model.OriginUpload)
		}
		s.logger.Warn(ctx, "upload could not be read", logger.String("source", src.Name()), logger.Error(err))
		res.Warnings = append(res.Warnings, err.Error())
	}

	if s.defaultFile != "" {
		if _, err := os.Stat(s.defaultFile); err == nil {
			t, err := s.Reconcile(ctx, loader.FileSource{Path: s.defaultFile})
			if err == nil {
				return s.finish(ctx, res, t, model.OriginLocal)
			}
			s.logger.Warn(ctx, "local default file could not be read", logger.Error(err))
			res.Warnings = append(res.Warnings, err.Error())
		}
	}

	return s.finish(ctx, res, fallback.Table(s.rubric), model.OriginDemo)
}

func (s *Service) finish(ctx context.Context, res model.LoadResult, t *model.ReconciledTable, origin model.Origin) model.LoadResult {
	metrics.RecordLoad(string(origin))
	s.logger.Info(ctx, "table ready",
		logger.String("origin", string(origin)),
		logger.Int("rows", t.Len()),
		logger.Int("gaps", len(t.Mapping.Gaps)),
		logger.Int("aggregateFailures", t.AggregateFailures),
	)
	res.Table = t
	res.Origin = origin
	return res
}

// NewSession starts a session holding the local default or demo table.
func (s *Service) NewSession(ctx context.Context) (*session.Session, model.LoadResult) {
	res := s.LoadTable(ctx, nil)
	sess := s.sessions.Create(res.Table, res.Origin)
	s.logger.Debug(ctx, "session created", logger.String("session", sess.ID()))
	return sess, res
}

// Session returns a live session.
func (s *Service) Session(_ context.Context, id string) (*session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return sess, nil
}

// EndSession disposes a session and everything submitted in it.
func (s *Service) EndSession(ctx context.Context, id string) error {
	if err := s.sessions.Dispose(id); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	s.logger.Debug(ctx, "session ended", logger.String("session", id))
	return nil
}

// Upload replaces the session table with the result of LoadTable(src).
func (s *Service) Upload(ctx context.Context, id string, src loader.Source) (model.LoadResult, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return model.LoadResult{}, err
	}
	res := s.LoadTable(ctx, src)
	sess.SetTable(res.Table, res.Origin)
	return res, nil
}

// Submit appends an evaluation to the session.
func (s *Service) Submit(ctx context.Context, id string, ev model.Evaluation) (model.Evaluation, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return model.Evaluation{}, err
	}
	ev, err = sess.Submit(ev)
	if err != nil {
		return model.Evaluation{}, err
	}
	metrics.RecordEvaluationSubmitted()
	s.logger.Info(ctx, "evaluation recorded", logger.String("session", id), logger.String("student", ev.ID))
	return ev, nil
}

// Summary returns the school view of the session table.
func (s *Service) Summary(ctx context.Context, id string) (report.Summary, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return report.Summary{}, err
	}
	t, _ := sess.Table()
	return report.Summarize(t), nil
}

// Student returns one student's sheet from the session table.
func (s *Service) Student(ctx context.Context, id, student string) (report.StudentSheet, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return report.StudentSheet{}, err
	}
	t, _ := sess.Table()
	sheet, err := report.Student(t, student)
	if err != nil {
		return report.StudentSheet{}, fmt.Errorf("student %q: %w", student, err)
	}
	return sheet, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.Len()
	metrics.UpdateActiveSessions(sessions)
	return map[string]interface{}{
		"started":      s.started,
		"sessions":     sessions,
		"rubricFields": s.rubric.Len(),
		"skipRows":     s.skipRows,
		"accentMode":   s.strictness.String(),
		"defaultFile":  s.defaultFile,
	}
}
