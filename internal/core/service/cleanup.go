package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
	"github.com/fintrackr/fintrackr/internal/telemetry/metric"
	"github.com/fintrackr/fintrackr/internal/telemetry/tracer"
)

// DefaultCleanupInterval is the period between cleanup passes.
const DefaultCleanupInterval = time.Hour

// CleanupReport describes one cleanup pass.
type CleanupReport struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Scanned is the number of sessions examined.
	Scanned int `json:"scanned"`

	// Expired is the number of sessions past the maximum age, revoked or not.
	Expired int `json:"expired"`

	// Revoked is the number of expired sessions that were still active.
	Revoked int `json:"revoked"`
}

// CleanupOldSessions revokes every stored session older than the maximum
// session age, whatever its current state. Already revoked sessions are
// written again; their RevokedAt is kept.
//
// A failure on one session does not stop the pass. All failures are
// returned joined together with the report of what was done.
func (s *SessionService) CleanupOldSessions(ctx context.Context) (report *CleanupReport, err error) {
	started := s.now()
	report = &CleanupReport{
		RunID:     ulid.MustNew(ulid.Timestamp(started), ulid.DefaultEntropy()).String(),
		StartedAt: started,
	}

	ctx, span := tracer.Start(ctx, s.tracer, "session.cleanup", attribute.String("run_id", report.RunID))
	defer func() {
		report.Duration = s.now().Sub(started)
		span.SetAttributes(
			attribute.Int("scanned", report.Scanned),
			attribute.Int("revoked", report.Revoked))
		tracer.End(span, err)
		s.metrics.ObserveCleanup(report.Revoked, report.Duration, err)
	}()

	sessions, err := s.repo.GetAllSessions(ctx)
	if err != nil {
		return report, storageErr(err)
	}
	report.Scanned = len(sessions)

	var errs []error
	for _, session := range sessions {
		if !session.IsExpired(started, s.maxAge) {
			continue
		}
		report.Expired++

		if err := s.repo.UpdateSession(ctx, session.ID, domain.RevokePatch(started)); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("revoke %s: %w", logger.MaskSessionID(session.ID), storageErr(err)))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if session.IsActive {
			report.Revoked++
		}
	}
	s.metrics.AddRevoked(metric.ReasonCleanup, report.Revoked)

	return report, errors.Join(errs...)
}

// Cleaner runs one cleanup pass.
type Cleaner interface {
	CleanupOldSessions(ctx context.Context) (*CleanupReport, error)
}

// CleanupOption configures the cleanup scheduler.
type CleanupOption func(*cleanupConfig)

type cleanupConfig struct {
	interval   time.Duration
	timeout    time.Duration
	runOnStart bool
	logger     logger.Logger
}

// WithCleanupInterval sets the period between passes. Non-positive values are ignored.
func WithCleanupInterval(d time.Duration) CleanupOption {
	return func(c *cleanupConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithCleanupTimeout bounds each pass. Zero means no bound.
func WithCleanupTimeout(d time.Duration) CleanupOption {
	return func(c *cleanupConfig) { c.timeout = d }
}

// WithCleanupOnStart runs a pass immediately instead of waiting for the first tick.
func WithCleanupOnStart(enabled bool) CleanupOption {
	return func(c *cleanupConfig) { c.runOnStart = enabled }
}

// WithCleanupLogger sets the logger for pass results.
func WithCleanupLogger(l logger.Logger) CleanupOption {
	return func(c *cleanupConfig) { c.logger = l }
}

// CleanupHandle owns a running cleanup loop. Stop it with StopSessionCleanup.
type CleanupHandle struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	runs     atomic.Int64
	failures atomic.Int64
}

// StartSessionCleanup starts a goroutine that calls svc.CleanupOldSessions
// on every tick. A failed pass is logged and the loop keeps going.
func StartSessionCleanup(svc Cleaner, opts ...CleanupOption) *CleanupHandle {
	cfg := cleanupConfig{interval: DefaultCleanupInterval}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Default()
	}
	cfg.logger = cfg.logger.With("component", "session_cleanup")

	ctx, cancel := context.WithCancel(context.Background())
	h := &CleanupHandle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go h.loop(ctx, svc, cfg)

	cfg.logger.Info("session cleanup started", "interval", cfg.interval)
	return h
}

// StopSessionCleanup stops the loop and waits for an in-flight pass to return.
// A nil handle or a second call is a no-op.
func StopSessionCleanup(h *CleanupHandle) {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		h.cancel()
		<-h.done
	})
}

// Runs returns the number of completed passes, successful or not.
func (h *CleanupHandle) Runs() int64 { return h.runs.Load() }

// Failures returns the number of passes that returned an error.
func (h *CleanupHandle) Failures() int64 { return h.failures.Load() }

// Done is closed once the loop has exited.
func (h *CleanupHandle) Done() <-chan struct{} { return h.done }

func (h *CleanupHandle) loop(ctx context.Context, svc Cleaner, cfg cleanupConfig) {
	defer close(h.done)

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	if cfg.runOnStart {
		h.runOnce(ctx, svc, cfg)
	}

	for {
		select {
		case <-ticker.C:
			h.runOnce(ctx, svc, cfg)
		case <-ctx.Done():
			cfg.logger.Info("session cleanup stopped", "runs", h.Runs())
			return
		}
	}
}

func (h *CleanupHandle) runOnce(ctx context.Context, svc Cleaner, cfg cleanupConfig) {
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	defer h.runs.Add(1)

	// A panicking pass must not take the loop down with it.
	defer func() {
		if r := recover(); r != nil {
			h.failures.Add(1)
			cfg.logger.Error("session cleanup panicked", "panic", fmt.Sprint(r))
		}
	}()

	report, err := svc.CleanupOldSessions(ctx)
	if err != nil {
		h.failures.Add(1)
		cfg.logger.Error("session cleanup failed", "error", err)
		return
	}
	if report == nil {
		return
	}
	cfg.logger.Info("session cleanup completed",
		"run_id", report.RunID,
		"scanned", report.Scanned,
		"expired", report.Expired,
		"revoked", report.Revoked,
		"duration", report.Duration)
}
