package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

func TestSessionService_CleanupOldSessions(t *testing.T) {
	repo := newMockSessionRepo()
	clock := newFakeClock()
	now := clock.Now()

	repo.put(sessionAt("young", 1, now.Add(-29*24*time.Hour)))
	repo.put(sessionAt("old", 1, now.Add(-31*24*time.Hour)))
	repo.put(sessionAt("other-user-old", 2, now.Add(-45*24*time.Hour)))

	revokedAt := now.Add(-40 * 24 * time.Hour)
	stale := sessionAt("old-revoked", 3, now.Add(-60*24*time.Hour))
	_ = domain.RevokePatch(revokedAt).Apply(stale)
	repo.put(stale)

	svc := newTestService(repo, clock)
	report, err := svc.CleanupOldSessions(context.Background())
	if err != nil {
		t.Fatalf("CleanupOldSessions: %v", err)
	}

	if report.Scanned != 4 || report.Expired != 3 || report.Revoked != 2 {
		t.Errorf("report = %+v, want scanned 4, expired 3, revoked 2", report)
	}
	if _, err := ulid.Parse(report.RunID); err != nil {
		t.Errorf("RunID %q is not a ULID: %v", report.RunID, err)
	}
	if !report.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", report.StartedAt, now)
	}

	if !repo.get(t, "young").IsActive {
		t.Error("young session should stay active")
	}
	for _, id := range []string{"old", "other-user-old"} {
		s := repo.get(t, id)
		if s.IsActive || s.RevokedAt == nil || !s.RevokedAt.Equal(now) {
			t.Errorf("%s = %+v, want revoked at %v", id, s, now)
		}
	}
	if got := repo.get(t, "old-revoked").RevokedAt; !got.Equal(revokedAt) {
		t.Errorf("re-revoke moved RevokedAt to %v", got)
	}
}

func TestSessionService_CleanupOldSessions_PartialFailure(t *testing.T) {
	repo := newMockSessionRepo()
	clock := newFakeClock()
	repo.put(sessionAt("bad", 1, clock.Now().Add(-31*24*time.Hour)))
	repo.put(sessionAt("good", 1, clock.Now().Add(-31*24*time.Hour)))
	repo.failUpdate = func(id string) error {
		if id == "bad" {
			return errStoreDown
		}
		return nil
	}

	svc := newTestService(repo, clock)
	report, err := svc.CleanupOldSessions(context.Background())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("error = %v, want store failure", err)
	}
	if report == nil || report.Revoked != 1 {
		t.Fatalf("report = %+v, want one revoked", report)
	}
	if repo.get(t, "good").IsActive {
		t.Error("failure on one session should not stop the pass")
	}
}

func TestSessionService_CleanupOldSessions_ListFailure(t *testing.T) {
	svc := newTestService(failingRepo{err: errStoreDown}, newFakeClock())

	report, err := svc.CleanupOldSessions(context.Background())
	if !errors.Is(err, domain.ErrStorage) {
		t.Errorf("error = %v, want ErrStorage", err)
	}
	if report == nil || report.RunID == "" {
		t.Error("report should be returned even on failure")
	}
}

// stubCleaner counts passes and fails the ones selected by fail.
type stubCleaner struct {
	calls atomic.Int64
	fail  func(n int64) error
	panic bool
}

func (c *stubCleaner) CleanupOldSessions(ctx context.Context) (*CleanupReport, error) {
	n := c.calls.Add(1)
	if c.panic && n == 1 {
		panic("boom")
	}
	if c.fail != nil {
		if err := c.fail(n); err != nil {
			return nil, err
		}
	}
	return &CleanupReport{RunID: ulid.Make().String()}, nil
}

func waitForRuns(t *testing.T, h *CleanupHandle, n int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Runs() < n {
		if time.Now().After(deadline) {
			t.Fatalf("runs = %d after 2s, want >= %d", h.Runs(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartSessionCleanup_Ticks(t *testing.T) {
	c := &stubCleaner{}
	h := StartSessionCleanup(c,
		WithCleanupInterval(5*time.Millisecond),
		WithCleanupLogger(logger.Nop()))
	defer StopSessionCleanup(h)

	waitForRuns(t, h, 3)
}

func TestStartSessionCleanup_SurvivesFailures(t *testing.T) {
	c := &stubCleaner{
		panic: true,
		fail: func(n int64) error {
			if n == 2 {
				return errStoreDown
			}
			return nil
		},
	}
	h := StartSessionCleanup(c,
		WithCleanupInterval(5*time.Millisecond),
		WithCleanupLogger(logger.Nop()))
	defer StopSessionCleanup(h)

	waitForRuns(t, h, 4)
	if h.Failures() != 2 {
		t.Errorf("failures = %d, want 2", h.Failures())
	}
}

func TestStartSessionCleanup_RunOnStart(t *testing.T) {
	c := &stubCleaner{}
	h := StartSessionCleanup(c,
		WithCleanupInterval(time.Hour),
		WithCleanupOnStart(true),
		WithCleanupLogger(logger.Nop()))
	defer StopSessionCleanup(h)

	waitForRuns(t, h, 1)
}

func TestStopSessionCleanup(t *testing.T) {
	c := &stubCleaner{}
	h := StartSessionCleanup(c,
		WithCleanupInterval(5*time.Millisecond),
		WithCleanupLogger(logger.Nop()))
	waitForRuns(t, h, 1)

	StopSessionCleanup(h)
	select {
	case <-h.Done():
	default:
		t.Fatal("loop still running after stop")
	}

	calls := c.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if c.calls.Load() != calls {
		t.Error("passes ran after stop")
	}

	StopSessionCleanup(h)
	StopSessionCleanup(nil)
}

func TestStartSessionCleanup_WithService(t *testing.T) {
	repo := newMockSessionRepo()
	clock := newFakeClock()
	repo.put(sessionAt("old", 1, clock.Now().Add(-31*24*time.Hour)))
	svc := newTestService(repo, clock)

	h := StartSessionCleanup(svc,
		WithCleanupOnStart(true),
		WithCleanupTimeout(time.Second),
		WithCleanupLogger(logger.Nop()))
	waitForRuns(t, h, 1)
	StopSessionCleanup(h)

	if repo.get(t, "old").IsActive {
		t.Error("scheduled pass did not revoke the expired session")
	}
}
