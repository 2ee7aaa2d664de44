//go:build integration

package redisstore

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

// Run with: FINTRACKR_TEST_REDIS_URL=redis://localhost:6379/15 go test -tags integration ./...
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("FINTRACKR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FINTRACKR_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.KeyPrefix = "fintrackr-test:" + t.Name() + ":"

	store, err := New(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		keys, _ := store.client.Keys(ctx, cfg.KeyPrefix+"*").Result()
		if len(keys) > 0 {
			store.client.Del(ctx, keys...)
		}
		store.Close()
	})
	return store
}

func TestIntegration_Lifecycle(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	s := domain.NewSession("s1", 1, domain.Metadata{}, t0)
	if err := store.CreateSession(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateSession(ctx, s); !errors.Is(err, domain.ErrSessionConflict) {
		t.Errorf("duplicate = %v, want ErrSessionConflict", err)
	}

	if err := store.UpdateSession(ctx, "s1", domain.RevokePatch(t0.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetSessionByID(ctx, "s1")
	if err != nil || got.IsActive {
		t.Fatalf("after revoke = %+v, %v", got, err)
	}

	list, _ := store.GetSessionsByUserID(ctx, 1)
	if len(list) != 1 {
		t.Errorf("user sessions = %d, want 1", len(list))
	}

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSessionByID(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("after delete = %v", err)
	}
	if err := store.DeleteSession(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestIntegration_ConcurrentUpdates(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	if err := store.CreateSession(ctx, domain.NewSession("s1", 1, domain.Metadata{}, t0)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.UpdateSession(ctx, "s1", domain.ActivityPatch(t0.Add(time.Duration(i)*time.Minute)))
		}(i)
	}
	wg.Wait()

	got, err := store.GetSessionByID(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastActivity.Before(t0.Add(time.Minute)) {
		t.Errorf("LastActivity = %v, no update applied", got.LastActivity)
	}
}
