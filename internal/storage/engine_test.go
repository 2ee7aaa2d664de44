package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/storage/memory"
	"github.com/fintrackr/fintrackr/internal/storage/redisstore"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

func TestOpen_Memory(t *testing.T) {
	for _, engine := range []string{"", EngineMemory} {
		backend, err := Open(context.Background(), Config{Engine: engine}, logger.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", engine, err)
		}
		if _, ok := backend.(*memory.Store); !ok {
			t.Errorf("Open(%q) = %T, want *memory.Store", engine, backend)
		}
		backend.Close()
	}
}

func TestOpen_Badger(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Engine:  EngineBadger,
		DataDir: dir,
		Badger:  DefaultBadgerConfig(""),
	}

	backend, err := Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*BadgerStore); !ok {
		t.Fatalf("Open = %T, want *BadgerStore", backend)
	}
	if _, err := os.Stat(filepath.Join(dir, "sessions")); err != nil {
		t.Errorf("badger dir not created: %v", err)
	}

	ctx := context.Background()
	if err := backend.CreateSession(ctx, domain.NewSession("s1", 1, domain.Metadata{}, t0)); err != nil {
		t.Fatal(err)
	}
	total, active, err := backend.Count(ctx)
	if err != nil || total != 1 || active != 1 {
		t.Errorf("Count = %d/%d, %v", total, active, err)
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown engine", Config{Engine: "etcd"}},
		{"badger without dir", Config{Engine: EngineBadger}},
		{"redis without url", Config{Engine: EngineRedis}},
		{"redis bad url", Config{Engine: EngineRedis, Redis: redisstore.Config{URL: "not-a-url"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := Open(context.Background(), tt.cfg, logger.Nop())
			if err == nil {
				backend.Close()
				t.Fatal("expected error")
			}
			if errors.Is(err, domain.ErrStorage) {
				t.Errorf("configuration errors should not be storage errors: %v", err)
			}
		})
	}
}
