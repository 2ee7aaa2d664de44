package storage

import "time"

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory.
	Dir string

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5 (rewrite a value log file when half of it is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// SyncWrites enables fsync after each write.
	// Default: false
	SyncWrites bool

	// EncryptionKey, when non-empty, seals every session record.
	// Any length is accepted; a 32-byte key is derived with HKDF.
	EncryptionKey []byte

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   64 << 20, // 64MB
		SyncWrites:  false,
	}
}

// BadgerStats contains storage engine statistics.
type BadgerStats struct {
	// LSMSize is the LSM tree size in bytes.
	LSMSize uint64 `json:"lsm_size"`

	// ValueLogSize is the value log size in bytes.
	ValueLogSize uint64 `json:"value_log_size"`

	// TotalSize is LSMSize plus ValueLogSize.
	TotalSize uint64 `json:"total_size"`

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64 `json:"last_gc_time"`

	// GCRuns is the number of value log files rewritten by GC.
	GCRuns uint64 `json:"gc_runs"`
}
