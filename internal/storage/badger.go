package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/core/service"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
	"github.com/fintrackr/fintrackr/pkg/crypto/adaptive"
)

var _ service.SessionRepository = (*BadgerStore)(nil)

// Common errors
var (
	// ErrEncryptionMismatch is returned by NewBadgerStore when the encryption
	// key does not match the one the store was created with.
	ErrEncryptionMismatch = errors.New("badger: encryption key mismatch")

	ErrClosed = errors.New("badger: store closed")
)

// Key layout:
//
//	session/<id>            -> record
//	user/<user_id>/<id>     -> empty (index)
//	meta/keycheck           -> encryption marker
var (
	sessionPrefix = []byte("session/")
	userPrefix    = []byte("user/")
	keyCheckKey   = []byte("meta/keycheck")
)

// Record format bytes.
const (
	recordPlain  byte = 1
	recordSealed byte = 2
)

const (
	keyDerivationInfo = "fintrackr/session-records"
	keyCheckPlaintext = "fintrackr-keycheck"
	maxTxnRetries     = 5
)

// BadgerStore implements service.SessionRepository on Badger v3.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	cipher adaptive.Cipher
	logger logger.Logger

	closed atomic.Bool

	// Metrics (internal counters)
	lastGCTime atomic.Int64  // Unix milliseconds
	gcRuns     atomic.Uint64 // value log files rewritten

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerStore opens (or creates) a Badger session store.
func NewBadgerStore(cfg BadgerConfig, log logger.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "badger")
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}

	var cipher adaptive.Cipher
	if len(cfg.EncryptionKey) > 0 {
		key, err := adaptive.DeriveKey(cfg.EncryptionKey, keyDerivationInfo)
		if err != nil {
			return nil, fmt.Errorf("badger: derive key: %w", err)
		}
		if cipher, err = adaptive.New(key); err != nil {
			return nil, fmt.Errorf("badger: cipher: %w", err)
		}
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(&badgerLogger{logger: log}).
		WithSyncWrites(cfg.SyncWrites).
		WithDetectConflicts(true).
		WithInMemory(cfg.InMemory)
	if cfg.CacheSize > 0 {
		opts = opts.WithBlockCacheSize(cfg.CacheSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		cipher: cipher,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if err := s.checkKey(); err != nil {
		db.Close()
		return nil, err
	}

	go s.gcLoop()

	log.Info("badger store opened",
		"dir", cfg.Dir,
		"encrypted", cipher != nil,
		"gc_interval", cfg.GCInterval)

	return s, nil
}

// checkKey verifies the configured key against the marker written when
// the store was created, writing the marker on first open.
func (s *BadgerStore) checkKey() error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyCheckKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			marker, err := s.seal([]byte(keyCheckPlaintext), keyCheckKey)
			if err != nil {
				return err
			}
			return txn.Set(keyCheckKey, marker)
		}
		if err != nil {
			return err
		}

		marker, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		switch {
		case len(marker) == 0:
			return fmt.Errorf("%w: corrupt marker", ErrEncryptionMismatch)
		case marker[0] == recordPlain && s.cipher != nil:
			return fmt.Errorf("%w: store was created without encryption", ErrEncryptionMismatch)
		case marker[0] == recordSealed && s.cipher == nil:
			return fmt.Errorf("%w: store is encrypted and no key was given", ErrEncryptionMismatch)
		}
		plain, err := s.open(marker, keyCheckKey)
		if err != nil || string(plain) != keyCheckPlaintext {
			return fmt.Errorf("%w: wrong key", ErrEncryptionMismatch)
		}
		return nil
	})
}

// ============================================================================
// SessionRepository
// ============================================================================

// CreateSession stores a new session and its user index entry.
func (s *BadgerStore) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	value, err := s.encode(session)
	if err != nil {
		return err
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		key := sessionKey(session.ID)
		if _, err := txn.Get(key); err == nil {
			return domain.ErrSessionConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(userKey(session.UserID, session.ID), nil)
	})
}

// GetSessionByID retrieves a session by ID.
func (s *BadgerStore) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		session, err = s.load(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSessionsByUserID returns all sessions of a user, oldest first.
func (s *BadgerStore) GetSessionsByUserID(ctx context.Context, userID int64) ([]*domain.Session, error) {
	result := []*domain.Session{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		prefix := userIndexPrefix(userID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []string
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(bytes.TrimPrefix(it.Item().Key(), prefix)))
		}

		for _, id := range ids {
			session, err := s.load(txn, id)
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			result = append(result, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	domain.SortByCreation(result)
	return result, nil
}

// GetAllSessions returns every stored session, oldest first.
func (s *BadgerStore) GetAllSessions(ctx context.Context) ([]*domain.Session, error) {
	result := []*domain.Session{}
	err := s.scan(ctx, func(session *domain.Session) bool {
		result = append(result, session)
		return true
	})
	if err != nil {
		return nil, err
	}
	domain.SortByCreation(result)
	return result, nil
}

// UpdateSession applies patch inside a transaction, retrying on conflicts.
func (s *BadgerStore) UpdateSession(ctx context.Context, id string, patch domain.SessionPatch) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		session, err := s.load(txn, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(session); err != nil {
			return err
		}
		value, err := s.encode(session)
		if err != nil {
			return err
		}
		return txn.Set(sessionKey(id), value)
	})
}

// DeleteSession removes a session and its index entry.
func (s *BadgerStore) DeleteSession(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		session, err := s.load(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(sessionKey(id)); err != nil {
			return err
		}
		return txn.Delete(userKey(session.UserID, id))
	})
}

// Count returns the number of stored and active sessions.
func (s *BadgerStore) Count(ctx context.Context) (total, active int, err error) {
	err = s.scan(ctx, func(session *domain.Session) bool {
		total++
		if session.IsActive {
			active++
		}
		return true
	})
	return total, active, err
}

// ============================================================================
// Transactions & Encoding
// ============================================================================

func (s *BadgerStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxTxnRetries {
			return err
		}
	}
}

func (s *BadgerStore) scan(ctx context.Context, fn func(*domain.Session) bool) error {
	return s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = sessionPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(bytes.TrimPrefix(item.Key(), sessionPrefix))
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			session, err := s.decode(raw, id)
			if err != nil {
				return err
			}
			if !fn(session) {
				break
			}
		}
		return nil
	})
}

func (s *BadgerStore) load(txn *badger.Txn, id string) (*domain.Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return s.decode(raw, id)
}

func (s *BadgerStore) encode(session *domain.Session) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("badger: encode session: %w", err)
	}
	return s.seal(data, []byte(session.ID))
}

func (s *BadgerStore) decode(raw []byte, id string) (*domain.Session, error) {
	data, err := s.open(raw, []byte(id))
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("badger: decode session: %w", err)
	}
	return &session, nil
}

// seal prefixes data with its format byte, encrypting it when a cipher is
// configured. aad binds the ciphertext to its key.
func (s *BadgerStore) seal(data, aad []byte) ([]byte, error) {
	if s.cipher == nil {
		return append([]byte{recordPlain}, data...), nil
	}
	sealed, err := s.cipher.Encrypt(data, aad)
	if err != nil {
		return nil, fmt.Errorf("badger: seal: %w", err)
	}
	return append([]byte{recordSealed}, sealed...), nil
}

func (s *BadgerStore) open(raw, aad []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("badger: empty record")
	}
	switch raw[0] {
	case recordPlain:
		return raw[1:], nil
	case recordSealed:
		if s.cipher == nil {
			return nil, fmt.Errorf("badger: sealed record without key")
		}
		data, err := s.cipher.Decrypt(raw[1:], aad)
		if err != nil {
			return nil, fmt.Errorf("badger: open record: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("badger: unknown record format %d", raw[0])
	}
}

func sessionKey(id string) []byte {
	return append(append([]byte{}, sessionPrefix...), id...)
}

func userIndexPrefix(userID int64) []byte {
	key := append([]byte{}, userPrefix...)
	key = strconv.AppendInt(key, userID, 10)
	return append(key, '/')
}

func userKey(userID int64, id string) []byte {
	return append(userIndexPrefix(userID), id...)
}

// ============================================================================
// Maintenance
// ============================================================================

// GC runs value log garbage collection until nothing more can be rewritten.
// Returns the number of value log files rewritten.
func (s *BadgerStore) GC(ctx context.Context) (uint64, error) {
	if s.cfg.InMemory {
		return 0, nil
	}
	startTime := time.Now()

	var rewritten uint64
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rewritten, fmt.Errorf("gc: %w", err)
		}
		rewritten++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(rewritten)
	if s.metricsGCRuns != nil {
		s.metricsGCRuns.Add(float64(rewritten))
	}

	s.logger.Debug("gc completed",
		"files_rewritten", rewritten,
		"elapsed", time.Since(startTime))

	return rewritten, nil
}

// Stats returns storage statistics.
func (s *BadgerStore) Stats() BadgerStats {
	lsm, vlog := s.db.Size()
	return BadgerStats{
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		TotalSize:    uint64(lsm + vlog),
		LastGCTime:   s.lastGCTime.Load(),
		GCRuns:       s.gcRuns.Load(),
	}
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	s.logger.Info("badger store closed")
	return nil
}

// RegisterMetrics registers Badger size and GC metrics with reg.
func (s *BadgerStore) RegisterMetrics(reg prometheus.Registerer) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fintrackr",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fintrackr",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fintrackr",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})
	s.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fintrackr",
		Subsystem: "badger",
		Name:      "gc_files_rewritten_total",
		Help:      "Total value log files rewritten by Badger garbage collection",
	})

	reg.MustRegister(
		s.metricsLSMSize,
		s.metricsValueLogSize,
		s.metricsLastGCTime,
		s.metricsGCRuns,
	)

	s.refreshMetrics()
	return s
}

func (s *BadgerStore) refreshMetrics() {
	if s.metricsLSMSize == nil {
		return
	}
	stats := s.Stats()
	s.metricsLSMSize.Set(float64(stats.LSMSize))
	s.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	if stats.LastGCTime > 0 {
		s.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

// gcLoop runs periodic garbage collection.
func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.GC(ctx); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
			cancel()
			s.refreshMetrics()

		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
