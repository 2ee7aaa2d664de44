package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fintrackr/fintrackr/internal/core/domain"
	"github.com/fintrackr/fintrackr/internal/core/service"
	"github.com/fintrackr/fintrackr/internal/telemetry/logger"
)

var _ service.SessionRepository = (*Store)(nil)

const (
	// DefaultKeyPrefix namespaces every key written by the store.
	DefaultKeyPrefix = "fintrackr:"

	maxWatchRetries = 5
	mgetBatchSize   = 500
)

// Config configures the Redis connection.
type Config struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// KeyPrefix is prepended to every key.
	KeyPrefix string

	// PoolSize overrides the client's connection pool size when positive.
	PoolSize int

	// DialTimeout overrides the client's dial timeout when positive.
	DialTimeout time.Duration
}

// DefaultConfig returns the default Redis configuration.
func DefaultConfig() Config {
	return Config{
		URL:         "redis://localhost:6379/0",
		KeyPrefix:   DefaultKeyPrefix,
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
	}
}

// Store is a Redis-backed session repository.
type Store struct {
	client *redis.Client
	keys   keyspace
	logger logger.Logger
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, log logger.Logger) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis: url is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithClient(client, cfg.KeyPrefix, log), nil
}

// NewWithClient wraps an existing client. The store takes ownership of it
// and closes it in Close.
func NewWithClient(client *redis.Client, prefix string, log logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		client: client,
		keys:   keyspace{prefix: prefix},
		logger: log.With("component", "redis"),
	}
}

// CreateSession stores a new session and adds it to the user and global sets.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	key := s.keys.session(session.ID)
	return s.watch(ctx, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrSessionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, s.keys.user(session.UserID), session.ID)
			pipe.SAdd(ctx, s.keys.all(), session.ID)
			return nil
		})
		return err
	})
}

// GetSessionByID retrieves a session by ID.
func (s *Store) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.keys.session(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(data)
}

// GetSessionsByUserID returns all sessions of a user, oldest first.
func (s *Store) GetSessionsByUserID(ctx context.Context, userID int64) ([]*domain.Session, error) {
	ids, err := s.client.SMembers(ctx, s.keys.user(userID)).Result()
	if err != nil {
		return nil, err
	}
	return s.loadMany(ctx, ids)
}

// GetAllSessions returns every stored session, oldest first.
func (s *Store) GetAllSessions(ctx context.Context) ([]*domain.Session, error) {
	ids, err := s.client.SMembers(ctx, s.keys.all()).Result()
	if err != nil {
		return nil, err
	}
	return s.loadMany(ctx, ids)
}

// UpdateSession applies patch under WATCH, retrying on concurrent writes.
func (s *Store) UpdateSession(ctx context.Context, id string, patch domain.SessionPatch) error {
	key := s.keys.session(id)
	return s.watch(ctx, key, func(tx *redis.Tx) error {
		session, err := s.getTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := patch.Apply(session); err != nil {
			return err
		}
		data, err := encodeSession(session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	})
}

// DeleteSession removes a session and its set memberships.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	key := s.keys.session(id)
	return s.watch(ctx, key, func(tx *redis.Tx) error {
		session, err := s.getTx(ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, s.keys.user(session.UserID), id)
			pipe.SRem(ctx, s.keys.all(), id)
			return nil
		})
		return err
	})
}

// Count returns the number of stored and active sessions.
func (s *Store) Count(ctx context.Context) (total, active int, err error) {
	sessions, err := s.GetAllSessions(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, session := range sessions {
		if session.IsActive {
			active++
		}
	}
	return len(sessions), active, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := s.client.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if attempt >= maxWatchRetries {
			return fmt.Errorf("redis: %s: too many concurrent writers: %w", key, err)
		}
		s.logger.Debug("watch conflict, retrying", "attempt", attempt+1)
	}
}

func (s *Store) getTx(ctx context.Context, tx *redis.Tx, key string) (*domain.Session, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(data)
}

// loadMany fetches sessions by ID in batches. IDs whose record vanished
// between the set read and the fetch are skipped.
func (s *Store) loadMany(ctx context.Context, ids []string) ([]*domain.Session, error) {
	result := make([]*domain.Session, 0, len(ids))
	for start := 0; start < len(ids); start += mgetBatchSize {
		end := min(start+mgetBatchSize, len(ids))

		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, s.keys.session(id))
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			str, ok := v.(string)
			if !ok {
				continue
			}
			session, err := decodeSession([]byte(str))
			if err != nil {
				return nil, err
			}
			result = append(result, session)
		}
	}
	domain.SortByCreation(result)
	return result, nil
}

// keyspace builds prefixed keys.
type keyspace struct {
	prefix string
}

func (k keyspace) session(id string) string {
	return k.prefix + "session:" + id
}

func (k keyspace) user(userID int64) string {
	return k.prefix + "user:" + strconv.FormatInt(userID, 10) + ":sessions"
}

func (k keyspace) all() string {
	return k.prefix + "sessions"
}

func encodeSession(session *domain.Session) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("redis: encode session: %w", err)
	}
	return data, nil
}

func decodeSession(data []byte) (*domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("redis: decode session: %w", err)
	}
	return &session, nil
}
