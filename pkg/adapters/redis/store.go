package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the adapter writes.
const DefaultPrefix = "portlet:prefs:"

// noExpiry is the index score of sets saved without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.PreferencesStore using Redis.
// Sets are JSON strings under prefix+"set:"; a sorted set at prefix+"index"
// indexes keys by expiry for List. The namespaces never overlap, whatever the key.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of stored sets.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New connects to a Redis server.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Store on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(k string) string { return s.prefix + "set:" + k }

func (s *Store) indexKey() string { return s.prefix + "index" }

func (s *Store) Save(ctx context.Context, key string, values map[string][]string) error {
	if values == nil {
		values = map[string][]string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(key), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.NewIOError("failed to save preferences to redis", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) (map[string][]string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPreferencesNotFound
		}
		return nil, domain.NewIOError("failed to load preferences from redis", err)
	}

	var values map[string][]string
	if err := json.Unmarshal(val, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return values, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.NewIOError("failed to delete preferences from redis", err)
	}
	return nil
}

// List prunes expired entries from the index and returns the rest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, domain.NewIOError("failed to prune expired preferences", err)
	}

	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, domain.NewIOError("failed to list preferences", err)
	}
	return keys, nil
}

// Client returns the underlying client, for sharing it with a Locker.
func (s *Store) Client() *backend.Client { return s.client }

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ ports.PreferencesStore = (*Store)(nil)
