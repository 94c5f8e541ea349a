package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/portlet/internal/logging"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed commit lock is held.
const DefaultLockTTL = 30 * time.Second

// ValidatorFactory builds the validator of a preference set from its definition.
type ValidatorFactory func(def *domain.PreferenceDefinition) ports.PreferencesValidator

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager opens preference sets and serializes their commits.
// Unused per-key locks are reclaimed by reference counting.
type Manager struct {
	store  ports.PreferencesStore
	loader ports.PreferencesLoader

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration

	validators ValidatorFactory
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLocker enables distributed locking of commits.
func WithLocker(locker ports.DistributedLocker) ManagerOption {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLoader resolves definitions by portlet name for OpenFor.
func WithLoader(loader ports.PreferencesLoader) ManagerOption {
	return func(m *Manager) {
		m.loader = loader
	}
}

// WithValidators sets the factory used to validate every opened set.
func WithValidators(f ValidatorFactory) ManagerOption {
	return func(m *Manager) {
		m.validators = f
	}
}

// WithManagerHooks registers hooks passed to every opened set.
func WithManagerHooks(hooks domain.LifecycleHooks) ManagerOption {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithManagerLogger configures a logger for the Manager and the sets it opens.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager on top of store.
func NewManager(store ports.PreferencesStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// Open returns the working copy of the set stored under key, shaped by def.
func (m *Manager) Open(ctx context.Context, key string, def *domain.PreferenceDefinition, phase domain.Phase) (*Preferences, error) {
	stored, err := m.Load(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrPreferencesNotFound) {
		return nil, fmt.Errorf("failed to load preferences %s: %w", key, err)
	}

	opts := []Option{
		WithDefinition(def),
		WithStored(stored),
		WithPhase(phase),
		WithCommitter(CommitFunc(m.Save)),
		WithHooks(m.hooks),
		WithLogger(m.logger),
	}
	if m.validators != nil {
		opts = append(opts, WithValidator(m.validators(def)))
	}
	return New(key, opts...), nil
}

// OpenFor is Open with the definition of portletName resolved by the loader.
// A missing definition yields a set without defaults.
func (m *Manager) OpenFor(ctx context.Context, portletName, key string, phase domain.Phase) (*Preferences, error) {
	var def *domain.PreferenceDefinition
	if m.loader != nil {
		var err error
		def, err = m.loader.LoadDefinition(ctx, portletName)
		if err != nil && !errors.Is(err, domain.ErrPreferencesNotFound) {
			return nil, fmt.Errorf("failed to load definition of %s: %w", portletName, err)
		}
	}
	return m.Open(ctx, key, def, phase)
}

// Load retrieves the stored set under key.
func (m *Manager) Load(ctx context.Context, key string) (map[string][]string, error) {
	var values map[string][]string
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		values, err = m.store.Load(ctx, key)
		return err
	})
	return values, err
}

// Save replaces the stored set under key.
func (m *Manager) Save(ctx context.Context, key string, values map[string][]string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Save(ctx, key, values)
	})
}

// Delete removes the stored set under key.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying preferences store.
func (m *Manager) Store() ports.PreferencesStore {
	return m.store
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
