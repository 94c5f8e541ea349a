package preferences_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/portlet/pkg/adapters/memory"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/preferences"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data   map[string]map[string][]string
	mu     sync.Mutex
	active int
	peak   int
}

func (s *SlowStore) enter() {
	s.mu.Lock()
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()
}

func (s *SlowStore) leave() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}

func (s *SlowStore) Save(ctx context.Context, key string, values map[string][]string) error {
	s.enter()
	defer s.leave()
	time.Sleep(5 * time.Millisecond) // Simulate IO

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]map[string][]string)
	}
	s.data[key] = values
	return nil
}

func (s *SlowStore) Load(ctx context.Context, key string) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if values, ok := s.data[key]; ok {
		return values, nil
	}
	return nil, domain.ErrPreferencesNotFound
}

func (s *SlowStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_SerializesCommits(t *testing.T) {
	store := &SlowStore{}
	manager := preferences.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := manager.Open(ctx, "shared", nil, domain.PhaseAction)
			assert.NoError(t, err)
			assert.NoError(t, p.SetValue("k", "v"))
			assert.NoError(t, p.Store(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.peak, "commits to one key must not overlap")
}

func TestManager_OpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager := preferences.NewManager(memory.NewStore(),
		preferences.WithLoader(memory.NewLoader(&domain.PreferenceDefinition{
			Name:     "news",
			Defaults: map[string][]string{"count": {"5"}},
		})),
	)

	p, err := manager.OpenFor(ctx, "news", "user1/news", domain.PhaseAction)
	require.NoError(t, err)
	assert.Equal(t, "5", p.Value("count", ""))
	require.NoError(t, p.SetValue("count", "8"))
	require.NoError(t, p.Store(ctx))

	reopened, err := manager.OpenFor(ctx, "news", "user1/news", domain.PhaseRender)
	require.NoError(t, err)
	assert.Equal(t, "8", reopened.Value("count", ""))
	assert.ErrorIs(t, reopened.Store(ctx), domain.ErrInvalidState)

	unknown, err := manager.OpenFor(ctx, "weather", "user1/weather", domain.PhaseAction)
	require.NoError(t, err)
	assert.Empty(t, unknown.Names())

	keys, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user1/news"}, keys)

	require.NoError(t, manager.Delete(ctx, "user1/news"))
	_, err = manager.Load(ctx, "user1/news")
	assert.ErrorIs(t, err, domain.ErrPreferencesNotFound)
}

func TestManager_ValidatorFactory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	var seen *domain.PreferenceDefinition
	manager := preferences.NewManager(store, preferences.WithValidators(func(def *domain.PreferenceDefinition) ports.PreferencesValidator {
		seen = def
		return preferences.Require("title")
	}))
	def := &domain.PreferenceDefinition{Name: "news"}

	p, err := manager.Open(ctx, "w", def, domain.PhaseAction)
	require.NoError(t, err)
	assert.Same(t, def, seen)
	assert.ErrorIs(t, p.Store(ctx), domain.ErrValidator)

	_, err = store.Load(ctx, "w")
	assert.ErrorIs(t, err, domain.ErrPreferencesNotFound)
}

type fakeLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	fail     error
}

func (l *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return errors.New("release failed")
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &fakeLocker{}
	manager := preferences.NewManager(memory.NewStore(), preferences.WithLocker(locker), preferences.WithLockTTL(time.Second))

	require.NoError(t, manager.Save(ctx, "k", map[string][]string{"a": {"1"}}), "release failures are only logged")
	assert.Equal(t, []string{"k"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)

	locker.fail = errors.New("unreachable")
	err := manager.Save(ctx, "k", nil)
	assert.ErrorIs(t, err, locker.fail)
}
