package preferences

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/portlet/internal/logging"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

// Committer persists an accepted preference set.
type Committer interface {
	Commit(ctx context.Context, key string, values map[string][]string) error
}

// CommitFunc adapts a function to Committer.
type CommitFunc func(ctx context.Context, key string, values map[string][]string) error

func (f CommitFunc) Commit(ctx context.Context, key string, values map[string][]string) error {
	return f(ctx, key, values)
}

// Preferences implements ports.Preferences.
type Preferences struct {
	mu sync.RWMutex

	key      string
	defaults map[string][]string
	readOnly map[string]bool
	values   map[string][]string

	phase     domain.Phase
	validator ports.PreferencesValidator
	committer Committer
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures Preferences.
type Option func(*Preferences)

// WithDefinition applies the defaults and read-only keys of def.
func WithDefinition(def *domain.PreferenceDefinition) Option {
	return func(p *Preferences) {
		if def == nil {
			return
		}
		p.defaults = cloneValues(def.Defaults)
		for _, k := range def.ReadOnly {
			p.readOnly[k] = true
		}
	}
}

// WithStored overlays previously committed values. Values of read-only keys are ignored.
func WithStored(values map[string][]string) Option {
	return func(p *Preferences) {
		p.values = cloneValues(values)
	}
}

// WithValidator sets the validator run by Store.
func WithValidator(v ports.PreferencesValidator) Option {
	return func(p *Preferences) { p.validator = v }
}

// WithCommitter sets where accepted sets are persisted. Without one, Store
// only validates and keeps the result in memory.
func WithCommitter(c Committer) Option {
	return func(p *Preferences) { p.committer = c }
}

// WithPhase records the invocation phase. Store is refused during render.
func WithPhase(phase domain.Phase) Option {
	return func(p *Preferences) { p.phase = phase }
}

func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Preferences) { p.hooks = p.hooks.Merge(hooks) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Preferences) { p.logger = logger }
}

// New creates the working copy of the preference set stored under key.
func New(key string, opts ...Option) *Preferences {
	p := &Preferences{
		key:      key,
		readOnly: make(map[string]bool),
		phase:    domain.PhaseAction,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	stored := p.values
	p.values = cloneValues(p.defaults)
	for k, v := range stored {
		if !p.readOnly[k] {
			p.values[k] = v
		}
	}
	return p
}

// Key returns the storage key of the set.
func (p *Preferences) Key() string { return p.key }

func (p *Preferences) IsReadOnly(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.readOnly[key]
}

func (p *Preferences) Value(key, def string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if v := p.values[key]; len(v) > 0 {
		return v[0]
	}
	return def
}

func (p *Preferences) Values(key string, def []string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	v, ok := p.values[key]
	if !ok {
		return def
	}
	return slices.Clone(v)
}

func (p *Preferences) SetValue(key, value string) error {
	return p.SetValues(key, []string{value})
}

func (p *Preferences) SetValues(key string, values []string) error {
	if key == "" {
		return domain.NewInvalidArgument("preference key must not be empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.readOnly[key] {
		return domain.NewReadOnlyError("preference " + key + " is read-only")
	}
	p.values[key] = slices.Clone(values)
	return nil
}

// Names returns the keys in sorted order.
func (p *Preferences) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.values))
}

func (p *Preferences) Map() map[string][]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneValues(p.values)
}

func (p *Preferences) Reset(key string) error {
	if key == "" {
		return domain.NewInvalidArgument("preference key must not be empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.readOnly[key] {
		return domain.NewReadOnlyError("preference " + key + " is read-only")
	}
	if def, ok := p.defaults[key]; ok {
		p.values[key] = slices.Clone(def)
	} else {
		delete(p.values, key)
	}
	return nil
}

// Store validates the working copy and persists it as a whole.
func (p *Preferences) Store(ctx context.Context) error {
	if p.phase == domain.PhaseRender {
		return domain.NewInvalidState("preferences can not be stored during render")
	}

	if p.validator != nil {
		if err := p.validator.Validate(p); err != nil {
			var failed []string
			var verr *domain.Error
			if errors.As(err, &verr) {
				failed = verr.FailedKeyList()
			}
			p.logger.Warn("preferences rejected", "key", p.key, "failed_keys", failed, "err", err)
			p.emit(ctx, false, failed)
			return err
		}
	}

	snapshot := p.Map()
	if p.committer != nil {
		if err := p.committer.Commit(ctx, p.key, snapshot); err != nil {
			return domain.NewIOError("storing preferences "+p.key, err)
		}
	}
	p.logger.Debug("preferences stored", "key", p.key)
	p.emit(ctx, true, nil)
	return nil
}

func (p *Preferences) emit(ctx context.Context, accepted bool, failed []string) {
	if p.hooks.OnPreferences == nil {
		return
	}
	typ := domain.EventPreferencesStored
	if !accepted {
		typ = domain.EventValidationFailed
	}
	p.hooks.OnPreferences(ctx, &domain.PreferencesEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: typ},
		Key:        p.key,
		Accepted:   accepted,
		FailedKeys: failed,
	})
}

func cloneValues(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

var _ ports.Preferences = (*Preferences)(nil)
