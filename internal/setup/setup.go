// Package setup assembles the preference stack described by a config.Config.
package setup

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/portlet/internal/config"
	"github.com/aretw0/portlet/pkg/adapters/file"
	"github.com/aretw0/portlet/pkg/adapters/loam"
	"github.com/aretw0/portlet/pkg/adapters/memory"
	"github.com/aretw0/portlet/pkg/adapters/redis"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/persistence/middleware"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/preferences"
	"github.com/aretw0/portlet/pkg/schema"
)

// Stack is the preference manager built from a config with the resources it owns.
type Stack struct {
	Manager *preferences.Manager
	Loader  ports.PreferencesLoader

	closers []io.Closer
}

// Close releases backend connections.
func (s *Stack) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build creates the store, the definition loader and the manager for cfg.
// hooks are attached to the manager.
func Build(cfg *config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) (*Stack, error) {
	stack := &Stack{}

	store, locker, err := stack.store(cfg.Store)
	if err != nil {
		return nil, err
	}
	store, err = wrap(store, cfg.Store)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}

	loader, err := Loader(cfg)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	stack.Loader = loader

	opts := []preferences.ManagerOption{
		preferences.WithLoader(loader),
		preferences.WithValidators(schema.Factory()),
		preferences.WithManagerHooks(hooks),
		preferences.WithManagerLogger(logger),
	}
	if locker != nil {
		opts = append(opts, preferences.WithLocker(locker))
		if cfg.Store.LockTTL > 0 {
			opts = append(opts, preferences.WithLockTTL(cfg.Store.LockTTL))
		}
	}
	stack.Manager = preferences.NewManager(store, opts...)

	logger.Debug("preference stack ready", "backend", cfg.Store.Backend, "locking", locker != nil)
	return stack, nil
}

func (s *Stack) store(cfg config.Store) (ports.PreferencesStore, ports.DistributedLocker, error) {
	switch cfg.Backend {
	case "memory":
		return memory.NewStore(), nil, nil
	case "file":
		dir := cfg.Dir
		if dir == "" {
			dir = config.DefaultDir
		}
		return file.New(dir), nil, nil
	case "redis":
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		s.closers = append(s.closers, store)

		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		return store, redis.NewLocker(store.Client(), prefix), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// wrap applies masking first so encryption seals the masked values.
func wrap(store ports.PreferencesStore, cfg config.Store) (ports.PreferencesStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Mask) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Mask))
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return middleware.Chain(store, mws...), nil
}

// Loader resolves definitions from the config first, then from the
// definitions directory when one is set.
func Loader(cfg *config.Config) (ports.PreferencesLoader, error) {
	defs := make([]*domain.PreferenceDefinition, 0, len(cfg.Portlets))
	for _, name := range cfg.PortletNames() {
		def, _ := cfg.Definition(name)
		defs = append(defs, def)
	}
	loaders := []ports.PreferencesLoader{memory.NewLoader(defs...)}

	if cfg.Definitions != "" {
		docs, err := loam.Open(cfg.Definitions)
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, docs)
	}
	return preferences.ChainLoaders(loaders...), nil
}
