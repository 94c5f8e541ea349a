// Package config is the configuration model of the portlet CLI.
//
// The file is YAML (portlet.yaml by default). Every key can be overridden
// from the environment with the PORTLET_ prefix, dots replaced by
// underscores: PORTLET_STORE_BACKEND=redis.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/portlet/pkg/adapters/redis"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/schema"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix   = "PORTLET"
	DefaultName = "portlet"
	DefaultDir  = ".portlet/preferences"
)

// Backends lists the accepted store.backend values.
var Backends = []string{"memory", "file", "redis"}

type Config struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	Store    Store  `yaml:"store" mapstructure:"store"`

	// Definitions is a directory of preference definition documents.
	// Entries in Portlets take precedence over documents with the same name.
	Definitions string `yaml:"definitions" mapstructure:"definitions"`

	Portlets map[string]Portlet `yaml:"portlets" mapstructure:"portlets"`
}

type Store struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Redis   Redis  `yaml:"redis" mapstructure:"redis"`

	// EncryptionKey is a hex-encoded AES-256 key. Empty stores plain sets.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	// FallbackKeys decrypt sets sealed before a key rotation.
	FallbackKeys []string `yaml:"fallback_keys" mapstructure:"fallback_keys"`
	// Mask lists regular expressions of preference names masked at rest.
	Mask []string `yaml:"mask" mapstructure:"mask"`

	LockTTL time.Duration `yaml:"lock_ttl" mapstructure:"lock_ttl"`
}

type Redis struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// Portlet declares the preference definition of one portlet.
type Portlet struct {
	Defaults map[string]Values `yaml:"defaults" mapstructure:"defaults"`
	ReadOnly []string          `yaml:"read_only" mapstructure:"read_only"`
	Schema   map[string]string `yaml:"schema" mapstructure:"schema"`
}

// Values is a preference value list. A YAML scalar is a one-element list.
type Values []string

func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Values{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a scalar or a list of scalars", node.Line)
	}
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store: Store{
			Backend: "file",
			Dir:     DefaultDir,
			Redis:   Redis{Addr: "localhost:6379", Prefix: redis.DefaultPrefix},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.lock_ttl", 0)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.redis.ttl", 0)
	v.SetDefault("definitions", "")
}

// Read loads path, or portlet.yaml from the working directory when path is
// empty, and applies environment overrides. A missing default file is not
// an error.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		found = false
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Viper lower-cases map keys; preference names are case-sensitive.
	cfg.Portlets = nil
	if found {
		portlets, err := readPortlets(v.ConfigFileUsed())
		if err != nil {
			return nil, err
		}
		cfg.Portlets = portlets
	}
	return cfg, cfg.Validate()
}

func readPortlets(path string) (map[string]Portlet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	defer f.Close()

	var doc struct {
		Portlets map[string]Portlet `yaml:"portlets"`
	}
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse portlets: %w", err)
	}
	return doc.Portlets, nil
}

// Parse decodes a YAML document strictly: unknown keys are errors.
// Environment overrides are not applied.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the store settings and every portlet definition.
// Defaults must satisfy the declared schema.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(Backends, c.Store.Backend) {
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q (want one of %s)", c.Store.Backend, strings.Join(Backends, ", ")))
	}
	if _, _, err := c.Store.Keys(); err != nil {
		errs = append(errs, err)
	}
	for i, pattern := range c.Store.Mask {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("store.mask[%d]: %w", i, err))
		}
	}

	for _, name := range c.PortletNames() {
		p := c.Portlets[name]
		s, err := schema.ParseTypeMap(p.Schema)
		if err != nil {
			errs = append(errs, fmt.Errorf("portlets.%s.schema: %w", name, err))
			continue
		}
		if err := schema.Validate(s, p.defaults()); err != nil {
			errs = append(errs, fmt.Errorf("portlets.%s.defaults: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Keys decodes the active and fallback encryption keys. Both are nil
// when encryption is off.
func (s Store) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey("store.encryption_key", s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("store.fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(field, s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s: want 32 bytes, got %d", field, len(key))
	}
	return key, nil
}

// PortletNames returns the configured portlet names, sorted.
func (c *Config) PortletNames() []string {
	names := make([]string, 0, len(c.Portlets))
	for name := range c.Portlets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Definition returns the preference definition of a configured portlet.
func (c *Config) Definition(name string) (*domain.PreferenceDefinition, bool) {
	p, ok := c.Portlets[name]
	if !ok {
		return nil, false
	}
	return &domain.PreferenceDefinition{
		Name:     name,
		Defaults: p.defaults(),
		ReadOnly: slices.Clone(p.ReadOnly),
		Types:    p.Schema,
	}, true
}

func (p Portlet) defaults() map[string][]string {
	if len(p.Defaults) == 0 {
		return nil
	}
	out := make(map[string][]string, len(p.Defaults))
	for k, v := range p.Defaults {
		out[k] = slices.Clone([]string(v))
	}
	return out
}
