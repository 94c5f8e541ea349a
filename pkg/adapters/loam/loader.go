package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts a Loam repository to ports.PreferencesLoader.
// Every document is one definition, named by its "name" field or its path.
type Loader struct {
	Repo *loam.TypedRepository[DefinitionMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DefinitionMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only Loam repository at dir.
// Strict mode keeps numbers as json.Number so large integers survive.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[DefinitionMetadata](repo)), nil
}

// LoadDefinition resolves name by document id first, then by the name field.
func (l *Loader) LoadDefinition(ctx context.Context, name string) (*domain.PreferenceDefinition, error) {
	doc, err := l.Repo.Get(ctx, name)
	if err == nil {
		return toDefinition(doc.ID, doc.Data)
	}

	docs, listErr := l.Repo.List(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("loam list failed: %w", listErr)
	}
	for _, d := range docs {
		if definitionName(d.ID, d.Data) == name {
			return toDefinition(d.ID, d.Data)
		}
	}
	return nil, fmt.Errorf("%w: definition %q", domain.ErrPreferencesNotFound, name)
}

// ListDefinitions returns the sorted names of every definition.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		name := definitionName(doc.ID, doc.Data)
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: definition '%s' is declared in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func definitionName(id string, meta DefinitionMetadata) string {
	if meta.Name != "" {
		return meta.Name
	}
	return trimExtension(id)
}

func toDefinition(id string, meta DefinitionMetadata) (*domain.PreferenceDefinition, error) {
	def := &domain.PreferenceDefinition{
		Name:     definitionName(id, meta),
		ReadOnly: slices.Clone(meta.ReadOnly),
	}

	if len(meta.Defaults) > 0 {
		def.Defaults = make(map[string][]string, len(meta.Defaults))
		for key, raw := range meta.Defaults {
			values, err := formatValues(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: defaults.%s: %w", id, key, err)
			}
			def.Defaults[key] = values
		}
	}

	if len(meta.Types) > 0 {
		def.Types = make(map[string]string, len(meta.Types))
		for key, raw := range meta.Types {
			typ, err := formatSchemaType(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: types.%s: %w", id, key, err)
			}
			def.Types[key] = typ
		}
	}

	return def, nil
}

func formatValues(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		return []string{v}, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, err := formatScalar(item)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		return values, nil
	default:
		s, err := formatScalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

// formatScalar renders YAML and JSON scalars the way a user would type them.
func formatScalar(v any) (string, error) {
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b), nil
	}
	var s string
	if err := mapstructure.WeakDecode(v, &s); err != nil {
		return "", fmt.Errorf("expected a scalar value, got %T", v)
	}
	return s, nil
}

func formatSchemaType(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []any:
		if len(v) != 1 {
			return "", fmt.Errorf("expected single element list for slice type")
		}
		inner, err := formatSchemaType(v[0])
		if err != nil {
			return "", err
		}
		return "[" + inner + "]", nil
	case []string:
		if len(v) != 1 {
			return "", fmt.Errorf("expected single element list for slice type")
		}
		return "[" + v[0] + "]", nil
	default:
		return "", fmt.Errorf("expected string or list, got %T", value)
	}
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}

var _ ports.PreferencesLoader = (*Loader)(nil)
