package schema

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/preferences"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValidate_Success(t *testing.T) {
	s := Schema{
		"title":   String(),
		"count":   Int(),
		"ratio":   Float(),
		"enabled": Bool(),
		"feeds":   Slice(String()),
	}
	data := map[string][]string{
		"title":   {"News"},
		"count":   {"3"},
		"ratio":   {"0.5"},
		"enabled": {"true"},
		"feeds":   {"world", "sports"},
	}

	if err := Validate(s, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_AbsentKeysAreSkipped(t *testing.T) {
	s := Schema{"count": Int(), "title": String()}
	if err := Validate(s, map[string][]string{"title": {"x"}}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_FailuresInKeyOrder(t *testing.T) {
	s := Schema{"zeta": Int(), "alpha": Bool(), "mid": String()}
	data := map[string][]string{"zeta": {"x"}, "alpha": {"maybe"}, "mid": {"a", "b"}}

	err := Validate(s, data)
	var aggr *AggregateError
	if !errors.As(err, &aggr) {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}
	if got := strings.Join(aggr.Keys(), ","); got != "alpha,mid,zeta" {
		t.Errorf("Keys() = %s, want alpha,mid,zeta", got)
	}
	if !strings.Contains(err.Error(), "3 validation errors") {
		t.Errorf("Error() should mention the count, got: %s", err.Error())
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	var s Schema
	if err := Validate(s, map[string][]string{"k": {"v"}}); err != nil {
		t.Errorf("Validate() with nil schema should return nil, got %v", err)
	}
}

func TestValidateFields(t *testing.T) {
	s := Schema{"count": Int(), "title": String()}
	data := map[string][]string{"count": {"nope"}, "title": {"x"}}

	if err := ValidateFields(s, data, "title"); err != nil {
		t.Errorf("ValidateFields(title) error = %v, want nil", err)
	}
	if err := ValidateFields(s, data); err != nil {
		t.Errorf("ValidateFields() with no fields should return nil, got %v", err)
	}

	err := ValidateFields(s, map[string][]string{}, "count", "unknown")
	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("ValidateFields() = %d errors, want 2", len(errs))
	}
	if errs[0].Error() != `key "count": required` {
		t.Errorf("unexpected first error: %s", errs[0])
	}
	if errs[1].Error() != `key "unknown": not defined in schema` {
		t.Errorf("unexpected second error: %s", errs[1])
	}
}

func TestValidationError_String(t *testing.T) {
	err := &ValidationError{Key: "count", Reason: `expected int, got "x"`, Values: []string{"x"}}
	want := `key "count": expected int, got "x" (values ["x"])`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if ValidationErrors(err) != nil {
		t.Error("ValidationErrors() on non-aggregate should be nil")
	}
}

func TestSchema_JSONRoundTrip(t *testing.T) {
	in := Schema{"count": Int(), "feeds": Slice(String())}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":"int","feeds":"[string]"}`, string(data))

	var out Schema
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "[string]", out["feeds"].Name())

	assert.Error(t, json.Unmarshal([]byte(`{"count":"integer"}`), &out))
}

func TestSchema_YAML(t *testing.T) {
	var cfg struct {
		Types Schema `yaml:"types"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("types:\n  count: int\n  enabled: bool\n"), &cfg))
	assert.Equal(t, "bool", cfg.Types["enabled"].Name())

	assert.Error(t, yaml.Unmarshal([]byte("types:\n  count: number\n"), &cfg))
}

func TestValidator_RejectsWithSortedKeys(t *testing.T) {
	v := Validator(Schema{"count": Int(), "enabled": Bool()})
	p := preferences.New("w", preferences.WithStored(map[string][]string{
		"enabled": {"sometimes"},
		"count":   {"many"},
	}))

	err := v.Validate(p)
	require.ErrorIs(t, err, domain.ErrValidator)
	var verr *domain.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"count", "enabled"}, verr.FailedKeyList())

	var aggr *AggregateError
	assert.True(t, errors.As(err, &aggr), "the schema report is kept as cause")

	require.NoError(t, p.SetValue("count", "2"))
	require.NoError(t, p.SetValue("enabled", "false"))
	assert.NoError(t, v.Validate(p))
}

func TestForDefinition(t *testing.T) {
	v, err := ForDefinition(nil)
	require.NoError(t, err)
	assert.NoError(t, v.Validate(preferences.New("w")))

	_, err = ForDefinition(&domain.PreferenceDefinition{Name: "news", Types: map[string]string{"count": "number"}})
	assert.ErrorIs(t, err, domain.ErrPortlet)
}

func TestFactory_WithManager(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	manager := preferences.NewManager(store, preferences.WithValidators(
		Factory(preferences.Require("title")),
	))
	def := &domain.PreferenceDefinition{Name: "news", Types: map[string]string{"count": "int"}}

	p, err := manager.Open(ctx, "w", def, domain.PhaseAction)
	require.NoError(t, err)
	require.NoError(t, p.SetValue("count", "x"))

	err = p.Store(ctx)
	var verr *domain.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"count", "title"}, verr.FailedKeyList())
	assert.Empty(t, store.saved)

	broken, err := manager.Open(ctx, "w", &domain.PreferenceDefinition{Name: "x", Types: map[string]string{"k": "?"}}, domain.PhaseAction)
	require.NoError(t, err)
	err = broken.Store(ctx)
	assert.ErrorIs(t, err, domain.ErrPortlet)
	assert.NotErrorIs(t, err, domain.ErrValidator)
}

type mapStore struct {
	saved map[string]map[string][]string
}

func newMapStore() *mapStore { return &mapStore{saved: map[string]map[string][]string{}} }

func (s *mapStore) Save(_ context.Context, key string, values map[string][]string) error {
	s.saved[key] = values
	return nil
}

func (s *mapStore) Load(_ context.Context, key string) (map[string][]string, error) {
	if v, ok := s.saved[key]; ok {
		return v, nil
	}
	return nil, domain.ErrPreferencesNotFound
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	delete(s.saved, key)
	return nil
}

func (s *mapStore) List(context.Context) ([]string, error) { return nil, nil }
