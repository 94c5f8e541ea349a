package schema

import (
	"errors"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	"github.com/aretw0/portlet/pkg/preferences"
)

// Validator adapts s into a preferences validator. A rejection is a
// validator failure listing the failing keys in sorted order, with the
// AggregateError as its cause.
func Validator(s Schema) ports.PreferencesValidator {
	return ports.ValidatorFunc(func(prefs ports.Preferences) error {
		err := Validate(s, prefs.Map())
		if err == nil {
			return nil
		}
		var aggr *AggregateError
		if !errors.As(err, &aggr) {
			return err
		}
		return domain.NewValidatorError("preference validation failed", aggr.Keys()).WithCause(aggr)
	})
}

// ForDefinition builds the validator for the types declared by def. A nil
// definition or one without types accepts every set.
func ForDefinition(def *domain.PreferenceDefinition) (ports.PreferencesValidator, error) {
	if def == nil || len(def.Types) == 0 {
		return Validator(nil), nil
	}
	s, err := ParseTypeMap(def.Types)
	if err != nil {
		return nil, domain.NewPortletError("invalid preference types of "+def.Name, err)
	}
	return Validator(s), nil
}

// Factory returns a validator factory for preferences.Manager. Parse errors of
// a definition surface from Store as portlet failures. extra validators run
// after the schema and their failed keys are merged.
func Factory(extra ...ports.PreferencesValidator) preferences.ValidatorFactory {
	return func(def *domain.PreferenceDefinition) ports.PreferencesValidator {
		v, err := ForDefinition(def)
		if err != nil {
			return ports.ValidatorFunc(func(ports.Preferences) error { return err })
		}
		if len(extra) == 0 {
			return v
		}
		return preferences.Chain(append([]ports.PreferencesValidator{v}, extra...)...)
	}
}
