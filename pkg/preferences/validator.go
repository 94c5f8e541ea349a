package preferences

import (
	"errors"
	"strings"

	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
)

// Chain runs every validator and merges their rejections into one validator
// failure whose failed keys keep first-seen order. A failure that is not a
// validator failure aborts the chain and is returned as-is.
func Chain(validators ...ports.PreferencesValidator) ports.PreferencesValidator {
	return ports.ValidatorFunc(func(prefs ports.Preferences) error {
		var (
			messages []string
			failed   []string
			seen     = make(map[string]bool)
			rejected bool
		)
		for _, v := range validators {
			if v == nil {
				continue
			}
			err := v.Validate(prefs)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrValidator) {
				return err
			}
			rejected = true
			messages = append(messages, err.Error())

			var verr *domain.Error
			if errors.As(err, &verr) {
				for key := range verr.FailedKeys() {
					if !seen[key] {
						seen[key] = true
						failed = append(failed, key)
					}
				}
			}
		}
		if !rejected {
			return nil
		}
		if len(messages) == 1 {
			return domain.NewValidatorError(messages[0], failed)
		}
		return domain.NewValidatorError(strings.Join(messages, "; "), failed)
	})
}

// Require rejects sets where any of keys has no value.
func Require(keys ...string) ports.PreferencesValidator {
	return ports.ValidatorFunc(func(prefs ports.Preferences) error {
		var missing []string
		for _, k := range keys {
			if len(prefs.Values(k, nil)) == 0 {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return domain.NewValidatorError("required preferences missing", missing)
		}
		return nil
	})
}
