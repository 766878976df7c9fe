/*
Package factory provides JSON to Go preferences conversion.

PURPOSE:
  Converts the user's preferences document into credit.Preferences. The
  document is what the API accepts on PUT /api/preferences and what the
  sqlite store persists, so defaults and validation live in one place.

JSON SCHEMA:
  {
    "publisher": "regularPioneer",
    "publisher_hours": {"regularPioneer": 50, "regularAuxiliary": 15},
    "override_credit_limit": true,
    "custom_credit_limit_hours": 20,
    "time_display_format": "hhmm"
  }

DEFAULTS:
  - publisher:            "publisher"
  - time_display_format:  "decimal"
  - publisher_hours:      credit.DefaultGoals for any type not listed

USAGE:
  prefs, err := factory.ParsePreferences(jsonStr)
  if errors.Is(err, factory.ErrInvalidPreferences) {
      // reject the request
  }
  policy := prefs.Policy()

SEE ALSO:
  - credit/policy.go: Preferences and the credit cap
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leviFrosty/witness-work-sub000/credit"
)

// ErrInvalidPreferences wraps every validation failure.
var ErrInvalidPreferences = errors.New("invalid preferences")

const (
	TimeDisplayDecimal = "decimal"
	TimeDisplayHHMM    = "hhmm"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PreferencesJSON is the JSON representation of the preferences.
type PreferencesJSON struct {
	Publisher              string         `json:"publisher"`
	PublisherHours         map[string]int `json:"publisher_hours,omitempty"`
	OverrideCreditLimit    bool           `json:"override_credit_limit,omitempty"`
	CustomCreditLimitHours *float64       `json:"custom_credit_limit_hours,omitempty"`
	TimeDisplayFormat      string         `json:"time_display_format,omitempty"`
}

// =============================================================================
// PREFERENCES FACTORY
// =============================================================================

// PreferencesFactory converts JSON preferences to Go structs.
type PreferencesFactory struct{}

func NewPreferencesFactory() *PreferencesFactory {
	return &PreferencesFactory{}
}

// ParsePreferences is shorthand for NewPreferencesFactory().ParsePreferences.
func ParsePreferences(jsonStr string) (*credit.Preferences, error) {
	return NewPreferencesFactory().ParsePreferences(jsonStr)
}

// ParsePreferences parses a JSON string into Preferences.
func (f *PreferencesFactory) ParsePreferences(jsonStr string) (*credit.Preferences, error) {
	var pj PreferencesJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse preferences JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON validates pj and fills in defaults.
func (f *PreferencesFactory) FromJSON(pj PreferencesJSON) (*credit.Preferences, error) {
	prefs := &credit.Preferences{
		Publisher:           credit.Publisher,
		OverrideCreditLimit: pj.OverrideCreditLimit,
		TimeDisplayFormat:   TimeDisplayDecimal,
	}

	if pj.Publisher != "" {
		prefs.Publisher = credit.PublisherType(pj.Publisher)
		if !prefs.Publisher.Valid() {
			return nil, fmt.Errorf("%w: unknown publisher type %q", ErrInvalidPreferences, pj.Publisher)
		}
	}

	if len(pj.PublisherHours) > 0 {
		prefs.PublisherHours = make(map[credit.PublisherType]int, len(pj.PublisherHours))
		for k, h := range pj.PublisherHours {
			pt := credit.PublisherType(k)
			if !pt.Valid() {
				return nil, fmt.Errorf("%w: unknown publisher type %q in publisher_hours", ErrInvalidPreferences, k)
			}
			if h < 0 {
				return nil, fmt.Errorf("%w: negative hours for %s", ErrInvalidPreferences, k)
			}
			prefs.PublisherHours[pt] = h
		}
	}

	if pj.OverrideCreditLimit {
		if pj.CustomCreditLimitHours == nil {
			return nil, fmt.Errorf("%w: override_credit_limit requires custom_credit_limit_hours", ErrInvalidPreferences)
		}
		if *pj.CustomCreditLimitHours < 0 {
			return nil, fmt.Errorf("%w: custom_credit_limit_hours must not be negative", ErrInvalidPreferences)
		}
	}
	if pj.CustomCreditLimitHours != nil {
		prefs.CustomCreditLimitHours = *pj.CustomCreditLimitHours
	}

	switch pj.TimeDisplayFormat {
	case "":
	case TimeDisplayDecimal, TimeDisplayHHMM:
		prefs.TimeDisplayFormat = pj.TimeDisplayFormat
	default:
		return nil, fmt.Errorf("%w: unknown time_display_format %q", ErrInvalidPreferences, pj.TimeDisplayFormat)
	}

	return prefs, nil
}

// ToJSON converts Preferences back to JSON form (for API responses and
// persistence).
func (f *PreferencesFactory) ToJSON(p credit.Preferences) PreferencesJSON {
	pj := PreferencesJSON{
		Publisher:           string(p.Publisher),
		OverrideCreditLimit: p.OverrideCreditLimit,
		TimeDisplayFormat:   p.TimeDisplayFormat,
	}
	if len(p.PublisherHours) > 0 {
		pj.PublisherHours = make(map[string]int, len(p.PublisherHours))
		for k, h := range p.PublisherHours {
			pj.PublisherHours[string(k)] = h
		}
	}
	if p.OverrideCreditLimit || p.CustomCreditLimitHours != 0 {
		h := p.CustomCreditLimitHours
		pj.CustomCreditLimitHours = &h
	}
	return pj
}

// DefaultPreferences is what a fresh install starts with.
func DefaultPreferences() credit.Preferences {
	return credit.Preferences{Publisher: credit.Publisher, TimeDisplayFormat: TimeDisplayDecimal}
}
