package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by all validation errors.
var ErrInvalid = errors.New("invalid profiles data")

// ValidationError names the profile and field that failed validation.
type ValidationError struct {
	Profile string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Profile == "":
		return fmt.Sprintf("%v: %s", ErrInvalid, e.Reason)
	case e.Field == "":
		return fmt.Sprintf("invalid profile '%s': %s", e.Profile, e.Reason)
	}
	return fmt.Sprintf("invalid profile '%s': field '%s': %s", e.Profile, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// validateDocument checks the shape of a profiles document before it's
// decoded: profiles must be an object, every profile an object with an
// outputs array, and every output needs a string name and a boolean enabled.
func validateDocument(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return &ValidationError{Reason: "must be an object"}
	}

	rawProfiles, ok := doc["profiles"]
	if !ok {
		return &ValidationError{Reason: "missing 'profiles' key"}
	}

	var profiles map[string]json.RawMessage
	if err := json.Unmarshal(rawProfiles, &profiles); err != nil || profiles == nil {
		return &ValidationError{Reason: "'profiles' must be an object"}
	}

	for name, rawProfile := range profiles {
		var profile map[string]json.RawMessage
		if err := json.Unmarshal(rawProfile, &profile); err != nil || profile == nil {
			return &ValidationError{Profile: name, Reason: "must be an object"}
		}

		var outputs []json.RawMessage
		if err := json.Unmarshal(profile["outputs"], &outputs); err != nil || outputs == nil {
			return &ValidationError{Profile: name, Field: "outputs", Reason: "missing or invalid 'outputs' array"}
		}

		for i, rawOutput := range outputs {
			var output map[string]interface{}
			if err := json.Unmarshal(rawOutput, &output); err != nil || output == nil {
				return &ValidationError{Profile: name, Field: fmt.Sprintf("outputs[%d]", i), Reason: "output must be an object"}
			}
			if _, ok := output["name"].(string); !ok {
				return &ValidationError{Profile: name, Field: fmt.Sprintf("outputs[%d].name", i), Reason: "missing or invalid 'name'"}
			}
			if _, ok := output["enabled"].(bool); !ok {
				return &ValidationError{Profile: name, Field: fmt.Sprintf("outputs[%d].enabled", i), Reason: "missing or invalid 'enabled'"}
			}
		}
	}

	return nil
}
