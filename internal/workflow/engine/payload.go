// internal/workflow/engine/payload.go
package engine

import (
	"time"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// stringField extracts a non-empty string from the payload.
func stringField(payload map[string]interface{}, field string) (string, error) {
	v, ok := payload[field]
	if !ok {
		return "", wferrors.NewMissingFieldError(field)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", wferrors.NewMissingFieldError(field)
	}
	return s, nil
}

// timeField extracts a timestamp; both time.Time values and RFC3339 strings
// are accepted (the API layer delivers strings, internal callers values).
func timeField(payload map[string]interface{}, field string) (time.Time, error) {
	v, ok := payload[field]
	if !ok {
		return time.Time{}, wferrors.NewMissingFieldError(field)
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, wferrors.NewMissingFieldError(field)
		}
		return parsed, nil
	}
	return time.Time{}, wferrors.NewMissingFieldError(field)
}

// slotsField extracts 1..MaxProposedSlots timestamps.
func slotsField(payload map[string]interface{}, field string) ([]time.Time, error) {
	v, ok := payload[field]
	if !ok {
		return nil, wferrors.NewMissingFieldError(field)
	}

	var out []time.Time
	switch raw := v.(type) {
	case []time.Time:
		out = append(out, raw...)
	case []interface{}:
		for _, item := range raw {
			switch t := item.(type) {
			case time.Time:
				out = append(out, t)
			case string:
				parsed, err := time.Parse(time.RFC3339, t)
				if err != nil {
					return nil, wferrors.NewMissingFieldError(field)
				}
				out = append(out, parsed)
			default:
				return nil, wferrors.NewMissingFieldError(field)
			}
		}
	default:
		return nil, wferrors.NewMissingFieldError(field)
	}

	if len(out) == 0 || len(out) > models.MaxProposedSlots {
		return nil, wferrors.NewMissingFieldError(field)
	}
	return out, nil
}
