// api/ticket/fields.go
package ticket

import (
	"strconv"
	"strings"
	"time"
)

// TransformFields converts raw string custom-field values into the tracker's
// typed field shapes. A fetched field schema takes precedence; when a field is
// absent from the schema, the kind is guessed from the field identifier.
// Untransformable values pass through as plain strings rather than failing
// ticket creation.
func TransformFields(raw map[string]string, kinds map[string]FieldKind) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(raw))
	for id, value := range raw {
		kind, ok := kinds[id]
		if !ok {
			kind = guessKind(id, value)
		}
		fields[id] = typedValue(kind, value)
	}
	return fields
}

// guessKind is the pattern-matching fallback keyed by field identifier, used
// when no schema is available for a field.
func guessKind(id, value string) FieldKind {
	lower := strings.ToLower(id)
	switch {
	case strings.HasSuffix(lower, "_multi") || strings.HasSuffix(lower, "_multiselect"):
		return FieldMultiOption
	case strings.HasSuffix(lower, "_select") || strings.HasSuffix(lower, "_option"):
		return FieldOption
	case strings.HasSuffix(lower, "_user") || strings.HasSuffix(lower, "_assignee"):
		return FieldUser
	case strings.HasSuffix(lower, "_date"):
		return FieldDate
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return FieldNumber
	}
	return FieldText
}

func typedValue(kind FieldKind, value string) interface{} {
	switch kind {
	case FieldOption:
		return map[string]interface{}{"value": value}
	case FieldMultiOption:
		parts := strings.Split(value, ",")
		options := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				options = append(options, map[string]interface{}{"value": trimmed})
			}
		}
		return options
	case FieldUser:
		return map[string]interface{}{"name": value}
	case FieldNumber:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
		return value
	case FieldDate:
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return t.Format("2006-01-02")
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.Format("2006-01-02")
		}
		return value
	default:
		return value
	}
}
