package botkernel

import (
	"fmt"
	"sort"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// FieldType is the closed set of value kinds a config key may declare,
// validated against a bot type's declared ConfigSchema.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeBool   FieldType = "bool"
	TypeEnum   FieldType = "enum"
	TypeList   FieldType = "list<string>"
)

// Field is one recognized config option.
type Field struct {
	Type     FieldType
	Default  any
	Required bool
	// EnumValues constrains Type==TypeEnum and also values accepted
	// inside a TypeList of enums (e.g. source_languages).
	EnumValues []string
}

// ConfigSchema is the enumerated map of recognized config keys for a
// BotType.
type ConfigSchema map[string]Field

// Validate checks input against the schema: unknown keys are rejected,
// required keys without a value error, and present values are type- and
// enum-checked. It returns the fully resolved config (defaults filled in).
func (schema ConfigSchema) Validate(input map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(schema))

	for key := range input {
		if _, known := schema[key]; !known {
			return nil, apierr.New(apierr.BadConfig, "unrecognized config key %q", key)
		}
	}

	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field := schema[key]
		value, present := input[key]
		if !present {
			if field.Required {
				return nil, apierr.New(apierr.BadConfig, "missing required config key %q", key)
			}
			resolved[key] = field.Default
			continue
		}

		checked, err := field.check(key, value)
		if err != nil {
			return nil, err
		}
		resolved[key] = checked
	}

	return resolved, nil
}

func (f Field) check(key string, value any) (any, error) {
	switch f.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, apierr.New(apierr.BadConfig, "config %q must be a string", key)
		}
		return s, nil
	case TypeInt:
		switch n := value.(type) {
		case int:
			return n, nil
		case float64:
			return int(n), nil
		default:
			return nil, apierr.New(apierr.BadConfig, "config %q must be an int", key)
		}
	case TypeBool:
		b, ok := value.(bool)
		if !ok {
			return nil, apierr.New(apierr.BadConfig, "config %q must be a bool", key)
		}
		return b, nil
	case TypeEnum:
		s, ok := value.(string)
		if !ok || !contains(f.EnumValues, s) {
			return nil, apierr.New(apierr.BadConfig, "config %q must be one of %v", key, f.EnumValues)
		}
		return s, nil
	case TypeList:
		items, ok := value.([]any)
		if !ok {
			return nil, apierr.New(apierr.BadConfig, "config %q must be a list", key)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, apierr.New(apierr.BadConfig, "config %q items must be strings", key)
			}
			if len(f.EnumValues) > 0 && !contains(f.EnumValues, s) {
				return nil, apierr.New(apierr.BadConfig, "config %q item %q must be one of %v", key, s, f.EnumValues)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("botkernel: unknown field type %q", f.Type)
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
