package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeFloat
	TypeDuration
	TypeString
	TypeEnum
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "notifications.enabled")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their
// schemas (SPEC_FULL.md §6: host options for run settings — parallelism,
// bail, filters, cache, timeout, retries, reporters, partition, discover).
var KnownKeys = map[string]ConfigKeySchema{
	"run.max_parallelism": {
		Path:        "run.max_parallelism",
		Type:        TypeInt,
		Description: "Maximum concurrent spec executions within one context",
		Default:     4,
	},
	"run.bail": {
		Path:        "run.bail",
		Type:        TypeBool,
		Description: "Stop scheduling new specs after the first failure",
		Default:     false,
	},
	"run.exclusive": {
		Path:        "run.exclusive",
		Type:        TypeBool,
		Description: "Acquire an exclusive on-disk lock on the cache directory for the duration of the run",
		Default:     false,
	},
	"run.retry_attempts": {
		Path:        "run.retry_attempts",
		Type:        TypeInt,
		Description: "Total attempts per spec (1 disables retry)",
		Default:     1,
	},
	"run.retry_delay": {
		Path:        "run.retry_delay",
		Type:        TypeDuration,
		Description: "Delay between retry attempts",
		Default:     "0s",
	},
	"run.timeout": {
		Path:        "run.timeout",
		Type:        TypeDuration,
		Description: "Per-spec timeout; 0 disables the Timeout middleware",
		Default:     "0s",
	},
	"run.reporter": {
		Path:          "run.reporter",
		Type:          TypeEnum,
		AllowedValues: []string{"console", "json", "none"},
		Description:   "Reporter name; draftspec run attaches the console reporter whatever this is set to",
		Default:       "console",
	},
	"cache.directory": {
		Path:        "cache.directory",
		Type:        TypeString,
		Description: "Root directory for the compilation cache",
		Default:     "~/.draftspec/cache",
	},
	"cache.enabled": {
		Path:        "cache.enabled",
		Type:        TypeBool,
		Description: "Enable the on-disk compilation cache",
		Default:     true,
	},
	"cache.lru_size": {
		Path:        "cache.lru_size",
		Type:        TypeInt,
		Description: "In-memory LRU capacity fronting the disk cache",
		Default:     64,
	},
	"filters.tags_include": {
		Path:        "filters.tags_include",
		Type:        TypeString, // comma-separated; list handling lives at the CLI flag layer
		Description: "Only run specs carrying at least one of these tags",
		Default:     "",
	},
	"filters.tags_exclude": {
		Path:        "filters.tags_exclude",
		Type:        TypeString,
		Description: "Never run specs carrying any of these tags",
		Default:     "",
	},
	"filters.description": {
		Path:        "filters.description",
		Type:        TypeString,
		Description: "Regex or substring description filter",
		Default:     "",
	},
	"filters.affected_since": {
		Path:        "filters.affected_since",
		Type:        TypeString,
		Description: "Git ref to diff against for the affected-specs filter (internal/gitimpact)",
		Default:     "",
	},
	"partition.strategy": {
		Path:          "partition.strategy",
		Type:          TypeEnum,
		AllowedValues: []string{"file", "specCount"},
		Description:   "Default file partitioning strategy",
		Default:       "file",
	},
	"discover.watch": {
		Path:        "discover.watch",
		Type:        TypeBool,
		Description: "Re-run all given scripts automatically when script files change",
		Default:     false,
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// InferType determines the ConfigValueType from a string value.
// Order of inference: bool literals -> integers -> durations -> string fallback.
func InferType(value string) ConfigValueType {
	if value == "true" || value == "false" {
		return TypeBool
	}
	if _, err := strconv.Atoi(value); err == nil {
		return TypeInt
	}
	if _, err := time.ParseDuration(value); err == nil {
		return TypeDuration
	}
	return TypeString
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(value)
	case TypeFloat:
		return parseFloatValue(value)
	case TypeDuration:
		return parseDurationValue(value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses and validates an integer value.
func parseIntValue(value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseFloatValue parses and validates a float value.
func parseFloatValue(value string) (ParsedValue, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid float: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: f, Type: TypeFloat}, nil
}

// parseDurationValue parses and validates a duration value.
func parseDurationValue(value string) (ParsedValue, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid duration: %q (examples: 5m, 1h30m, 10s)", value)
	}
	return ParsedValue{Raw: value, Parsed: d.String(), Type: TypeDuration}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}
