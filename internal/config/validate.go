package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// ValidateYAMLSyntax checks if the YAML file has valid syntax.
// Returns nil if valid, or a ValidationError with line/column information if invalid.
func ValidateYAMLSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing file is not an error - will use defaults
		}
		if os.IsPermission(err) {
			return &ValidationError{FilePath: filePath, Message: "permission denied"}
		}
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		var typeError *yaml.TypeError
		if errors.As(err, &typeError) {
			return &ValidationError{FilePath: filePath, Message: strings.Join(typeError.Errors, "; ")}
		}

		line, column := extractLineColumn(err.Error())
		return &ValidationError{
			FilePath: filePath,
			Line:     line,
			Column:   column,
			Message:  cleanYAMLError(err.Error()),
		}
	}

	return nil
}

// ValidateYAMLSyntaxFromBytes checks if YAML data has valid syntax.
func ValidateYAMLSyntaxFromBytes(data []byte, filePath string) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		line, column := extractLineColumn(err.Error())
		return &ValidationError{
			FilePath: filePath,
			Line:     line,
			Column:   column,
			Message:  cleanYAMLError(err.Error()),
		}
	}

	return nil
}

// ValidateConfigValues validates configuration values against expected
// types and constraints. Returns nil if valid, or a ValidationError with
// field information if invalid.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if cfg.Run.MaxParallelism < 1 {
		return &ValidationError{FilePath: filePath, Field: "run.max_parallelism", Message: "must be at least 1"}
	}

	if cfg.Run.RetryAttempts < 1 {
		return &ValidationError{FilePath: filePath, Field: "run.retry_attempts", Message: "must be at least 1"}
	}

	if cfg.Run.RetryDelay < 0 {
		return &ValidationError{FilePath: filePath, Field: "run.retry_delay", Message: "must not be negative"}
	}

	if cfg.Run.Timeout < 0 {
		return &ValidationError{FilePath: filePath, Field: "run.timeout", Message: "must not be negative"}
	}

	validReporters := []string{"", "console", "json", "none"}
	if !contains(validReporters, cfg.Run.Reporter) {
		return &ValidationError{FilePath: filePath, Field: "run.reporter", Message: "must be one of: console, json, none"}
	}

	if cfg.Cache.Directory == "" {
		return &ValidationError{FilePath: filePath, Field: "cache.directory", Message: "is required"}
	}

	if cfg.Cache.LRUSize < 0 {
		return &ValidationError{FilePath: filePath, Field: "cache.lru_size", Message: "must not be negative"}
	}

	validStrategies := []string{"", "file", "specCount"}
	if !contains(validStrategies, cfg.Partition.Strategy) {
		return &ValidationError{FilePath: filePath, Field: "partition.strategy", Message: "must be one of: file, specCount"}
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// extractLineColumn attempts to extract line and column numbers from a YAML error message.
// Returns 0, 0 if unable to extract.
func extractLineColumn(errMsg string) (line, column int) {
	var l, c int
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d: column %d:", &l, &c); n == 2 {
		return l, c
	}
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d:", &l); n == 1 {
		return l, 1
	}
	return 0, 0
}

// cleanYAMLError removes the "yaml: line X:" prefix from error messages for cleaner output.
func cleanYAMLError(errMsg string) string {
	if idx := strings.LastIndex(errMsg, ": "); idx > 0 {
		if strings.HasPrefix(errMsg, "yaml:") {
			return errMsg[idx+2:]
		}
	}
	return errMsg
}
