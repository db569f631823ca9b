// Package config provides hierarchical configuration management for
// draftspec using koanf. Configuration is loaded with priority: environment
// variables > project config (.draftspec/config.yml) > user config
// (~/.config/draftspec/config.yml) > defaults. It supports both YAML and
// legacy JSON formats, with migration utilities for transitioning from
// JSON to YAML.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigSource tracks where a configuration value came from.
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents draftspec's run settings (SPEC_FULL.md §6):
// parallelism, bail, cache, timeout, retries, reporter selection, and
// filter defaults. CLI flags take precedence over all of this at the
// internal/cli layer; this struct only fixes what a bare invocation uses.
type Configuration struct {
	Run       RunConfig       `koanf:"run"`
	Cache     CacheConfig     `koanf:"cache"`
	Filters   FiltersConfig   `koanf:"filters"`
	Partition PartitionConfig `koanf:"partition"`
	Discover  DiscoverConfig  `koanf:"discover"`
}

// RunConfig controls the Spec Runner (C6).
type RunConfig struct {
	MaxParallelism int           `koanf:"max_parallelism"`
	Bail           bool          `koanf:"bail"`
	Exclusive      bool          `koanf:"exclusive"`
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryDelay     time.Duration `koanf:"retry_delay"`
	Timeout        time.Duration `koanf:"timeout"`
	Reporter       string        `koanf:"reporter"`
}

// CacheConfig controls the Compilation Cache (C4).
type CacheConfig struct {
	Directory string `koanf:"directory"`
	Enabled   bool   `koanf:"enabled"`
	LRUSize   int    `koanf:"lru_size"`
}

// FiltersConfig holds default Filter & Partition (C9) predicates applied
// when the caller supplies none of their own.
type FiltersConfig struct {
	TagsInclude   string `koanf:"tags_include"`
	TagsExclude   string `koanf:"tags_exclude"`
	Description   string `koanf:"description"`
	AffectedSince string `koanf:"affected_since"`
}

// PartitionConfig selects the default partitioning strategy.
type PartitionConfig struct {
	Strategy string `koanf:"strategy"`
}

// DiscoverConfig controls the Static Parser (C8) discovery/watch surface.
type DiscoverConfig struct {
	Watch bool `koanf:"watch"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .draftspec/config.yml)
	ProjectConfigPath string
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
//
// New YAML config paths:
//   - User config: ~/.config/draftspec/config.yml (XDG compliant)
//   - Project config: .draftspec/config.yml
//
// Legacy JSON config paths (deprecated, triggers migration warning):
//   - User config: ~/.draftspec/config.json
//   - Project config: .draftspec/config.json
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if err := loadUserConfig(k, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

func loadDefaults(k *koanf.Koanf) {
	defaults := GetDefaults()
	for key, value := range defaults {
		k.Set(key, value)
	}
}

// loadUserConfig loads user-level config (YAML preferred, legacy JSON supported).
// Priority: YAML (~/.config/draftspec/config.yml) > JSON (~/.draftspec/config.json).
// Warns if both exist (YAML used, JSON ignored) or if only legacy JSON exists.
func loadUserConfig(k *koanf.Koanf, warningWriter io.Writer, skipWarnings bool) error {
	userYAMLPath, _ := UserConfigPath()
	legacyUserPath, _ := LegacyUserConfigPath()

	userYAMLExists := fileExists(userYAMLPath)
	legacyUserExists := fileExists(legacyUserPath)

	if userYAMLExists {
		if err := loadYAMLConfig(k, userYAMLPath, "user"); err != nil {
			return fmt.Errorf("loading user YAML config: %w", err)
		}
		warnLegacyExists(warningWriter, legacyUserPath, userYAMLPath, legacyUserExists, skipWarnings, "--user")
	} else if legacyUserExists {
		if err := loadLegacyJSONConfig(k, legacyUserPath, "user", warningWriter, skipWarnings, "--user"); err != nil {
			return fmt.Errorf("loading legacy user JSON config: %w", err)
		}
	}
	return nil
}

// loadProjectConfig loads project-level config (YAML preferred, legacy JSON supported).
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	projectYAMLPath := ProjectConfigPath()
	if customPath != "" {
		projectYAMLPath = customPath
	}
	legacyProjectPath := LegacyProjectConfigPath()

	projectYAMLExists := fileExists(projectYAMLPath)
	legacyProjectExists := fileExists(legacyProjectPath)

	if projectYAMLExists {
		if err := loadYAMLConfig(k, projectYAMLPath, "project"); err != nil {
			return fmt.Errorf("loading project YAML config: %w", err)
		}
		warnLegacyExists(warningWriter, legacyProjectPath, projectYAMLPath, legacyProjectExists, skipWarnings, "--project")
	} else if legacyProjectExists {
		if err := loadLegacyJSONConfig(k, legacyProjectPath, "project", warningWriter, skipWarnings, "--project"); err != nil {
			return fmt.Errorf("loading legacy project JSON config: %w", err)
		}
	}
	return nil
}

func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// mapValuesProvider adapts an already-decoded map into a koanf.Provider, so
// legacy JSON configs can be parsed with the standard library instead of
// pulling in github.com/knadh/koanf/parsers/json for a single legacy path.
type mapValuesProvider map[string]interface{}

func (m mapValuesProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("mapValuesProvider: ReadBytes not supported")
}

func (m mapValuesProvider) Read() (map[string]interface{}, error) {
	return map[string]interface{}(m), nil
}

func loadLegacyJSONConfig(k *koanf.Koanf, path, configType string, warningWriter io.Writer, skipWarnings bool, migrateFlag string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read legacy %s config %s: %w", configType, path, err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse legacy %s config %s: %w", configType, path, err)
	}
	if err := k.Load(mapValuesProvider(raw), nil); err != nil {
		return fmt.Errorf("failed to load legacy %s config %s: %w", configType, path, err)
	}
	if !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", path)
		fmt.Fprintf(warningWriter, "  Move its settings to a YAML config file to stop using the legacy format.\n\n")
	}
	return nil
}

func warnLegacyExists(warningWriter io.Writer, legacyPath, yamlPath string, legacyExists, skipWarnings bool, migrateFlag string) {
	if legacyExists && !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Legacy JSON config found at %s (ignored, using %s)\n", legacyPath, yamlPath)
		fmt.Fprintf(warningWriter, "  Remove the legacy file to silence this warning.\n\n")
	}
}

func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider("DRAFTSPEC_", ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	return finalizeConfigWithWarnings(k, os.Stderr, false)
}

func finalizeConfigWithWarnings(k *koanf.Koanf, _ io.Writer, _ bool) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Cache.Directory = expandHomePath(cfg.Cache.Directory)

	return &cfg, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys. The
// first underscore after the prefix separates the section from the key.
// Example: DRAFTSPEC_RUN_MAX_PARALLELISM -> run.max_parallelism
func envTransform(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DRAFTSPEC_")), "_", ".", 1)
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
