package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options.
func GetDefaultConfigTemplate() string {
	return `# draftspec configuration
# See 'draftspec config -h' for commands, 'draftspec config keys' for all options

# Spec Runner settings (C6)
run:
  max_parallelism: 4       # Max concurrent spec executions within one context
  bail: false              # Stop scheduling new specs after the first failure
  exclusive: false         # Acquire an exclusive lock on the cache directory for the run
  retry_attempts: 1        # Total attempts per spec (1 disables retry)
  retry_delay: 0s          # Delay between retry attempts
  timeout: 0s              # Per-spec timeout; 0 disables the Timeout middleware
  reporter: console        # console | json | none (run always attaches console)

# Compilation Cache settings (C4)
cache:
  directory: ~/.draftspec/cache
  enabled: true
  lru_size: 64             # In-memory LRU capacity fronting the disk cache

# Filter & Partition defaults (C9)
filters:
  tags_include: ""         # Comma-separated tags; only run specs carrying one of these
  tags_exclude: ""         # Comma-separated tags; never run specs carrying any of these
  description: ""          # Regex or substring description filter
  affected_since: ""       # Git ref to diff against for the affected-specs filter

partition:
  strategy: file           # file | specCount

discover:
  watch: false             # Re-run all given scripts automatically when script files change
`
}

// GetDefaults returns the default configuration values as a map nested by
// section (run, cache, ...) suitable for seeding koanf before
// user/project/env overrides apply.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"run": map[string]interface{}{
			"max_parallelism": 4,
			"bail":            false,
			"exclusive":       false,
			"retry_attempts":  1,
			"retry_delay":     "0s",
			"timeout":         "0s",
			"reporter":        "console",
		},
		"cache": map[string]interface{}{
			"directory": "~/.draftspec/cache",
			"enabled":   true,
			"lru_size":  64,
		},
		"filters": map[string]interface{}{
			"tags_include":   "",
			"tags_exclude":   "",
			"description":    "",
			"affected_since": "",
		},
		"partition": map[string]interface{}{
			"strategy": "file",
		},
		"discover": map[string]interface{}{
			"watch": false,
		},
	}
}
