package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrEmptyKeyPath is returned when a dotted key path is empty.
var ErrEmptyKeyPath = errors.New("key path must not be empty")

// ParseKeyPath splits a dotted key (e.g. "run.max_parallelism") into its
// path segments.
func ParseKeyPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	var segments []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segments = append(segments, path[start:i])
			start = i + 1
		}
	}
	segments = append(segments, path[start:])
	return segments, nil
}

// GetNestedValue walks keyPath through a YAML mapping node and returns the
// scalar value node, or nil if any segment is absent.
func GetNestedValue(root *yaml.Node, keyPath []string) *yaml.Node {
	if len(keyPath) == 0 {
		return nil
	}
	node := documentMapping(root)
	for i, key := range keyPath {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil
		}
		child := mapLookup(node, key)
		if child == nil {
			return nil
		}
		if i == len(keyPath)-1 {
			return child
		}
		node = child
	}
	return nil
}

// SetNestedValue sets keyPath within root to value, creating intermediate
// mapping nodes as needed.
func SetNestedValue(root *yaml.Node, keyPath []string, value interface{}) error {
	if len(keyPath) == 0 {
		return ErrEmptyKeyPath
	}

	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
		root.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	node := documentMapping(root)
	if node == nil {
		return fmt.Errorf("root is not a mapping document")
	}

	for i, key := range keyPath {
		last := i == len(keyPath)-1
		child := mapLookup(node, key)
		if child == nil {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
			var valNode *yaml.Node
			if last {
				valNode = scalarFor(value)
			} else {
				valNode = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			}
			node.Content = append(node.Content, keyNode, valNode)
			child = valNode
		} else if last {
			*child = *scalarFor(value)
		}
		node = child
	}
	return nil
}

// SetConfigValue validates value against key's schema, then reads, updates,
// and rewrites the YAML file at configPath in place, preserving unrelated
// content. Creates the file (and parent directories) if absent.
func SetConfigValue(configPath, key, value string) error {
	if _, err := ValidateValue(key, value); err != nil {
		return err
	}

	var root yaml.Node
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// Leave root zero-valued; SetNestedValue initializes it.
	default:
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	keyPath, err := ParseKeyPath(key)
	if err != nil {
		return err
	}

	parsed, err := ValidateValue(key, value)
	if err != nil {
		return err
	}
	if err := SetNestedValue(&root, keyPath, parsed.Parsed); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	return nil
}

func documentMapping(root *yaml.Node) *yaml.Node {
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		return root.Content[0]
	}
	return root
}

func mapLookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func scalarFor(value interface{}) *yaml.Node {
	switch v := value.(type) {
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v, 'g', -1, 64)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprintf("%v", v)}
	}
}
