package invoice

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Extraction schemas
const (
	SchemaGeneric = "generic"
	SchemaLodging = "lodging"
)

// UnknownType is assigned when classification fails or produces a label
// outside the configured set
const UnknownType = "unknown"

//go:embed types.yaml
var defaultTypesYAML []byte

// TypeConfig describes how invoices of one type are extracted
type TypeConfig struct {
	Schema string `yaml:"schema"`
}

// Config holds the invoice type registry
type Config struct {
	Types       map[string]TypeConfig `yaml:"types"`
	DefaultType string                `yaml:"default_type"`
}

// DefaultConfig returns the embedded invoice type registry
func DefaultConfig() *Config {
	cfg, err := parseConfig(defaultTypesYAML)
	if err != nil {
		// The embedded registry is validated at build time by the test
		// suite; failing to parse it is a programming error.
		panic(fmt.Sprintf("embedded invoice config is invalid: %v", err))
	}
	return cfg
}

// LoadConfig reads an invoice type registry from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading invoice config: %w", err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice config %s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Types) == 0 {
		return fmt.Errorf("no invoice types configured")
	}
	for name, tc := range c.Types {
		switch tc.Schema {
		case SchemaGeneric, SchemaLodging:
		default:
			return fmt.Errorf("type %q has unknown schema %q", name, tc.Schema)
		}
	}
	if c.DefaultType == "" {
		return fmt.Errorf("default_type is required")
	}
	if _, ok := c.Types[c.DefaultType]; !ok {
		return fmt.Errorf("default_type %q is not a configured type", c.DefaultType)
	}
	return nil
}

// TypeKeys returns the configured type labels in sorted order
func (c *Config) TypeKeys() []string {
	keys := make([]string, 0, len(c.Types))
	for k := range c.Types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnownType reports whether label is a configured invoice type
func (c *Config) IsKnownType(label string) bool {
	_, ok := c.Types[label]
	return ok
}

// Lookup resolves the type config for a label, falling back to the
// default entry for unrecognized labels
func (c *Config) Lookup(label string) TypeConfig {
	if tc, ok := c.Types[label]; ok {
		return tc
	}
	if tc, ok := c.Types[c.DefaultType]; ok {
		return tc
	}
	return TypeConfig{Schema: SchemaGeneric}
}
