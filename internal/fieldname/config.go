package fieldname

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config holds the display-name tables consulted before the heuristic
// fallback. It is an explicit value handed to the resolver, so deployments can
// swap dictionaries without touching code.
type Config struct {
	// Defaults maps common field identifiers to human names.
	Defaults map[string]string `yaml:"defaults"`
	// Overrides maps a template id to its own field-name table. A template
	// with an override table skips the name-review step of the dialogue.
	Overrides map[string]map[string]string `yaml:"overrides"`
}

// Validate rejects empty display names anywhere in the tables.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Defaults, validation.Each(validation.Required)),
		validation.Field(&c.Overrides, validation.Each(validation.Each(validation.Required))),
	)
}

// Load reads a resolver configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read field name config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse field name config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid field name config: %w", err)
	}
	return cfg, nil
}

// Merge layers overlay on top of base, entry by entry. Overlay wins on
// conflicting keys; neither input is modified.
func Merge(base, overlay Config) Config {
	merged := Config{
		Defaults:  make(map[string]string, len(base.Defaults)+len(overlay.Defaults)),
		Overrides: make(map[string]map[string]string, len(base.Overrides)+len(overlay.Overrides)),
	}
	for id, name := range base.Defaults {
		merged.Defaults[id] = name
	}
	for id, name := range overlay.Defaults {
		merged.Defaults[id] = name
	}
	for templateID, table := range base.Overrides {
		merged.Overrides[templateID] = copyTable(table)
	}
	for templateID, table := range overlay.Overrides {
		target, ok := merged.Overrides[templateID]
		if !ok {
			merged.Overrides[templateID] = copyTable(table)
			continue
		}
		for id, name := range table {
			target[id] = name
		}
	}
	return merged
}

func copyTable(table map[string]string) map[string]string {
	copied := make(map[string]string, len(table))
	for id, name := range table {
		copied[id] = name
	}
	return copied
}
