package config

import (
	"fmt"
	"os"
	"sort"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/docpipe/internal/scripts"
)

// ScriptsConfig holds per-role script lookup overrides loaded from the
// scripts section of the config file (.docpipe.yaml):
//
//	scripts:
//	  translator:
//	    dir: tools/translate
//	    hint: run.py
//	  converter:
//	    dir: /opt/html2pdf
type ScriptsConfig struct {
	Scripts map[string]scripts.Spec `json:"scripts,omitempty"`
}

// ParseScriptsConfig parses the scripts section from raw config file bytes.
func ParseScriptsConfig(data []byte) (*ScriptsConfig, error) {
	var cfg ScriptsConfig
	if err := sigsyaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scripts config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadScriptsConfig reads the scripts section from path. An empty path
// yields an empty config.
func LoadScriptsConfig(path string) (*ScriptsConfig, error) {
	if path == "" {
		return &ScriptsConfig{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is the resolved config file
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return ParseScriptsConfig(data)
}

// Validate checks that every override names a known role and sets at least
// one field.
func (c *ScriptsConfig) Validate() error {
	roles := make([]string, 0, len(c.Scripts))
	for r := range c.Scripts {
		roles = append(roles, r)
	}

	sort.Strings(roles)

	for _, r := range roles {
		if !scripts.ValidRole(scripts.Role(r)) {
			return fmt.Errorf("scripts[%s]: unknown role (must be translator, minifier, converter, or portfolio)", r)
		}

		spec := c.Scripts[r]
		if spec.Dir == "" && spec.Hint == "" {
			return fmt.Errorf("scripts[%s]: dir or hint is required", r)
		}
	}

	return nil
}

// Layout returns the overrides as a scripts.Layout.
func (c *ScriptsConfig) Layout() scripts.Layout {
	out := make(scripts.Layout, len(c.Scripts))
	for r, s := range c.Scripts {
		out[scripts.Role(r)] = s
	}

	return out
}

// IsEmpty returns true if the config has no overrides.
func (c *ScriptsConfig) IsEmpty() bool {
	return len(c.Scripts) == 0
}
