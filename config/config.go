package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/tripshift/core/assign"
	"github.com/kilianp07/tripshift/core/metrics"
	"github.com/kilianp07/tripshift/core/runlog"
	"github.com/kilianp07/tripshift/infra/loader"
	"github.com/kilianp07/tripshift/infra/mqtt"
)

type Config struct {
	Fleet   FleetConfig    `json:"fleet"`
	Assign  assign.Config  `json:"assign"`
	Loader  loader.Config  `json:"loader"`
	Metrics metrics.Config `json:"metrics"`
	Runlog  runlog.Config  `json:"runlog"`
	MQTT    mqtt.Config    `json:"mqtt"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_FLEET__TIMEZONE sets fleet.timezone), then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Fleet.SetDefaults()
	c.Assign.SetDefaults()
	c.Loader.SetDefaults()
	c.Runlog.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section and prefixes errors with the section name.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"fleet", c.Fleet.Validate},
		{"assign", c.Assign.Validate},
		{"loader", c.Loader.Validate},
		{"runlog", c.Runlog.Validate},
		{"mqtt", c.MQTT.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}
