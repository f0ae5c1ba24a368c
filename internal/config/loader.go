package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kgrouter/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/kgrouter"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the default configuration directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the specified directory. The directory
// may contain a config.yaml; missing file means built-in defaults. A config
// file that lists domains replaces the stock domain set entirely.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := DefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config from %s: %w", configFilePath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config from %s: %w", configFilePath, err)
	}
	if cfg.Router.DescriptionsDir == "" {
		cfg.Router.DescriptionsDir = filepath.Join(configPath, "descriptions")
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	logging.Info("Config", "Loaded configuration from %s (%d domains)", configFilePath, len(cfg.Domains))
	return cfg, nil
}

// FilterDomains restricts cfg to the named domains, matched
// case-insensitively. An empty name list leaves cfg untouched. Unknown names
// are an error so a typo does not silently serve the full registry.
func FilterDomains(cfg Config, names []string) (Config, error) {
	if len(names) == 0 {
		return cfg, nil
	}

	byName := make(map[string]DomainConfig, len(cfg.Domains))
	for _, d := range cfg.Domains {
		byName[strings.ToLower(d.Name)] = d
	}

	var selected []DomainConfig
	for _, name := range names {
		d, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return Config{}, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
		}
		selected = append(selected, d)
	}

	cfg.Domains = selected
	return cfg, nil
}
