package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

const (
	userConfigDir  = ".config/toolpool"
	configFileName = "config.yaml"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns ~/.config/toolpool/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// LoadConfig reads, renders and parses the configuration file at
// configPath. An empty configPath selects DefaultConfigPath; a missing file
// at the default location yields the defaults, a missing explicit file is an
// error.
func LoadConfig(configPath string) (Config, error) {
	explicit := configPath != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		configPath = p
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configPath)
			return GetDefaultConfig(), nil
		}
		return Config{}, &ConfigurationError{FilePath: configPath, ErrorType: ErrorTypeIO, Err: err}
	}

	cfg, err := Parse(configPath, data)
	if err != nil {
		return Config{}, err
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s (%d servers)", configPath, len(cfg.Servers))
	return cfg, nil
}

// Parse renders data as a text/template with the sprig function map and
// decodes the result. name is used in error messages and template names.
func Parse(name string, data []byte) (Config, error) {
	rendered, err := render(name, data)
	if err != nil {
		return Config{}, &ConfigurationError{FilePath: name, ErrorType: ErrorTypeTemplate, Err: err}
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(rendered))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigurationError{FilePath: name, ErrorType: ErrorTypeParse, Err: err}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func render(name string, data []byte) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(name)).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(string(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
