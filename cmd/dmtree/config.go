package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kardianos/dmtree/dmdef"
	"github.com/kardianos/dmtree/dmstore"
	"gopkg.in/yaml.v3"
)

const appName = "dmtree"

// Config is the CLI configuration file.
type Config struct {
	API       APIConfig      `yaml:"api"`
	Store     StoreConfig    `yaml:"store"`
	Log       LogConfig      `yaml:"log"`
	SignupURL string         `yaml:"signup_url"`
	DevCerts  DevCertsConfig `yaml:"dev_certs"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	HTTP3   bool   `yaml:"http3"`
}

type StoreConfig struct {
	// DataDir holds state.db. Empty means the per-user config directory.
	DataDir string `yaml:"data_dir"`

	// Backend selects the secret store: empty for the platform default,
	// "config" for a single file or "file" for one file per key.
	Backend string `yaml:"backend"`

	// SecretPath is where the backend keeps access keys. Empty means the
	// backend's default location.
	SecretPath string `yaml:"secret_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Debug  bool   `yaml:"debug"`
	Output string `yaml:"output"`
}

type DevCertsConfig struct {
	// Script is the credential generator, run as
	// "<script> with-credentials -a <key> -u <api url>".
	Script string `yaml:"script"`

	// Dir is the working directory the script runs in.
	Dir string `yaml:"dir"`
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: dmdef.DefaultBaseURL,
		},
		Log: LogConfig{
			Level:  "info",
			Output: "stderr",
		},
		SignupURL: "https://pelion.com/try/device-management-trial/",
		DevCerts: DevCertsConfig{
			Script: filepath.Join("utils", "dev_init"),
			Dir:    "pelion-dm-example",
		},
	}
}

// defaultConfigPath is used when --config is not given.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(dmstore.ExpandPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := decodeConfig(f, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if _, err := dmstore.ParseBackend(c.Store.Backend); err != nil {
		return fmt.Errorf("store.backend: %w", err)
	}
	switch c.Log.Output {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("log.output must be stdout or stderr, got %q", c.Log.Output)
	}
	return nil
}
