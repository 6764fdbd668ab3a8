package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the gophauth CLI.
//
// TokenFile is where the last issued token is kept between invocations.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	Retries        uint64
	TokenFile      string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.Retries = 2
	c.TokenFile = defaultTokenFile()
}

// Load applies defaults and then the JSON file at path, if path is set.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gophauth-token"
	}
	return filepath.Join(dir, "gophauth", "token")
}
