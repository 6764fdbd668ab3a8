package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig mirrors the settings file. The signing secret and token
// parameters sit in their own sections:
//
//	{
//	  "endpoint_addr_http": ":8080",
//	  "app_settings": {"token": "..."},
//	  "jwt": {"issuer": "gophauth", "audience": "gophauth-clients", "duration": "168h"}
//	}
//
// Only fields present in the file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP string  `json:"endpoint_addr_http"`
	DatabaseDSN      string  `json:"database_dsn"`
	StorageMode      string  `json:"storage"`
	DefaultRole      string  `json:"default_role"`
	HashAlgorithm    string  `json:"hash_algorithm"`
	LogBackend       string  `json:"log_backend"`
	LogLevel         string  `json:"log_level"`
	LoginRateLimit   float64 `json:"login_rate_limit"`
	LoginRateBurst   int     `json:"login_rate_burst"`

	PasswordMinLength int      `json:"password_min_length"`
	TrustedProxies    []string `json:"trusted_proxies"`

	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`

	AppSettings struct {
		Token string `json:"token"`
	} `json:"app_settings"`

	JWT struct {
		Issuer   string         `json:"issuer"`
		Audience string         `json:"audience"`
		Duration timex.Duration `json:"duration"`
	} `json:"jwt"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return &common.ConfigurationError{Setting: "config", Reason: err.Error()}
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return &common.ConfigurationError{Setting: "config", Reason: err.Error()}
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.StorageMode, c.StorageMode)
	setString(&config.DefaultRole, c.DefaultRole)
	setString(&config.HashAlgorithm, c.HashAlgorithm)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SecretKey, c.AppSettings.Token)
	setString(&config.Issuer, c.JWT.Issuer)
	setString(&config.Audience, c.JWT.Audience)

	if c.JWT.Duration.Duration != 0 {
		config.TokenTTL = c.JWT.Duration.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.LoginRateLimit != 0 {
		config.LoginRateLimit = c.LoginRateLimit
	}
	if c.PasswordMinLength != 0 {
		config.PasswordMinLength = c.PasswordMinLength
	}
	if c.TrustedProxies != nil {
		config.TrustedProxies = c.TrustedProxies
	}
	if c.LoginRateBurst != 0 {
		config.LoginRateBurst = c.LoginRateBurst
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
