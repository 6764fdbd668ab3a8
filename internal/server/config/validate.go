package config

import (
	"fmt"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

// Validate reports the first setting that would make the server unusable.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return &common.ConfigurationError{Setting: "app_settings.token", Reason: "is not set"}
	case len(c.SecretKey) < auth.MinSecretLength:
		return &common.ConfigurationError{
			Setting: "app_settings.token",
			Reason:  fmt.Sprintf("must be at least %d bytes", auth.MinSecretLength),
		}
	case c.Issuer == "":
		return &common.ConfigurationError{Setting: "jwt.issuer", Reason: "is not set"}
	case c.Audience == "":
		return &common.ConfigurationError{Setting: "jwt.audience", Reason: "is not set"}
	case c.TokenTTL <= 0:
		return &common.ConfigurationError{Setting: "jwt.duration", Reason: "must be positive"}
	case c.DefaultRole == "":
		return &common.ConfigurationError{Setting: "default_role", Reason: "is not set"}
	case c.EndpointAddrHTTP == "":
		return &common.ConfigurationError{Setting: "endpoint_addr_http", Reason: "is not set"}
	case c.LoginRateLimit <= 0:
		return &common.ConfigurationError{Setting: "login_rate_limit", Reason: "must be positive"}
	case c.LoginRateBurst < 1:
		return &common.ConfigurationError{Setting: "login_rate_burst", Reason: "must be at least 1"}
	case c.PasswordMinLength < 1:
		return &common.ConfigurationError{Setting: "password_min_length", Reason: "must be at least 1"}
	}

	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return &common.ConfigurationError{Setting: "trusted_proxies", Reason: fmt.Sprintf("%q is not an IP or CIDR", p)}
		}
	}

	switch c.StorageMode {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseDSN == "" {
			return &common.ConfigurationError{Setting: "database_dsn", Reason: "is required for postgres storage"}
		}
	default:
		return &common.ConfigurationError{Setting: "storage", Reason: "must be postgres or memory"}
	}

	if _, err := cryptox.ParseAlgorithm(c.HashAlgorithm); err != nil {
		return err
	}

	return nil
}
