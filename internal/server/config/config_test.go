package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

// isolate points the dotenv lookup at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GOPHAUTH_ENV_FILE", filepath.Join(dir, ".env"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, StoragePostgres, c.StorageMode)
	assert.Equal(t, "gophauth", c.Issuer)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL)
	assert.Equal(t, "User", c.DefaultRole)
	assert.Equal(t, "hmac-sha512", c.HashAlgorithm)
	assert.Empty(t, c.SecretKey, "the signing secret has no default")
}

func TestLoad_MissingSecretIsConfigurationError(t *testing.T) {
	isolate(t)

	_, err := Load(nil)

	var cerr *common.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "app_settings.token", cerr.Setting)
}

var dotenvSecret = strings.Repeat("from-dotenv-", 6)

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"GOPHAUTH_SECRET_KEY="+dotenvSecret+"\nGOPHAUTH_JWT_ISSUER=dotenv-issuer\nGOPHAUTH_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("GOPHAUTH_JWT_ISSUER", "env-issuer")

	jsonPath := writeTempJSON(t, dir, "app.json", map[string]any{
		"endpoint_addr_http": ":9000",
		"jwt":                map[string]any{"audience": "json-audience"},
	})

	cfg, err := Load([]string{"-c", jsonPath, "-a", ":9100", "-m", "memory"})
	require.NoError(t, err)

	want := defaults()
	want.SecretKey = dotenvSecret
	want.Issuer = "env-issuer"
	want.LogLevel = "debug"
	want.Audience = "json-audience"
	want.EndpointAddrHTTP = ":9100"
	want.StorageMode = StorageMemory

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := defaults()
		c.SecretKey = strings.Repeat("k", 64)
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		setting string
	}{
		{"ok", func(c *Config) {}, ""},
		{"short secret", func(c *Config) { c.SecretKey = "k" }, "app_settings.token"},
		{"63 byte secret", func(c *Config) { c.SecretKey = strings.Repeat("k", 63) }, "app_settings.token"},
		{"no issuer", func(c *Config) { c.Issuer = "" }, "jwt.issuer"},
		{"no audience", func(c *Config) { c.Audience = "" }, "jwt.audience"},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, "jwt.duration"},
		{"no role", func(c *Config) { c.DefaultRole = "" }, "default_role"},
		{"no rate", func(c *Config) { c.LoginRateLimit = 0 }, "login_rate_limit"},
		{"no burst", func(c *Config) { c.LoginRateBurst = 0 }, "login_rate_burst"},
		{"bad storage", func(c *Config) { c.StorageMode = "redis" }, "storage"},
		{"postgres without dsn", func(c *Config) { c.DatabaseDSN = "" }, "database_dsn"},
		{"memory without dsn", func(c *Config) { c.DatabaseDSN = ""; c.StorageMode = StorageMemory }, ""},
		{"bad algorithm", func(c *Config) { c.HashAlgorithm = "md5" }, "hash_algorithm"},
		{"zero password length", func(c *Config) { c.PasswordMinLength = 0 }, "password_min_length"},
		{"trusted proxies", func(c *Config) { c.TrustedProxies = []string{"10.0.0.1", "192.168.0.0/16", "::1"} }, ""},
		{"bad proxy", func(c *Config) { c.TrustedProxies = []string{"10.0.0.1", "proxy.local"} }, "trusted_proxies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.setting == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *common.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.setting, cerr.Setting)
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}
