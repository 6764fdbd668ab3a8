package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/joho/godotenv"
)

const envPrefix = "GOPHAUTH_"

// envFilePath is .env in the working directory unless GOPHAUTH_ENV_FILE
// points elsewhere.
func envFilePath() string {
	if p := os.Getenv(envPrefix + "ENV_FILE"); p != "" {
		return p
	}
	return ".env"
}

// readDotEnv reads a dotenv file without touching the process environment.
// A missing file is not an error.
func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &common.ConfigurationError{Setting: path, Reason: err.Error()}
	}
	return values, nil
}

// lookupWith prefers the real environment over values from the dotenv file.
func lookupWith(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.EndpointAddrHTTP)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("STORAGE", &c.StorageMode)
	str("SECRET_KEY", &c.SecretKey)
	str("JWT_ISSUER", &c.Issuer)
	str("JWT_AUDIENCE", &c.Audience)
	str("DEFAULT_ROLE", &c.DefaultRole)
	str("HASH_ALGORITHM", &c.HashAlgorithm)
	str("LOG_BACKEND", &c.LogBackend)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup(envPrefix + "JWT_DURATION"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &common.ConfigurationError{Setting: envPrefix + "JWT_DURATION", Reason: err.Error()}
		}
		c.TokenTTL = d
	}

	if v, ok := lookup(envPrefix + "LOGIN_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &common.ConfigurationError{Setting: envPrefix + "LOGIN_RATE_LIMIT", Reason: err.Error()}
		}
		c.LoginRateLimit = f
	}

	if v, ok := lookup(envPrefix + "PASSWORD_MIN_LENGTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &common.ConfigurationError{Setting: envPrefix + "PASSWORD_MIN_LENGTH", Reason: err.Error()}
		}
		c.PasswordMinLength = n
	}

	if v, ok := lookup(envPrefix + "TRUSTED_PROXIES"); ok && v != "" {
		c.TrustedProxies = splitList(v)
	}

	if v, ok := lookup(envPrefix + "LOGIN_RATE_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &common.ConfigurationError{Setting: envPrefix + "LOGIN_RATE_BURST", Reason: err.Error()}
		}
		c.LoginRateBurst = n
	}

	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
