// Package config loads runtime configuration for the gophauth CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c/--config.
//  3. Command-line flags, applied by the cli package.
//
// The JSON loader uses timex.Duration, so the timeout may be a string like
// "5s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s",
//	  "retries": 3,
//	  "token_file": "/home/me/.config/gophauth/token"
//	}
package config
