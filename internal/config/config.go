// Package config loads service settings from an optional TOML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config holds runtime settings for the bmi binary.
type Config struct {
	Addr        string `toml:"addr"`
	WebDir      string `toml:"web_dir"`
	DatabaseURL string `toml:"database_url"`
	DBPath      string `toml:"db_path"`
	LogLevel    string `toml:"log_level"`
	DisableAuth bool   `toml:"disable_auth"`
	OIDC        OIDC   `toml:"oidc"`
}

// OIDC configures single sign-on. SSO is enabled when Issuer and ClientID
// are both set.
type OIDC struct {
	Issuer       string `toml:"issuer"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// Store names the persistence backend selected by the configuration.
type Store string

// Persistence backends.
const (
	StorePostgres Store = "postgres"
	StoreSQLite   Store = "sqlite"
	StoreMemory   Store = "memory"
)

// Store returns the backend to use: PostgreSQL when DatabaseURL is set,
// SQLite when DBPath is set, memory otherwise.
func (c Config) Store() Store {
	switch {
	case c.DatabaseURL != "":
		return StorePostgres
	case c.DBPath != "":
		return StoreSQLite
	default:
		return StoreMemory
	}
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:     ":8080",
		WebDir:   "web",
		LogLevel: "info",
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides. A missing file is an error only when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return cfg, fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
			}
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADDR":               &cfg.Addr,
		"WEB_DIR":            &cfg.WebDir,
		"DATABASE_URL":       &cfg.DatabaseURL,
		"DB_PATH":            &cfg.DBPath,
		"LOG_LEVEL":          &cfg.LogLevel,
		"OIDC_ISSUER":        &cfg.OIDC.Issuer,
		"OIDC_CLIENT_ID":     &cfg.OIDC.ClientID,
		"OIDC_CLIENT_SECRET": &cfg.OIDC.ClientSecret,
		"OIDC_REDIRECT_URL":  &cfg.OIDC.RedirectURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("DISABLE_AUTH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DISABLE_AUTH: %w", err)
		}
		cfg.DisableAuth = b
	}
	return nil
}

// Marshal renders cfg as TOML.
func Marshal(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
