// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Built-in defaults (confmap provider).
  2. Optional `.env` file at `<root>/conf/.env`.
  3. `conf/global.yaml`.
  4. Environment variables prefixed `STOREFRONT_`, where `__` maps to “.”
     (e.g., `STOREFRONT_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every string value of the form `vault:<mount>/<path>#<key>`
is swapped for the secret it names.  The tree is then unmarshalled into
strongly-typed structs, normalised, validated, enriched with the runtime
root path, and cached in an `atomic.Pointer` for lock-free reads.
`Reload()` simply calls `Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, secret lookups.
  • ERROR spans: YAML parse, env overlay, secrets, unmarshal, validation.
  • INFO  span : final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	// EnvPrefix marks environment overrides.
	EnvPrefix = "STOREFRONT_"

	// SecretPrefix marks values resolved through a SecretSource.
	SecretPrefix = "vault:"
)

// ErrNoSecretSource is returned when a `vault:` reference is present but
// Load was given no SecretSource.
var ErrNoSecretSource = errors.New("config: vault reference present but no secret source configured")

// SecretSource resolves `<mount>/<path>#<key>` references.  *vault.Client
// satisfies it.
type SecretSource interface {
	Secret(ctx context.Context, ref string) (string, error)
}

var current atomic.Pointer[Config]

// defaults is the lowest layer.
var defaults = map[string]any{
	"http.listen_addr":         ":8080",
	"http.force_https":         false,
	"geo.default_country":      "US",
	"geo.cache_size":           4096,
	"currency.default":         "USD",
	"auth.scheme":              "JWT",
	"auth.email_claim":         "email",
	"identity.timeout":         "3s",
	"catalog.refresh_interval": "1m",
	"log.level":                "info",
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves STOREFRONT_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root directory and calls LoadFrom.
func Load(ctx context.Context, secrets SecretSource) (*Config, error) {
	return LoadFrom(ctx, rootDir(), secrets)
}

// LoadFrom reads defaults, .env, YAML, env overrides, and secrets under
// root, validates, and caches Config.  secrets may be nil when no value
// uses the `vault:` prefix.
func LoadFrom(ctx context.Context, root string, secrets SecretSource) (*Config, error) {
	log := zap.S()
	log.Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, err
	}

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		log.Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	log.Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: STOREFRONT_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		log.Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, secrets); err != nil {
		log.Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		log.Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	normalise(&cfg)
	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		log.Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	log.Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"default_country", cfg.Geo.DefaultCountry,
		"default_currency", cfg.Currency.Default,
		"plugins", cfg.Plugins.Enabled,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// resolveSecrets swaps every `vault:` string for the secret it names.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets SecretSource) error {
	for _, key := range k.Keys() {
		s, ok := k.Get(key).(string)
		if !ok || !strings.HasPrefix(s, SecretPrefix) {
			continue
		}
		if secrets == nil {
			return fmt.Errorf("%w: %s", ErrNoSecretSource, key)
		}
		val, err := secrets.Secret(ctx, strings.TrimPrefix(s, SecretPrefix))
		if err != nil {
			return fmt.Errorf("config secret %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

// normalise upper-cases country and currency codes.
func normalise(c *Config) {
	c.Geo.DefaultCountry = strings.ToUpper(strings.TrimSpace(c.Geo.DefaultCountry))
	c.Currency.Default = strings.ToUpper(strings.TrimSpace(c.Currency.Default))
	if len(c.Currency.Overrides) > 0 {
		out := make(map[string]string, len(c.Currency.Overrides))
		for country, cur := range c.Currency.Overrides {
			out[strings.ToUpper(country)] = strings.ToUpper(cur)
		}
		c.Currency.Overrides = out
	}
}

func Get() *Config { return current.Load() }

func Reload(ctx context.Context, secrets SecretSource) error {
	_, err := Load(ctx, secrets)
	return err
}
