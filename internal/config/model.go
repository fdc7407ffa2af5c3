// internal/config/model.go
//
// Typed configuration model for the storefront.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • built-in defaults                           – confmap provider,
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `STOREFRONT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through a SecretSource *before* unmarshalling, so the model never stores
// Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing or malformed.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`GlobalDSN`) is kept in YAML so operators can tweak
// host, port, or flags without touching Vault.  The *secret* portion
// (`GlobalPassword`) usually arrives as a `vault:` reference and is
// injected at runtime.
type Database struct {
	GlobalDSN      string `koanf:"global_dsn"      validate:"required"`
	GlobalPassword string `koanf:"global_password"`
}

//
// Geo and currency sections
//

// Geo configures country resolution.  An empty DBPath disables the
// MaxMind lookup and every request resolves to DefaultCountry.
type Geo struct {
	DBPath         string `koanf:"db_path"`
	DefaultCountry string `koanf:"default_country" validate:"required,iso3166_1_alpha2"`
	CacheSize      int    `koanf:"cache_size"      validate:"gte=0"`
}

// Currency configures country → currency mapping.  Overrides win over the
// CLDR region table.
type Currency struct {
	Default   string            `koanf:"default"   validate:"required,iso4217"`
	Overrides map[string]string `koanf:"overrides" validate:"dive,keys,iso3166_1_alpha2,endkeys,iso4217"`
}

//
// Identity sections
//

// Auth configures credential decoding.
type Auth struct {
	Scheme     string `koanf:"scheme"      validate:"required,alpha"`
	JWTSecret  string `koanf:"jwt_secret"`
	EmailClaim string `koanf:"email_claim" validate:"required"`
}

// Identity configures the external email → canonical id service.  An
// empty Endpoint leaves every credentialed request anonymous.
type Identity struct {
	Endpoint string        `koanf:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `koanf:"timeout"  validate:"min=1ms"`
}

//
// Discount sections
//

// Catalog controls the campaign snapshot refresh.
type Catalog struct {
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"min=1s"`
}

// Plugins lists enabled plugin ids in chain order plus per-plugin
// settings keyed by id.
type Plugins struct {
	Enabled  []string                  `koanf:"enabled"  validate:"dive,required"`
	Settings map[string]map[string]any `koanf:"settings"`
}

//
// Log section
//

// Log sets the minimum level written by internal/logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or STOREFRONT_ROOT override) so later code
// can build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Geo      Geo      `koanf:"geo"`
	Currency Currency `koanf:"currency"`
	Auth     Auth     `koanf:"auth"`
	Identity Identity `koanf:"identity"`
	Catalog  Catalog  `koanf:"catalog"`
	Plugins  Plugins  `koanf:"plugins"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
