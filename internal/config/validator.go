// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance and normalises
// country codes.  Any tag mismatch aborts startup, ensuring the binary
// never runs with partial, malformed, or missing configuration.
//
// Rules in use: `required`, `hostname_port`, `url`, `iso3166_1_alpha2`,
// `iso4217`, and `oneof`.  One struct-level rule is registered here: a
// non-empty `identity.endpoint` needs a JWT secret, otherwise nothing
// could ever reach it.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(Config)
		if c.Identity.Endpoint != "" && c.Auth.JWTSecret == "" {
			sl.ReportError(c.Auth.JWTSecret, "JWTSecret", "jwt_secret", "required_with_endpoint", "")
		}
	}, Config{})
	return val
}

//
// public API
//

// validateStruct returns the validation errors, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
