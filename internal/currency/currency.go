// Package currency derives a request's currency from its resolved country.
//
// Lookup order is configured overrides, then the CLDR tender data shipped
// with golang.org/x/text, then the configured default.  The resolver is a
// pure function of its input and never fails.
package currency

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Resolver maps ISO 3166-1 alpha-2 countries to ISO 4217 currencies.
type Resolver struct {
	def       string
	overrides map[string]string
}

// NewResolver returns a Resolver.  Keys and values of overrides are
// normalised to upper case.
func NewResolver(defaultCurrency string, overrides map[string]string) *Resolver {
	norm := make(map[string]string, len(overrides))
	for k, v := range overrides {
		norm[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return &Resolver{def: strings.ToUpper(defaultCurrency), overrides: norm}
}

// Default returns the fallback currency.
func (r *Resolver) Default() string { return r.def }

// ForCountry returns the currency for country, or the default when country
// is empty, unknown, or has no tender.
func (r *Resolver) ForCountry(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return r.def
	}
	if c, ok := r.overrides[country]; ok {
		return c
	}
	region, err := language.ParseRegion(country)
	if err != nil {
		return r.def
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return r.def
	}
	return unit.String()
}
