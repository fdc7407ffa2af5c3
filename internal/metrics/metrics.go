// Package metrics holds Prometheus instruments that are used across the
// resolution pipeline.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
//
// Recovered failures (identity lookup, plugin errors, catalog refresh)
// never fail a request, so these counters are how operators see them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveSites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sites",
			Help: "Number of sites currently loaded in memory.",
		})

	SiteLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "site_load_total",
			Help: "Cumulative number of sites successfully loaded.",
		})

	SiteLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "site_load_errors_total",
			Help: "Cumulative number of site load errors.",
		})

	SiteEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "site_evict_total",
			Help: "Cumulative number of sites evicted from the cache.",
		})

	GeoLookupMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geo_lookup_miss_total",
			Help: "Requests whose country fell back to the configured default.",
		})

	CredentialDecodeErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credential_decode_errors_total",
			Help: "Credentials that carried the right scheme but failed to decode.",
		})

	IdentityLookupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_lookup_failures_total",
			Help: "Identity-mapping calls that degraded to an anonymous identity.",
		})

	PluginFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugin_failures_total",
			Help: "Plugin hook failures treated as pass-through.",
		}, []string{"plugin"})

	CatalogRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_catalog_refresh_total",
			Help: "Successful campaign catalog snapshot refreshes.",
		})

	CatalogRefreshErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_catalog_refresh_errors_total",
			Help: "Failed campaign catalog refreshes (previous snapshot kept).",
		})

	CatalogCampaigns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaign_catalog_size",
			Help: "Number of campaigns in the current catalog snapshot.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveSites,
		SiteLoadTotal,
		SiteLoadErrorsTotal,
		SiteEvictTotal,
		GeoLookupMissTotal,
		CredentialDecodeErrorsTotal,
		IdentityLookupFailuresTotal,
		PluginFailuresTotal,
		CatalogRefreshTotal,
		CatalogRefreshErrorsTotal,
		CatalogCampaigns,
	)
}
