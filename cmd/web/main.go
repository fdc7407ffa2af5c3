// cmd/web/main.go
//
// Storefront HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Optional Vault client (when VAULT_ADDR is set) so `vault:` config
//     references resolve.
//
//  2. Load configuration (defaults → .env → global.yaml → STOREFRONT_ env).
//
//  3. Start the daily rotating logger (tees to console in a TTY).
//
//  4. Open the control-plane DB and log the active-site count.
//
//  5. Build resolvers: site cache, campaign store (initial refresh plus
//     background refresh loop), geo, currency, identity, and plugins.
//
//  6. Assemble the resolution pipeline and mount it in front of every
//     storefront route.  /metrics sits outside the pipeline.
//
//  7. Serve until SIGINT/SIGTERM, then shut down gracefully.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/campaign"
	"github.com/yanizio/storefront/internal/config"
	"github.com/yanizio/storefront/internal/currency"
	"github.com/yanizio/storefront/internal/database"
	"github.com/yanizio/storefront/internal/discount"
	"github.com/yanizio/storefront/internal/geo"
	"github.com/yanizio/storefront/internal/identity"
	"github.com/yanizio/storefront/internal/logger"
	"github.com/yanizio/storefront/internal/middleware"
	"github.com/yanizio/storefront/internal/module"
	"github.com/yanizio/storefront/internal/pipeline"
	"github.com/yanizio/storefront/internal/plugin"
	"github.com/yanizio/storefront/internal/server"
	"github.com/yanizio/storefront/internal/site"
	"github.com/yanizio/storefront/internal/vault"

	_ "github.com/yanizio/storefront/modules/debug"          // /debug/context
	_ "github.com/yanizio/storefront/plugins/filteredsales" // referer-scoped discounts
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Secrets and configuration ──────────────────────────────────
	//
	var secrets config.SecretSource
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, zap.S())
		if err != nil {
			log.Fatalf("vault: %v", err)
		}
		secrets = vc
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Global DB connect ───────────────────────────────────────────
	//
	dsn, err := database.DSN(cfg.Database.GlobalDSN, cfg.Database.GlobalPassword)
	if err != nil {
		logOut.Fatalw("bad database DSN", "err", err)
	}
	globalDB, err := database.Open(ctx, dsn)
	if err != nil {
		logOut.Fatalw("connect global DB", "err", err)
	}
	defer globalDB.Close()

	// Log active-site count as an early sanity check.
	if active, err := site.AllActive(ctx, globalDB); err == nil {
		logOut.Infow("global DB online", "active_sites", len(active))
	} else {
		logOut.Warnw("active-site count failed", "err", err)
	}

	//
	// ── 3.  Resolvers ───────────────────────────────────────────────────
	//
	sites := site.New(site.SQLLoader(globalDB), site.IdleTTL, site.MaxEntries, logOut)
	defer sites.Close()

	store := campaign.NewStore(&campaign.SQLCatalog{DB: globalDB}, cfg.Catalog.RefreshInterval, logOut)
	if err := store.Refresh(ctx); err != nil {
		// Serve with an empty catalog; Run keeps retrying.
		logOut.Warnw("initial catalog refresh failed", "err", err)
	}
	go store.Run(ctx)

	var locator geo.Locator
	if cfg.Geo.DBPath != "" {
		mm, err := geo.OpenMaxMind(cfg.Geo.DBPath, cfg.Geo.CacheSize)
		if err != nil {
			logOut.Fatalw("open geo database", "path", cfg.Geo.DBPath, "err", err)
		}
		defer mm.Close()
		locator = mm
	} else {
		logOut.Warnw("geo.db_path empty, every request resolves to the default country",
			"country", cfg.Geo.DefaultCountry)
	}

	var decoder identity.Decoder
	if cfg.Auth.JWTSecret != "" {
		d, err := identity.NewJWTDecoder(cfg.Auth.JWTSecret)
		if err != nil {
			logOut.Fatalw("jwt decoder", "err", err)
		}
		decoder = d
	}

	var mapper identity.Mapper
	if cfg.Identity.Endpoint != "" {
		mapper = identity.NewHTTPMapper(cfg.Identity.Endpoint, cfg.Identity.Timeout)
	}

	plugins, err := plugin.NewManager(cfg.Plugins.Enabled, cfg.Plugins.Settings, plugin.Env{
		Mapper: mapper,
		Log:    logOut,
	})
	if err != nil {
		logOut.Fatalw("plugins", "err", err)
	}

	pipe, err := pipeline.Default(pipeline.Deps{
		Sites:     sites,
		Geo:       geo.NewResolver(locator, cfg.Geo.DefaultCountry, logOut),
		Currency:  currency.NewResolver(cfg.Currency.Default, cfg.Currency.Overrides),
		Identity:  identity.NewResolver(decoder, mapper, cfg.Auth.Scheme, cfg.Auth.EmailClaim, cfg.Identity.Timeout, logOut),
		Plugins:   plugins,
		Discounts: discount.NewResolver(store, plugins),
	}, pipeline.WithLogger(logOut))
	if err != nil {
		logOut.Fatalw("pipeline", "err", err)
	}
	logOut.Infow("pipeline online", "steps", pipe.Names())

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(pipe.Middleware)
		for _, p := range module.Paths() {
			r.Method(http.MethodGet, p, module.HTTP(module.Lookup(p)))
		}
		r.Method(http.MethodGet, "/", module.HTTP(home(logOut)))
	})

	var root http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		root = middleware.ForceHTTPS(sites, root)
	}

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	if err := server.Run(ctx, server.New(cfg.HTTP.ListenAddr, root), logOut); err != nil {
		logOut.Fatalw("http server", "err", err)
	}
	logOut.Infow("shutdown complete")
}
