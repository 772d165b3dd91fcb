package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/huetoolkit/internal/config"
	"github.com/dokzlo13/huetoolkit/internal/db"
	"github.com/dokzlo13/huetoolkit/internal/hue"
	"github.com/dokzlo13/huetoolkit/internal/kv"
	"github.com/dokzlo13/huetoolkit/internal/ledger"
	luart "github.com/dokzlo13/huetoolkit/internal/lua"
	"github.com/dokzlo13/huetoolkit/internal/preset"
)

// ErrNoBridge is returned when no bridge address or token is configured.
var ErrNoBridge = errors.New("no bridge configured: set hue.bridge and hue.token or run `huectl discover`")

// App wires the bridge client to its storage: the SQLite database, the
// command ledger, the light cache and the preset store. Client is nil when no
// bridge is configured; local commands still work in that case.
type App struct {
	cfg *config.Config

	DB      *db.DB
	Client  *hue.Client
	Ledger  *ledger.Ledger // nil unless enabled
	Cache   *hue.LightCache
	Presets *preset.Store
}

// New opens the database and, when a bridge and token are configured,
// creates a client for that bridge.
func New(cfg *config.Config) (*App, error) {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		DB:      database,
		Presets: preset.NewStore(kv.NewSQLiteBucket(database.DB, preset.BucketName)),
	}
	if cfg.Ledger.Enabled {
		a.Ledger = ledger.New(database.DB, cfg.Hue.Bridge)
	}

	if cfg.Hue.Bridge != "" && cfg.Hue.Token != "" {
		opts := []hue.Option{
			hue.WithTimeout(cfg.Hue.Timeout.Duration()),
			hue.WithRateLimit(cfg.Hue.RateLimitRPS),
		}
		if a.Ledger != nil {
			opts = append(opts, hue.WithRecorder(a.Ledger))
		}
		if cfg.Cache.Enabled {
			a.Cache = hue.NewLightCache(cfg.Cache.TTL.Duration())
			opts = append(opts, hue.WithCache(a.Cache))
		}
		a.Client = hue.NewClient(hue.NewBridge(cfg.Hue.Bridge, cfg.Hue.Token), opts...)
	}

	log.Debug().
		Str("bridge", cfg.Hue.Bridge).
		Bool("client", a.Client != nil).
		Str("database", cfg.Database.Path).
		Bool("ledger", cfg.Ledger.Enabled).
		Bool("cache", a.Cache != nil).
		Msg("Application initialized")

	return a, nil
}

// Bridge returns the bridge client, or ErrNoBridge when none is configured.
func (a *App) Bridge() (*hue.Client, error) {
	if a.Client == nil {
		return nil, ErrNoBridge
	}
	return a.Client, nil
}

// Prune drops ledger entries past the retention window.
func (a *App) Prune(ctx context.Context) error {
	if a.Ledger == nil || a.cfg.Ledger.RetentionDays <= 0 {
		return nil
	}
	n, err := a.Ledger.DeleteOlderThan(ctx, a.cfg.Ledger.Retention())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debug().Int64("deleted", n).Msg("Pruned command ledger")
	}
	return nil
}

// NewRuntime creates a Lua runtime bound to the client and preset store.
func (a *App) NewRuntime() (*luart.Runtime, error) {
	client, err := a.Bridge()
	if err != nil {
		return nil, err
	}
	return luart.NewRuntime(luart.RuntimeDeps{
		Lights:  client,
		Presets: a.Presets,
	}), nil
}

// Close releases all resources.
func (a *App) Close() error {
	var errs []error
	if a.Client != nil {
		errs = append(errs, a.Client.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
