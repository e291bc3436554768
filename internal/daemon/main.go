// Package daemon wires config, logger, database, controller and web service together.
package daemon

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/namesdb/namesdb/internal/config"
	"github.com/namesdb/namesdb/internal/db/store"
	"github.com/namesdb/namesdb/internal/diag"
	"github.com/namesdb/namesdb/internal/logger"
	"github.com/namesdb/namesdb/internal/names"
	"github.com/namesdb/namesdb/internal/transfer"
	"github.com/namesdb/namesdb/internal/web"
	"github.com/namesdb/namesdb/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	names      *names.Controller
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until it was shut down.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	addr := fmt.Sprintf("%s:%d", d.cfg.Webserver.Host, d.cfg.Webserver.Port)

	err := d.webService.Start(addr)

	if cerr := d.names.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("failed to close database")
	}

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, errors.Wrap(err, "failed to init logger")
	}

	ctl, err := OpenNames(context.Background(), cfg, diag.LogReporter{}, nil)
	if err != nil {
		return nil, err
	}

	gateway := transfer.New(
		transfer.WithReporter(diag.LogReporter{}),
		transfer.WithFileName(cfg.Export.FileName),
	)

	return &Daemon{
		cfg:   cfg,
		names: ctl,
		webService: web.New(cfg, handler.Deps{
			Names:    ctl,
			Transfer: gateway,
		}),
	}, nil
}

// OpenNames opens the configured database and loads the names list from it.
// A nil alerter discards alerts.
func OpenNames(ctx context.Context, cfg *config.Config, reporter diag.Reporter, alerter names.Alerter) (*names.Controller, error) {
	s, err := store.Open(cfg.DB.Path(), store.WithSQLLogLevel(cfg.Log.SQLLogLevel))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	opts := []names.Option{names.WithReporter(reporter)}
	if alerter != nil {
		opts = append(opts, names.WithAlerter(alerter))
	}

	ctl := names.New(s, opts...)

	if err = ctl.Init(ctx); err != nil {
		_ = s.Close()

		return nil, errors.Wrap(err, "failed to load names")
	}

	log.Info().Str("db", s.Path()).Int("names", len(ctl.Names())).Msg("database opened")

	return ctl, nil
}
