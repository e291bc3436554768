// Package web serves the names page.
package web

import (
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/namesdb/namesdb/internal/config"
	accesslog "github.com/namesdb/namesdb/internal/logger/adapter/fiber"
	"github.com/namesdb/namesdb/internal/web/handler"
	nameshandler "github.com/namesdb/namesdb/internal/web/handler/names"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic and 503 while it shuts down.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start listens on addr until the app is shut down.
func (s *Service) Start(addr string) error {
	s.alive.Store(true)

	log.Info().Str("addr", addr).Msg("starting http server")

	if err := s.App.Listen(addr); err != nil && err != http.ErrServerClosed { //nolint:errorlint
		return err //nolint:wrapcheck
	}

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the web service down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown stops accepting traffic and stops the http server.
func (s *Service) Shutdown() {
	s.alive.Store(false)

	// Graceful shutdown for reverse proxies: checkalive fails while they remove this instance.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this instance from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// CheckAlive handles the load balancer health check.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// newTemplateEngine returns the embedded templates, or the on-disk ones in dev mode.
func newTemplateEngine(cfg *config.Config) *html.Engine {
	if cfg.DevMode {
		engine := html.New("./internal/web/templates", ".gohtml")
		engine.Reload(true)

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")

		return engine
	}

	return html.NewFileSystem(http.FS(templateEmbedFS{embeddedTemplates}), ".gohtml")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, deps handler.Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	return newService(cfg, deps, newTemplateEngine(cfg))
}

// newService builds the app around views, tests pass their own engine.
func newService(cfg *config.Config, deps handler.Deps, views fiber.Views) *Service {
	if deps.Names == nil || deps.Transfer == nil {
		panic(handler.ErrNilDepsFatalLogMsg)
	}

	fiberCfg := fiber.Config{
		ReadBufferSize: 8192, //nolint:mnd
		AppName:        cfg.Title,
		CaseSensitive:  true,
		Prefork:        false,
		Immutable:      true,
		Views:          views,
	}

	if cfg.Webserver.MaxUploadSize > 0 {
		fiberCfg.BodyLimit = cfg.Webserver.MaxUploadSize
	}

	app := fiber.New(fiberCfg)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// init handlers (they register their own routes)
	if err := nameshandler.Handler.Init(app, cfg, deps); err != nil {
		panic(err)
	}

	return service
}
