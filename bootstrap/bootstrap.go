// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file when one is given, otherwise from
// UNITWIZARD_* environment variables.
package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/artpar/unitwizard/adapters/backend"
	apihttp "github.com/artpar/unitwizard/adapters/http"
	"github.com/artpar/unitwizard/adapters/metrics"
	"github.com/artpar/unitwizard/app"
	"github.com/artpar/unitwizard/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Environment variable names read before any configuration is loaded.
const (
	EnvConfigPath = "UNITWIZARD_CONFIG"
	EnvLogLevel   = "UNITWIZARD_LOG_LEVEL"
	EnvLogFormat  = "UNITWIZARD_LOG_FORMAT"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Wizard     *app.Wizard
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	// holder is set when the configuration is hot reloaded.
	holder *config.Holder
}

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath is the YAML configuration file. When empty, EnvConfigPath
	// is consulted; without either, configuration comes from the environment.
	ConfigPath string

	// HotReload watches ConfigPath and applies changes to the running wizard.
	HotReload bool

	// Registerer receives the metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	// Gatherer serves /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// New creates and initializes the application.
func New(configPath string) (*App, error) {
	return NewWithOptions(Options{ConfigPath: configPath})
}

// NewWithHotReload creates the application and keeps it in sync with the
// configuration file.
func NewWithHotReload(configPath string) (*App, error) {
	return NewWithOptions(Options{ConfigPath: configPath, HotReload: true})
}

// NewWithOptions creates and initializes the application with custom options.
func NewWithOptions(opts Options) (*App, error) {
	// Bootstrap logger until the configuration says otherwise
	logger := setupLoggerFromEnv()

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	a := &App{}

	if opts.HotReload {
		if path == "" {
			return nil, fmt.Errorf("hot reload needs a config file")
		}
		holder, err := config.NewHolder(path, logger)
		if err != nil {
			return nil, err
		}
		a.holder = holder
		a.Config = holder.Get()
	} else {
		cfg, err := config.LoadWithFallback(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		a.Config = cfg
	}

	a.Logger = SetupLogger(a.Config.Logging)
	a.Logger.Info().Str("config", path).Msg("initializing unitwizard")

	if a.Config.Metrics.Enabled {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		a.Metrics = metrics.NewWithRegistry(reg)
		a.Logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initWizard(); err != nil {
		return nil, fmt.Errorf("init wizard: %w", err)
	}

	if a.holder != nil {
		a.holder.SetReloadObserver(func(err error) {
			if a.Metrics != nil {
				a.Metrics.Reload(err)
			}
		})
		a.holder.OnChange(a.onConfigChange)
	}

	a.initHTTPServer(opts.Gatherer)
	return a, nil
}

func (a *App) initWizard() error {
	opts := app.Options{
		Catalog: backend.Catalog(),
		Forms:   a.Config.Forms,
		Logger:  a.Logger,
	}
	// A nil *Collector must not reach the interface.
	if a.Metrics != nil {
		opts.Recorder = a.Metrics
	}

	w, err := app.New(opts)
	if err != nil {
		return err
	}
	if a.Metrics != nil {
		w.Forms().SetObserver(a.Metrics.Identify)
		w.Kernel().SetDepthObserver(a.Metrics.Depth)
	}
	if err := Apply(w, a.Config); err != nil {
		return err
	}
	a.Wizard = w

	st := w.State()
	a.Logger.Info().
		Strs("forms", w.Forms().Names()).
		Str("default_form", st.DefaultForm).
		Str("default_parser", st.DefaultParser).
		Int("standards", len(st.Standards)).
		Msg("wizard ready")
	return nil
}

// Apply pushes the reloadable part of cfg into w: dimension order, rounding,
// defaults and standard units.
func Apply(w *app.Wizard, cfg *config.Config) error {
	order, err := cfg.Order()
	if err != nil {
		return err
	}
	if err := w.SetOrder(order); err != nil {
		return fmt.Errorf("set order: %w", err)
	}
	if err := w.SetDecimals(cfg.Decimals()); err != nil {
		return fmt.Errorf("set decimals: %w", err)
	}
	if cfg.DefaultForm != "" {
		if err := w.SetDefaultForm(cfg.DefaultForm); err != nil {
			return fmt.Errorf("set default form: %w", err)
		}
	}
	if cfg.DefaultParser != "" {
		if err := w.SetDefaultParser(cfg.DefaultParser); err != nil {
			return fmt.Errorf("set default parser: %w", err)
		}
	}

	units, err := cfg.StandardUnits()
	if err != nil {
		return err
	}
	if err := w.SetStandardUnits(units); err != nil {
		return fmt.Errorf("set standard units: %w", err)
	}
	return nil
}

func (a *App) onConfigChange(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if err := Apply(a.Wizard, cfg); err != nil {
		a.Logger.Error().Err(err).Msg("failed to apply reloaded config")
		return
	}
	a.Config = cfg
	a.Logger.Info().Int("standards", len(a.Wizard.State().Standards)).Msg("config applied")
}

func (a *App) initHTTPServer(gatherer prometheus.Gatherer) {
	handler := apihttp.NewHandler(a.Wizard, a.Logger)

	routerCfg := apihttp.RouterConfig{
		Metrics:     a.Metrics,
		MetricsPath: a.Config.Metrics.Path,
		Timeout:     a.Config.Server.WriteTimeout,
	}
	if a.Metrics != nil && gatherer != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	router := apihttp.NewRouterWithConfig(handler, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	if a.holder != nil {
		if err := a.holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.holder.WatchSignals()
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	// Shutdown HTTP server
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Reload re-reads the configuration file and applies it. Without hot reload
// it is a no-op.
func (a *App) Reload() error {
	if a.holder == nil {
		return nil
	}
	return a.holder.Reload()
}

// SetupLogger builds the process logger from the logging configuration.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func setupLoggerFromEnv() zerolog.Logger {
	return SetupLogger(config.LoggingConfig{
		Level:  os.Getenv(EnvLogLevel),
		Format: os.Getenv(EnvLogFormat),
	})
}
