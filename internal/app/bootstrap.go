package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
	"github.com/giantswarm/mcp-toolpool/internal/config"
	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
	"github.com/giantswarm/mcp-toolpool/internal/telemetry"
	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs toolpool.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: initialise logging, load and validate configuration
//  2. Execution phase: bring up the server pool and serve or dispatch calls
//
// Example usage:
//
//	application, err := app.NewApplication(app.NewConfig("", false, "text", version))
//	if err != nil {
//	    return err
//	}
//	if err := application.Start(ctx); err != nil {
//	    return err
//	}
//	defer application.Close()
type Application struct {
	config   *Config
	tpConfig config.Config
	services *Services
	router   *aggregator.ToolRouter
}

// NewApplication initialises logging and telemetry, then loads and validates
// the configuration. No remote server is contacted yet.
func NewApplication(cfg *Config, extra ...mcpserver.Option) (*Application, error) {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	out := cfg.LogOutput
	if out == nil {
		out = os.Stderr
	}
	if cfg.LogFormat == logging.FormatJSON {
		logging.InitForJSON(level, out)
	} else {
		logging.InitForCLI(level, out)
	}
	telemetry.Init()

	tpCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	services, err := InitializeServices(cfg, tpCfg, extra...)
	if err != nil {
		logging.Error("Bootstrap", err, "Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Application{
		config:   cfg,
		tpConfig: tpCfg,
		services: services,
	}, nil
}

// Start brings up every configured server and builds the tool router. On
// failure no session is left open.
func (a *Application) Start(ctx context.Context) error {
	var s *spinner.Spinner
	if !a.config.Quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = fmt.Sprintf(" Connecting to %d servers...", len(a.services.Descriptors))
		s.Start()
	}

	err := a.services.Pool.BringUp(ctx, a.services.Descriptors)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return err
	}

	a.router = aggregator.NewToolRouter(a.services.Pool.Sessions())
	logging.Info("Bootstrap", "Connected to %d servers, %d tools available",
		len(a.services.Descriptors), len(a.router.Tools()))
	return nil
}

// Router returns the tool router. It is nil until Start succeeds.
func (a *Application) Router() *aggregator.ToolRouter {
	return a.router
}

// Configuration returns the loaded configuration.
func (a *Application) Configuration() config.Config {
	return a.tpConfig
}

// Close tears down every open session.
func (a *Application) Close() {
	a.services.Pool.TearDown()
}
