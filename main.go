package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/commands"
	"github.com/colonyops/taskr/internal/core/config"
	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/stats"
	"github.com/colonyops/taskr/internal/core/styles"
	"github.com/colonyops/taskr/internal/metrics"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
	"github.com/colonyops/taskr/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := printer.NewContext(context.Background(), printer.New(os.Stdout, os.Stderr))

	var (
		logCloser     func()
		taskrApp      = &taskr.App{}
		metricsServer *metrics.Server
	)

	flags := &commands.Flags{}
	app := commands.NewRoot(flags, taskrApp)
	app.Version = build()

	app.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		// Always log to a file; use explicit path or default to <datadir>/taskr.log
		logFile := flags.LogFile
		if logFile == "" {
			logFile = filepath.Join(flags.DataDir, "taskr.log")
		}

		logger, closer, err := logutils.New(flags.LogLevel, logFile)
		if err != nil {
			return ctx, fmt.Errorf("setup logger: %w", err)
		}
		log.Logger = logger.Hook(logging.ContextHook{})
		logCloser = closer

		cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
		if err != nil {
			return ctx, fmt.Errorf("load config: %w", err)
		}

		// Validation ensures the theme name is known
		_ = styles.SetTheme(cfg.UI.Theme)

		opened, err := taskr.Open(ctx, cfg, log.Logger)
		if err != nil {
			return ctx, err
		}

		// Populate the pre-allocated App struct (commands already hold a pointer to it)
		*taskrApp = *opened

		// The aggregator outlives the Before context; After stops it.
		taskrApp.Start(context.WithoutCancel(ctx))

		if cfg.Metrics.Addr != "" {
			reg, err := metrics.NewRegistry(stats.NewCollector(taskrApp.Stats))
			if err != nil {
				return ctx, err
			}
			metricsServer = metrics.New(cfg.Metrics.Addr, reg, logging.Component("metrics"))
			if err := metricsServer.Start(ctx); err != nil {
				log.Warn().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server failed to start")
				metricsServer = nil
			}
		}

		return ctx, nil
	}

	app.After = func(ctx context.Context, c *cli.Command) error {
		var errs []error

		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to stop metrics server")
				errs = append(errs, err)
			}
			cancel()
		}

		// Stops the aggregator before closing the database
		if taskrApp.Stats != nil {
			if err := taskrApp.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				errs = append(errs, err)
			}
		}

		log.Debug().Msg("shutdown complete")

		// Close log file
		if logCloser != nil {
			logCloser()
		}
		return errors.Join(errs...)
	}

	// Interactive menu when no subcommand is provided
	app.Action = commands.NewMenuCmd(flags, taskrApp).Run

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
