package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/go-curbside/internal/config"
	"github.com/tartampluch/go-curbside/internal/engine"
	"github.com/tartampluch/go-curbside/internal/i18n"
	"github.com/tartampluch/go-curbside/internal/server"
)

// main is the application entry point.
// It delegates execution to runMain so deferred cleanup runs before the
// process terminates; os.Exit() does not run defers.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
// Returns config.ExitCodeSuccess on success, config.ExitCodeError on failure.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	configPath := flag.String(config.FlagConfig, config.DefaultConfigFile, config.FlagDescConfig)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	// Structured logging (slog) is configured early to capture startup issues.
	setupLogging(*debugMode)

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	// Root context cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, *configPath); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run loads settings, wires dependencies, registers the feed refresher, and
// blocks serving HTTP until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return err
	}

	// Dependency Injection.
	translator := i18n.New(settings.Language)
	generator := &engine.Generator{
		Clock:    engine.RealClock{},
		Fetcher:  engine.NewHTTPFetcher(),
		Holidays: engine.NewHolidaySet(settings.ExtraHolidays),
	}
	srv := server.NewScheduleServer(settings, generator, translator)

	// Initial feed fill, off the startup path; the feed endpoint answers
	// 503 with Retry-After until the first refresh lands.
	go refreshFeed(ctx, srv)

	// Periodic refresh of the cached default-location feed.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(settings.RefreshCron, func() {
		refreshFeed(ctx, srv)
	}); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCronSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	slog.Info(config.MsgCronStarted,
		config.LogKeyComponent, config.CompWorker,
		config.LogKeyCron, settings.RefreshCron,
	)

	// Start the HTTP server (blocks until ctx is cancelled).
	return srv.Start(ctx)
}

// refreshFeed refreshes the cached feed, logging instead of propagating
// failures so a flaky upstream never takes the service down.
func refreshFeed(ctx context.Context, srv *server.ScheduleServer) {
	if ctx.Err() != nil {
		return
	}
	if err := srv.RefreshFeed(ctx); err != nil {
		slog.Warn(config.MsgFeedRefreshErr,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyError, err,
		)
	}
}

// printVersion outputs the build information to stdout and exits.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger on stdout.
func setupLogging(debugMode bool) {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)
}
