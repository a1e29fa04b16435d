package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/Notifuse/mailblocks/config"
	"github.com/Notifuse/mailblocks/internal/app"
	"github.com/Notifuse/mailblocks/pkg/logger"
)

// osExit is a variable to allow mocking os.Exit in tests
var osExit = os.Exit

// For testing purposes - allows us to mock the signal channel
var signalNotify = signal.Notify

// NewAppFunc defines the function signature for creating a new app
type NewAppFunc func(cfg *config.Config, opts ...app.AppOption) app.AppInterface

var newApp NewAppFunc = app.NewApp

const forceShutdownGrace = 2 * time.Second

// runServer contains the core server logic, extracted for testability
func runServer(cfg *config.Config, appLogger logger.Logger) error {
	appInstance := newApp(cfg, app.WithLogger(appLogger))

	if err := appInstance.Initialize(); err != nil {
		appLogger.WithField("error", err.Error()).Error("Failed to initialize application")
		return err
	}

	shutdown := make(chan os.Signal, 1)
	signalNotify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverError := make(chan error, 1)
	go func() {
		serverError <- appInstance.Start()
	}()

	select {
	case err := <-serverError:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		if err != nil {
			appLogger.WithField("error", err.Error()).Error("Server error")
		}
		return err
	case sig := <-shutdown:
		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		appInstance.SetShutdownTimeout(timeout)

		appLogger.WithFields(map[string]interface{}{
			"signal":          sig.String(),
			"active_requests": appInstance.GetActiveRequestCount(),
			"timeout":         timeout.String(),
		}).Info("Shutdown signal received, draining requests")

		// the app bounds itself by timeout; the extra seconds cover cleanup
		ctx, cancel := context.WithTimeout(context.Background(), timeout+5*time.Second)
		defer cancel()

		forceShutdown := make(chan os.Signal, 1)
		signalNotify(forceShutdown, os.Interrupt, syscall.SIGTERM)

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- appInstance.Shutdown(ctx)
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				appLogger.WithField("error", err.Error()).Error("Error during graceful shutdown")
				return err
			}
			appLogger.Info("Server shut down gracefully")
			return nil
		case forceSig := <-forceShutdown:
			appLogger.WithField("signal", forceSig.String()).Warn("Second signal received, forcing shutdown")
			cancel()

			select {
			case <-shutdownDone:
			case <-time.After(forceShutdownGrace):
				appLogger.Warn("Forced shutdown timeout - exiting immediately")
			}

			return fmt.Errorf("forced shutdown")
		}
	}
}

// printConfig writes the settings an operator usually needs to confirm,
// without credentials
func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "environment:        %s\n", cfg.Environment)
	fmt.Fprintf(w, "listen:             %s:%d (ssl=%t)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.SSL.Enabled)
	fmt.Fprintf(w, "cors origin:        %s\n", cfg.Server.CORSOrigin)
	fmt.Fprintf(w, "database:           %s@%s:%d/%s (sslmode=%s)\n",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
	fmt.Fprintf(w, "compile cache:      ttl=%s max=%d\n", cfg.Render.CacheTTL, cfg.Render.CacheMaxEntries)
	fmt.Fprintf(w, "liquid:             timeout=%s max_size=%d\n", cfg.Liquid.Timeout, cfg.Liquid.MaxTemplateSize)
	if cfg.RateLimit.RenderPerMinute > 0 {
		fmt.Fprintf(w, "render rate limit:  %d/min per client\n", cfg.RateLimit.RenderPerMinute)
	} else {
		fmt.Fprintln(w, "render rate limit:  disabled")
	}
	if cfg.RateLimit.TrustProxyHeaders {
		fmt.Fprintln(w, "client address:     X-Forwarded-For")
	} else {
		fmt.Fprintln(w, "client address:     connection")
	}
	if cfg.Tracing.Enabled {
		fmt.Fprintf(w, "tracing:            exporter=%s metrics=%s sampling=%g\n",
			cfg.Tracing.TraceExporter, cfg.Tracing.MetricsExporter, cfg.Tracing.SamplingProbability)
	} else {
		fmt.Fprintln(w, "tracing:            disabled")
	}
}

// run parses flags, loads the configuration and either prints it or serves
// until a signal arrives. It returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", ".env", "environment file read before the process environment")
	checkConfig := fs.Bool("check-config", false, "validate the configuration, print it and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	if *checkConfig {
		printConfig(stdout, cfg)
		return 0
	}

	appLogger := logger.NewLoggerWithLevel(cfg.LogLevel)
	appLogger.WithFields(map[string]interface{}{
		"host":    cfg.Server.Host,
		"port":    cfg.Server.Port,
		"version": cfg.Version,
	}).Info("Starting API server")

	if err := runServer(cfg, appLogger); err != nil {
		return 1
	}
	return 0
}

func main() {
	osExit(run(os.Args[1:], os.Stdout, os.Stderr))
}
