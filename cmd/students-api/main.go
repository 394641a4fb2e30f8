// main is the entry point of the student registry API.
//
// STARTUP SEQUENCE:
//  1. Load .env and the configuration (YAML file and/or environment)
//  2. Initialise the logger
//  3. Connect to the configured storage backend
//  4. Build the router and start the HTTP server
//  5. Block until an OS signal or a fatal server error arrives
//  6. Drain in-flight requests, close the store and exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or, with environment variables only:
//
//	STORAGE_DRIVER=memory go run ./cmd/students-api
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aanand-mishra/student-registry/internal/app"
	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/lifecycle"
)

func main() {
	os.Exit(run())
}

// run drives the lifecycle and returns the process exit code.
func run() int {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		return 1
	}

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	machine := lifecycle.New(log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	// ── 3. Storage and router ─────────────────────────────────────────────
	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		_ = machine.Fatal(err)
		_ = machine.Stop()
		return machine.ExitCode()
	}

	// ── 4. Start the HTTP server ──────────────────────────────────────────
	var serveErrs <-chan error
	if serveErrs, err = application.Start(); err != nil {
		_ = machine.Fatal(err)
	} else {
		_ = machine.Serve()
	}

	// ── 5. Wait for a signal or a fatal error ─────────────────────────────
	select {
	case sig := <-quit:
		_ = machine.Signal(sig.String())
	case err := <-serveErrs:
		_ = machine.Fatal(err)
	case <-machine.Draining():
	}

	// ── 6. Drain ──────────────────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown gracefully", slog.String("error", err.Error()))
	}

	_ = machine.Stop()
	log.Info("server stopped", slog.Int("exit_code", machine.ExitCode()))

	return machine.ExitCode()
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development: human-readable text at DEBUG level.
// Staging: JSON at DEBUG level.
// Production: JSON at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case config.EnvStaging:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
