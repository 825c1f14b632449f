package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshsymonds/inboxtriage/internal/config"
	"github.com/joshsymonds/inboxtriage/internal/httpapi"
	"github.com/joshsymonds/inboxtriage/internal/runtime"
)

const shutdownTimeout = 10 * time.Second

type serverConfig struct {
	envFile string
	addr    string
}

func main() {
	cfg := parseServerFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("inboxtriage-server failed", "error", err)
		os.Exit(1)
	}
}

func parseServerFlags() serverConfig {
	envFile := flag.String("env-file", ".env", "dotenv file seeding the environment (optional)")
	addr := flag.String("addr", "", "listen address (overrides TRIAGE_ADDR)")
	flag.Parse()

	return serverConfig{
		envFile: *envFile,
		addr:    *addr,
	}
}

func run(sc serverConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(sc.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if sc.addr != "" {
		cfg.Addr = sc.addr
	}

	logger := runtime.NewLogger(cfg.LogLevel)
	svc, stop := runtime.NewTriageService(cfg, logger)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewServer(svc, logger, cfg.AllowedOrigins).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "credential_source", cfg.CredentialSource)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
