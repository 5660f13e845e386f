package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicaid-labs/civicaid/internal/agent"
	"github.com/civicaid-labs/civicaid/internal/config"
	civichttp "github.com/civicaid-labs/civicaid/internal/http"
	"github.com/civicaid-labs/civicaid/internal/providers"
	"github.com/civicaid-labs/civicaid/internal/tracing"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway (POST /ask)",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runServe(cmd.Context()); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				os.Exit(1)
			}
		},
	}
}

func runServe(ctx context.Context) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	// Missing credentials are fatal at startup, not a per-request failure.
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	provider, err := providers.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.Model.Name)
	if err != nil {
		return err
	}

	collector := tracing.NewCollector()
	collector.Start()
	defer collector.Stop()
	initOTelExporter(ctx, cfg, collector)

	assistant := agent.New(provider, agent.Options{
		Model:     cfg.Model.Name,
		Persona:   cfg.Model.Persona,
		MaxTokens: cfg.Model.MaxTokens,
		Timeout:   cfg.Model.Timeout(),
		Tracer:    collector,
	})

	// Hot-reload tunables on config file change; credentials stay fixed.
	if watcher, werr := config.NewWatcher(cfgPath, func(tun config.Tunables) {
		assistant.Reconfigure(tun.Model, tun.Persona)
		slog.Info("assistant reconfigured", "model", tun.Model)
	}); werr == nil {
		if err := watcher.Start(); err != nil {
			slog.Debug("config watcher not started", "error", err)
			watcher.Stop()
		} else {
			defer watcher.Stop()
		}
	}

	server := civichttp.NewServer(assistant, civichttp.ServerOptions{
		Addr:           cfg.Addr(),
		AuthToken:      cfg.Server.AuthToken,
		RateLimitRPM:   cfg.Server.RateLimitRPM,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", cfg.Addr(), "model", cfg.Model.Name)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown", "error", err)
		}
	}
	return nil
}
