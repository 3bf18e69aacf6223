package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tallyfold/tallyfold/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the transaction database and classifier over HTTP, including
the WebSocket chat endpoint.

Examples:
  tallyfold serve
  tallyfold serve --port 9000`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "127.0.0.1", "listen host")
	cmd.Flags().Int("port", 8000, "listen port")

	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	clf, client, err := newClassifier()
	if err != nil {
		return err
	}
	defer func() { _ = clf.Close() }()

	probeCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	connected := clf.CheckConnection(probeCtx)
	cancel()
	if !connected {
		slog.Warn("LLM backend unreachable, classification will degrade to rule matches only")
	}

	srv := api.New(api.Config{
		Host: viper.GetString("server.host"),
		Port: viper.GetInt("server.port"),
	}, store, clf, client, slog.Default())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
