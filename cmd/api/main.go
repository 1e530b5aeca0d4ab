package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vitastate/internal/config"
	"vitastate/internal/server"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The server has 5 seconds to finish in-flight requests.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
	done <- true
}

func newRootCmd() *cobra.Command {
	var (
		port        int
		storeDriver string
	)

	cmd := &cobra.Command{
		Use:           "vitastate",
		Short:         "VitaState health coaching API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("store") {
				cfg.StoreDriver = storeDriver
			}
			setupLogging(cfg)
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8000, "HTTP listen port (overrides PORT)")
	cmd.Flags().StringVar(&storeDriver, "store", "memory", "storage adapter: memory, sqlite or postgres (overrides STORE_DRIVER)")
	return cmd
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.AppEnv == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func run(ctx context.Context, cfg config.Config) error {
	app, err := server.NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	apiServer := app.HTTPServer()

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, done)

	log.Info().Str("addr", apiServer.Addr).Str("store", cfg.StoreDriver).Msg("VitaState API listening")
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("vitastate exited")
	}
}
