/*
Package server implements the application's network transport layer.
It opens the configured storage adapter, wires the agents and handlers
together and returns an *http.Server with production network timeouts.
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"vitastate/internal/agents"
	"vitastate/internal/auth"
	"vitastate/internal/compressor"
	"vitastate/internal/config"
	"vitastate/internal/database"
	"vitastate/internal/fitbit"
	"vitastate/internal/llm"
	"vitastate/internal/store"
	"vitastate/internal/user"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	port int

	// store backs every record endpoint and the agents.
	store store.Store

	// db is set only when the postgres adapter is in use.
	db database.Service

	user   *user.Handler
	fitbit *auth.FitbitHandler
}

// NewServer opens storage and builds the server. Close must be called once the
// http.Server has shut down.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	st, db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gateway := llm.NewGateway(cfg.LLM, nil)
	if !gateway.Configured() {
		log.Warn().Msg("OPENROUTER_API_KEY not set, agents will serve fallback content")
	}

	comp := compressor.New(compressor.NewHTTPRemote(cfg.Compressor.URL, cfg.Compressor.APIKey, nil))
	svc := agents.New(gateway, st, comp)

	if cfg.Fitbit.MockMode() {
		log.Info().Msg("Fitbit credentials are placeholders, OAuth callback runs in mock mode")
	}

	return &Server{
		port:   cfg.Port,
		store:  st,
		db:     db,
		user:   user.NewHandler(svc, fitbit.NewClient("", nil)),
		fitbit: auth.NewFitbitHandler(cfg.Fitbit, cfg.SessionSecret, cfg.IsProduction(), nil),
	}, nil
}

// HTTPServer returns the *http.Server serving the application routes.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Close releases the storage adapter.
func (s *Server) Close() error {
	return s.store.Close()
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, database.Service, error) {
	switch cfg.StoreDriver {
	case "", "memory":
		return store.NewMemory(), nil, nil
	case "sqlite":
		st, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite store")
		return st, nil, nil
	case "postgres":
		pg, err := database.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database).Msg("Using PostgreSQL store")
		return pg, pg, nil
	default:
		return nil, nil, errors.New("unknown store driver: " + cfg.StoreDriver)
	}
}
