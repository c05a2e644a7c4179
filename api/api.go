// Package api exposes the connection lifecycle over http for the
// dashboard backend and the external monitor.
package api

import (
	"net/http"
	"time"

	"github.com/alann-h/picking-software-sub002/api/app/connections"
	"github.com/alann-h/picking-software-sub002/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func compose(logger *zap.Logger,
	cfg *config.Configuration,
	coordinator connections.TokenCoordinator,
	health connections.HealthReader,
	store connections.CredentialRemover) (*chi.Mux, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(loggerMiddleware(logger))

	r.Use(middleware.Recoverer)

	r.Use(middleware.Timeout(50 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.Get("/.ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	if cfg.DebugMode() {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("running in debug mode"))
		})
	}

	connectionsRessource := connections.NewConnectionsRessource(
		logger.Named("connections_ressource"),
		coordinator,
		health,
		store,
	)

	r.Group(func(gr chi.Router) {
		gr.Use(serviceTokenMiddleware(cfg.Server.ServiceToken))
		gr.Mount("/connections", connectionsRessource.Router())
	})

	return r, nil
}
