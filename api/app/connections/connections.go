// Package connections habours the ops endpoints for tenant provider
// connections: health, status, forced refresh and disconnect.
package connections

import (
	"errors"
	"net/http"

	"github.com/alann-h/picking-software-sub002/connection"
	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConnectionsRessource bundles the connection lifecycle endpoints
type ConnectionsRessource struct {
	log         *zap.Logger
	coordinator TokenCoordinator
	health      HealthReader
	store       CredentialRemover
}

// NewConnectionsRessource returns the connections resource
func NewConnectionsRessource(
	logger *zap.Logger,
	coordinator TokenCoordinator,
	health HealthReader,
	store CredentialRemover,
) *ConnectionsRessource {
	return &ConnectionsRessource{
		log:         logger,
		coordinator: coordinator,
		health:      health,
		store:       store,
	}
}

// Router returns the routes of the connections resource
func (c *ConnectionsRessource) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/due", c.dueChecks)
	r.Get("/{tenantID}/health", c.tenantHealth)
	r.Get("/{tenantID}/{provider}/status", c.connectionStatus)
	r.Post("/{tenantID}/{provider}/refresh", c.forceRefresh)
	r.Delete("/{tenantID}/{provider}", c.disconnect)
	return r
}

func tenantFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "tenantID"))
}

func providerFromRequest(r *http.Request) (credentials.Provider, error) {
	return credentials.ParseProvider(chi.URLParam(r, "provider"))
}

func mapHealth(rows []connection.Health) []healthResponse {
	out := make([]healthResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, healthResponse{
			TenantID:           row.TenantID.String(),
			Provider:           string(row.Provider),
			Status:             string(row.Status),
			LastCheck:          row.LastCheck,
			LastSuccessfulCall: row.LastSuccessfulCall,
			FailureCount:       row.FailureCount,
			LastErrorMessage:   row.LastErrorMessage,
			NextCheckDue:       row.NextCheckDue,
		})
	}
	return out
}

func (c *ConnectionsRessource) tenantHealth(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFromRequest(r)
	if err != nil {
		_ = render.Render(w, r, createError("invalid tenant id", http.StatusBadRequest))
		return
	}
	rows, err := c.health.Health(r.Context(), tenantID)
	if err != nil {
		c.log.Error("could not load tenant health", zap.Error(err))
		_ = render.Render(w, r, createError("internal error", http.StatusInternalServerError))
		return
	}
	render.Respond(w, r, mapHealth(rows))
}

func (c *ConnectionsRessource) dueChecks(w http.ResponseWriter, r *http.Request) {
	rows, err := c.health.Due(r.Context())
	if err != nil {
		c.log.Error("could not load due connection checks", zap.Error(err))
		_ = render.Render(w, r, createError("internal error", http.StatusInternalServerError))
		return
	}
	render.Respond(w, r, mapHealth(rows))
}

func (c *ConnectionsRessource) connectionStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFromRequest(r)
	if err != nil {
		_ = render.Render(w, r, createError("invalid tenant id", http.StatusBadRequest))
		return
	}
	p, err := providerFromRequest(r)
	if err != nil {
		_ = render.Render(w, r, createError("unknown provider", http.StatusBadRequest))
		return
	}
	needsReauth, err := c.coordinator.ReauthRequired(r.Context(), tenantID, p)
	if err != nil {
		if errors.Is(err, connection.ErrProviderUnavailable) {
			_ = render.Render(
				w,
				r,
				createError("provider temporarily unavailable", http.StatusBadGateway),
			)
			return
		}
		c.log.Error("could not resolve connection status", zap.Error(err))
		_ = render.Render(w, r, createError("internal error", http.StatusInternalServerError))
		return
	}
	render.Respond(w, r, &statusResponse{
		Provider:       string(p),
		Connected:      !needsReauth,
		ReauthRequired: needsReauth,
	})
}

func (c *ConnectionsRessource) forceRefresh(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFromRequest(r)
	if err != nil {
		_ = render.Render(w, r, createError("invalid tenant id", http.StatusBadRequest))
		return
	}
	p, err := providerFromRequest(r)
	if err != nil {
		_ = render.Render(w, r, createError("unknown provider", http.StatusBadRequest))
		return
	}
	token, err := c.coordinator.ForceRefresh(r.Context(), tenantID, p)
	if err != nil {
		switch {
		case errors.Is(err, connection.ErrReauthRequired):
			_ = render.Render(
				w,
				r,
				createError("connection requires re-authentication", http.StatusConflict),
			)
		case errors.Is(err, connection.ErrProviderUnavailable):
			_ = render.Render(
				w,
				r,
				createError("provider temporarily unavailable", http.StatusBadGateway),
			)
		default:
			c.log.Error("forced refresh failed", zap.Error(err))
			_ = render.Render(w, r, createError("internal error", http.StatusInternalServerError))
		}
		return
	}
	render.Respond(w, r, &refreshResponse{
		Provider:         string(p),
		AccessExpiresAt:  token.AccessExpiresAt,
		RefreshExpiresAt: token.RefreshExpiresAt,
	})
}

func (c *ConnectionsRessource) disconnect(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFromRequest(r)
	if err != nil {
		_ = render.Render(w, r, createError("invalid tenant id", http.StatusBadRequest))
		return
	}
	p, err := providerFromRequest(r)
	if err != nil {
		_ = render.Render(w, r, createError("unknown provider", http.StatusBadRequest))
		return
	}
	if err := c.store.Delete(r.Context(), tenantID, p); err != nil {
		if errors.Is(err, credentials.ErrNotConnected) {
			_ = render.Render(w, r, createError("not connected", http.StatusNotFound))
			return
		}
		c.log.Error("could not delete credential", zap.Error(err))
		_ = render.Render(w, r, createError("internal error", http.StatusInternalServerError))
		return
	}
	// a refresh already in flight may still finish, its result is just
	// never reused
	c.coordinator.Forget(tenantID, p)
	c.log.Info("tenant disconnected provider",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", string(p)))
	w.WriteHeader(http.StatusNoContent)
}
