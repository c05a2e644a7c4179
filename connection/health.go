package connection

import (
	"context"
	"errors"
	"time"

	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/alann-h/picking-software-sub002/db"
	"github.com/alann-h/picking-software-sub002/db/tables"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HealthStorer is the slice of the datastore the tracker needs
type HealthStorer interface {
	ConnectionHealth(
		ctx context.Context,
		tenantID uuid.UUID,
		provider string,
	) (*tables.ConnectionHealthTable, error)
	ConnectionHealthForTenant(
		ctx context.Context,
		tenantID uuid.UUID,
	) ([]tables.ConnectionHealthTable, error)
	DueConnectionChecks(ctx context.Context, now time.Time) ([]tables.ConnectionHealthTable, error)
	UpsertConnectionHealth(ctx context.Context, row *tables.ConnectionHealthTable) error
}

// HealthTracker derives and persists the health state of every tenant
// provider connection. Recording is observability, not correctness, so
// every storage error in RecordOutcome is logged and swallowed.
type HealthTracker struct {
	store HealthStorer
	log   *zap.Logger
	now   func() time.Time
}

// NewHealthTracker returns a new health tracker
func NewHealthTracker(store HealthStorer, log *zap.Logger) *HealthTracker {
	return &HealthTracker{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordOutcome upserts the health row after a resolved refresh
// attempt. A healthy outcome resets the consecutive failure counter,
// everything else increments it. It returns the failure count the row
// carried before this outcome, so callers can detect a recovery.
func (h *HealthTracker) RecordOutcome(
	ctx context.Context,
	tenantID uuid.UUID,
	provider credentials.Provider,
	status HealthStatus,
	errMessage string,
) int {
	previousFailures := 0
	prev, err := h.store.ConnectionHealth(ctx, tenantID, string(provider))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.log.Error("could not load connection health",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", string(provider)),
			zap.Error(err))
		prev = nil
	}
	if prev != nil {
		previousFailures = prev.FailureCount
	}

	now := h.now()
	row := &tables.ConnectionHealthTable{
		TenantID:     tenantID,
		Provider:     string(provider),
		Status:       string(status),
		LastCheck:    now,
		NextCheckDue: now.Add(status.NextCheckInterval()),
	}
	if status == StatusHealthy {
		row.FailureCount = 0
		row.LastSuccessfulCall = &now
	} else {
		row.FailureCount = previousFailures + 1
		if prev != nil {
			row.LastSuccessfulCall = prev.LastSuccessfulCall
		}
		if errMessage != "" {
			row.LastErrorMessage = &errMessage
		}
	}

	if err := h.store.UpsertConnectionHealth(ctx, row); err != nil {
		h.log.Error("could not record connection health",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", string(provider)),
			zap.String("status", string(status)),
			zap.Error(err))
	}
	return previousFailures
}

// Health returns all connection health rows of one tenant
func (h *HealthTracker) Health(ctx context.Context, tenantID uuid.UUID) ([]Health, error) {
	rows, err := h.store.ConnectionHealthForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return mapHealthRows(rows), nil
}

// Due returns every connection whose next check is due
func (h *HealthTracker) Due(ctx context.Context) ([]Health, error) {
	rows, err := h.store.DueConnectionChecks(ctx, h.now())
	if err != nil {
		return nil, err
	}
	return mapHealthRows(rows), nil
}

func mapHealthRows(rows []tables.ConnectionHealthTable) []Health {
	out := make([]Health, 0, len(rows))
	for i := range rows {
		out = append(out, Health{
			TenantID:           rows[i].TenantID,
			Provider:           credentials.Provider(rows[i].Provider),
			Status:             HealthStatus(rows[i].Status),
			LastCheck:          rows[i].LastCheck,
			LastSuccessfulCall: rows[i].LastSuccessfulCall,
			FailureCount:       rows[i].FailureCount,
			LastErrorMessage:   rows[i].LastErrorMessage,
			NextCheckDue:       rows[i].NextCheckDue,
		})
	}
	return out
}
