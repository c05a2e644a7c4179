package connections

import (
	"context"

	"github.com/alann-h/picking-software-sub002/connection"
	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/google/uuid"
)

// TokenCoordinator is the refresh coordination surface the resource
// needs, the handlers never run refresh logic themselves
type TokenCoordinator interface {
	ForceRefresh(
		ctx context.Context,
		tenantID uuid.UUID,
		p credentials.Provider,
	) (*credentials.Token, error)
	ReauthRequired(
		ctx context.Context,
		tenantID uuid.UUID,
		p credentials.Provider,
	) (bool, error)
	Forget(tenantID uuid.UUID, p credentials.Provider)
}

// HealthReader serves the monitoring views
type HealthReader interface {
	Health(ctx context.Context, tenantID uuid.UUID) ([]connection.Health, error)
	Due(ctx context.Context) ([]connection.Health, error)
}

// CredentialRemover drops the stored credential on disconnect
type CredentialRemover interface {
	Delete(ctx context.Context, tenantID uuid.UUID, p credentials.Provider) error
}
