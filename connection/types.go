// Package connection keeps the provider connections of every tenant
// alive, it owns token refresh coordination and connection health.
package connection

import (
	"errors"
	"time"

	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/google/uuid"
)

// ErrReauthRequired means the stored grant can no longer produce
// access tokens, only the tenant redoing the consent flow helps.
// The business layer surfaces this as "reconnect your accounting
// system".
var ErrReauthRequired = errors.New("provider connection requires re-authentication")

// ErrProviderUnavailable covers transient trouble, the caller may
// simply retry later. Never downgraded to ErrReauthRequired.
var ErrProviderUnavailable = errors.New("provider temporarily unavailable")

// ErrUnknownProvider means no adapter is configured for the provider
var ErrUnknownProvider = errors.New("no adapter configured for provider")

// HealthStatus is the connection health state
type HealthStatus string

const (
	StatusHealthy HealthStatus = "healthy"
	StatusWarning HealthStatus = "warning"
	StatusExpired HealthStatus = "expired"
	StatusRevoked HealthStatus = "revoked"
)

// NextCheckInterval returns how long external monitoring may wait
// before probing this connection again
func (s HealthStatus) NextCheckInterval() time.Duration {
	switch s {
	case StatusHealthy:
		return time.Hour
	case StatusWarning:
		return 15 * time.Minute
	default:
		// expired and revoked connections block the tenant, probe often
		return 5 * time.Minute
	}
}

// Health is the monitoring view of one tenant provider connection
type Health struct {
	TenantID           uuid.UUID
	Provider           credentials.Provider
	Status             HealthStatus
	LastCheck          time.Time
	LastSuccessfulCall *time.Time
	FailureCount       int
	LastErrorMessage   *string
	NextCheckDue       time.Time
}
