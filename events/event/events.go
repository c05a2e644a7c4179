// Package event contains the connection lifecycle events
package event

import (
	"github.com/alann-h/picking-software-sub002/events"
	"github.com/google/uuid"
)

// TokenRefreshed is raised after a refreshed credential was persisted
type TokenRefreshed struct {
	TenantID uuid.UUID
	Provider string
}

// Name implements events.Event
func (*TokenRefreshed) Name() events.EventName {
	return "token_refreshed"
}

// TokenRefreshFailed is raised for a transient refresh failure,
// the connection is degraded but may recover on its own
type TokenRefreshFailed struct {
	TenantID uuid.UUID
	Provider string
	Reason   string
}

// Name implements events.Event
func (*TokenRefreshFailed) Name() events.EventName {
	return "token_refresh_failed"
}

// ReauthRequired is raised when a connection can only be repaired by
// the tenant going through the consent flow again
type ReauthRequired struct {
	TenantID uuid.UUID
	Provider string
	Cause    string
}

// Name implements events.Event
func (*ReauthRequired) Name() events.EventName {
	return "reauth_required"
}

// ConnectionRestored is raised when a refresh succeeds on a connection
// that had consecutive failures on record
type ConnectionRestored struct {
	TenantID      uuid.UUID
	Provider      string
	AfterFailures int
}

// Name implements events.Event
func (*ConnectionRestored) Name() events.EventName {
	return "connection_restored"
}
