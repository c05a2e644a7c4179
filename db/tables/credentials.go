package tables

import (
	"time"

	"github.com/google/uuid"
)

// ProviderCredentialTable represents the provider_credentials table,
// one row per tenant and provider holding the encrypted token blob
type ProviderCredentialTable struct {
	ID                int        `db:"id,omitempty"`
	TenantID          uuid.UUID  `db:"tenant_id"`
	Provider          string     `db:"provider"`
	Blob              string     `db:"blob"`
	ProviderTenantRef string     `db:"provider_tenant_ref"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at"`
}
