package tables

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionHealthTable represents the connection_health table,
// upserted after every resolved refresh attempt
type ConnectionHealthTable struct {
	ID                 int        `db:"id,omitempty"`
	TenantID           uuid.UUID  `db:"tenant_id"`
	Provider           string     `db:"provider"`
	Status             string     `db:"status"`
	LastCheck          time.Time  `db:"last_check"`
	LastSuccessfulCall *time.Time `db:"last_successful_call"`
	FailureCount       int        `db:"failure_count"`
	LastErrorMessage   *string    `db:"last_error_message"`
	NextCheckDue       time.Time  `db:"next_check_due"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          *time.Time `db:"updated_at"`
}
