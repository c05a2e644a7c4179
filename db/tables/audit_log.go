package tables

import "time"

// AuditLogTable represents the audit_logs table
type AuditLogTable struct {
	ID        int          `db:"id,omitempty"`
	EventType string       `db:"event_type"`
	Event     MapStructure `db:"event"`
	CreatedAt time.Time    `db:"created_at"`
}
