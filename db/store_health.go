package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/alann-h/picking-software-sub002/db/tables"
	"github.com/google/uuid"
)

// connection health rows, upserted after every resolved refresh attempt

var healthColumns = []string{
	"id",
	"tenant_id",
	"provider",
	"status",
	"last_check",
	"last_successful_call",
	"failure_count",
	"last_error_message",
	"next_check_due",
	"created_at",
	"updated_at",
}

// ConnectionHealth loads the health row of a single tenant and provider
func (d *DataStore) ConnectionHealth(
	ctx context.Context,
	tenantID uuid.UUID,
	provider string,
) (*tables.ConnectionHealthTable, error) {
	s := sq.Select(healthColumns...).
		From("connection_health").
		Where(sq.And{
			sq.Eq{"tenant_id": tenantID},
			sq.Eq{"provider": provider},
		})
	var row tables.ConnectionHealthTable
	err := d.getStatement(ctx, &row, s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// ConnectionHealthForTenant loads all health rows of one tenant
func (d *DataStore) ConnectionHealthForTenant(
	ctx context.Context,
	tenantID uuid.UUID,
) ([]tables.ConnectionHealthTable, error) {
	s := sq.Select(healthColumns...).
		From("connection_health").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("provider ASC")
	var rows []tables.ConnectionHealthTable
	err := d.selectStatement(ctx, &rows, s)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AllConnectionHealth loads every health row, used by the ops CLI
func (d *DataStore) AllConnectionHealth(
	ctx context.Context,
) ([]tables.ConnectionHealthTable, error) {
	s := sq.Select(healthColumns...).
		From("connection_health").
		OrderBy("tenant_id ASC", "provider ASC")
	var rows []tables.ConnectionHealthTable
	err := d.selectStatement(ctx, &rows, s)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DueConnectionChecks loads the health rows whose next check is due,
// the external monitor probes exactly these
func (d *DataStore) DueConnectionChecks(
	ctx context.Context,
	now time.Time,
) ([]tables.ConnectionHealthTable, error) {
	s := sq.Select(healthColumns...).
		From("connection_health").
		Where(sq.LtOrEq{"next_check_due": now}).
		OrderBy("next_check_due ASC")
	var rows []tables.ConnectionHealthTable
	err := d.selectStatement(ctx, &rows, s)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertConnectionHealth writes a health row, creating it lazily on the
// first health affecting event of a connection
func (d *DataStore) UpsertConnectionHealth(
	ctx context.Context,
	row *tables.ConnectionHealthTable,
) error {
	exists, err := d.exists(
		ctx,
		"connection_health",
		sq.And{sq.Eq{"tenant_id": row.TenantID}, sq.Eq{"provider": row.Provider}},
	)
	if err != nil {
		return err
	}
	if exists {
		u := sq.Update("connection_health").
			Set("status", row.Status).
			Set("last_check", row.LastCheck).
			Set("last_successful_call", row.LastSuccessfulCall).
			Set("failure_count", row.FailureCount).
			Set("last_error_message", row.LastErrorMessage).
			Set("next_check_due", row.NextCheckDue).
			Set("updated_at", time.Now().UTC()).
			Where(sq.And{
				sq.Eq{"tenant_id": row.TenantID},
				sq.Eq{"provider": row.Provider},
			})
		_, err = d.updateStatement(ctx, u)
		return err
	}
	m := map[string]interface{}{
		"tenant_id":            row.TenantID,
		"provider":             row.Provider,
		"status":               row.Status,
		"last_check":           row.LastCheck,
		"last_successful_call": row.LastSuccessfulCall,
		"failure_count":        row.FailureCount,
		"last_error_message":   row.LastErrorMessage,
		"next_check_due":       row.NextCheckDue,
		"created_at":           time.Now().UTC(),
	}
	_, err = d.insertStatement(ctx, sq.Insert("connection_health").SetMap(m))
	return err
}
