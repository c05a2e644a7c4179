package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/alann-h/picking-software-sub002/db/tables"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// encrypted provider credentials, one row per tenant and provider

// ProviderCredential loads the stored credential row for a tenant and
// provider, ErrNotFound means the tenant never connected the provider
func (d *DataStore) ProviderCredential(
	ctx context.Context,
	tenantID uuid.UUID,
	provider string,
) (*tables.ProviderCredentialTable, error) {
	s := sq.Select(
		"id",
		"tenant_id",
		"provider",
		"blob",
		"provider_tenant_ref",
		"created_at",
		"updated_at").
		From("provider_credentials").
		Where(sq.And{
			sq.Eq{"tenant_id": tenantID},
			sq.Eq{"provider": provider},
		})
	var row tables.ProviderCredentialTable
	err := d.getStatement(ctx, &row, s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// SaveProviderCredential inserts or replaces the credential row of a
// tenant and provider
func (d *DataStore) SaveProviderCredential(
	ctx context.Context,
	tenantID uuid.UUID,
	provider string,
	blob string,
	providerTenantRef string,
) error {
	exists, err := d.exists(
		ctx,
		"provider_credentials",
		sq.And{sq.Eq{"tenant_id": tenantID}, sq.Eq{"provider": provider}},
	)
	if err != nil {
		return err
	}
	if exists {
		u := sq.Update("provider_credentials").
			Set("blob", blob).
			Set("provider_tenant_ref", providerTenantRef).
			Set("updated_at", time.Now().UTC()).
			Where(sq.And{
				sq.Eq{"tenant_id": tenantID},
				sq.Eq{"provider": provider},
			})
		_, err = d.updateStatement(ctx, u)
		return err
	}
	m := map[string]interface{}{
		"tenant_id":           tenantID,
		"provider":            provider,
		"blob":                blob,
		"provider_tenant_ref": providerTenantRef,
		"created_at":          time.Now().UTC(),
	}
	_, err = d.insertStatement(ctx, sq.Insert("provider_credentials").SetMap(m))
	if err != nil {
		d.log.Error("could not insert provider credential",
			zap.String("provider", provider), zap.Error(err))
	}
	return err
}

// DeleteProviderCredential removes the credential row, used when a
// tenant disconnects the provider
func (d *DataStore) DeleteProviderCredential(
	ctx context.Context,
	tenantID uuid.UUID,
	provider string,
) error {
	del := sq.Delete("provider_credentials").
		Where(sq.And{
			sq.Eq{"tenant_id": tenantID},
			sq.Eq{"provider": provider},
		})
	rs, err := d.deleteStatement(ctx, del)
	if err != nil {
		return err
	}
	count, err := rs.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
