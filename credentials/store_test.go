package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/alann-h/picking-software-sub002/db"
	"github.com/alann-h/picking-software-sub002/db/tables"
	"github.com/alann-h/picking-software-sub002/vault"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryCredentialStorer struct {
	rows  map[string]*tables.ProviderCredentialTable
	saves int
}

func newMemoryCredentialStorer() *memoryCredentialStorer {
	return &memoryCredentialStorer{rows: make(map[string]*tables.ProviderCredentialTable)}
}

func (m *memoryCredentialStorer) key(tenantID uuid.UUID, provider string) string {
	return tenantID.String() + "|" + provider
}

func (m *memoryCredentialStorer) ProviderCredential(
	_ context.Context,
	tenantID uuid.UUID,
	provider string,
) (*tables.ProviderCredentialTable, error) {
	row, ok := m.rows[m.key(tenantID, provider)]
	if !ok {
		return nil, db.ErrNotFound
	}
	return row, nil
}

func (m *memoryCredentialStorer) SaveProviderCredential(
	_ context.Context,
	tenantID uuid.UUID,
	provider string,
	blob string,
	providerTenantRef string,
) error {
	m.saves++
	m.rows[m.key(tenantID, provider)] = &tables.ProviderCredentialTable{
		TenantID:          tenantID,
		Provider:          provider,
		Blob:              blob,
		ProviderTenantRef: providerTenantRef,
		CreatedAt:         time.Now().UTC(),
	}
	return nil
}

func (m *memoryCredentialStorer) DeleteProviderCredential(
	_ context.Context,
	tenantID uuid.UUID,
	provider string,
) error {
	k := m.key(tenantID, provider)
	if _, ok := m.rows[k]; !ok {
		return db.ErrNotFound
	}
	delete(m.rows, k)
	return nil
}

func sampleToken(now time.Time) *Token {
	return &Token{
		AccessToken:       "access-abc",
		RefreshToken:      "refresh-def",
		AccessExpiresAt:   now.Add(time.Hour),
		RefreshExpiresAt:  now.Add(100 * 24 * time.Hour),
		ProviderTenantRef: "9341453989",
		IssuedAt:          now,
	}
}

func TestLoadUnknownTenantIsNotConnected(t *testing.T) {
	store := NewStore(newMemoryCredentialStorer(), vault.NewCipher("s"), zaptest.NewLogger(t))
	_, err := store.Load(context.Background(), uuid.New(), ProviderQuickBooks)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemoryCredentialStorer(), vault.NewCipher("s"), zaptest.NewLogger(t))
	tenant := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	tok := sampleToken(now)

	require.NoError(t, store.Save(ctx, tenant, ProviderQuickBooks, tok))
	loaded, err := store.Load(ctx, tenant, ProviderQuickBooks)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, loaded.AccessToken)
	assert.Equal(t, tok.RefreshToken, loaded.RefreshToken)
	assert.True(t, tok.AccessExpiresAt.Equal(loaded.AccessExpiresAt))
	assert.True(t, tok.RefreshExpiresAt.Equal(loaded.RefreshExpiresAt))
	assert.Equal(t, tok.ProviderTenantRef, loaded.ProviderTenantRef)
}

func TestSaveEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	backing := newMemoryCredentialStorer()
	store := NewStore(backing, vault.NewCipher("s"), zaptest.NewLogger(t))
	tenant := uuid.New()
	tok := sampleToken(time.Now().UTC())

	require.NoError(t, store.Save(ctx, tenant, ProviderXero, tok))
	row := backing.rows[backing.key(tenant, "xero")]
	require.NotNil(t, row)
	assert.NotContains(t, row.Blob, tok.AccessToken)
	assert.NotContains(t, row.Blob, tok.RefreshToken)
}

func TestLoadSurfacesDecryptionFailure(t *testing.T) {
	ctx := context.Background()
	backing := newMemoryCredentialStorer()
	tenant := uuid.New()
	writer := NewStore(backing, vault.NewCipher("old secret"), zaptest.NewLogger(t))
	require.NoError(t, writer.Save(ctx, tenant, ProviderQuickBooks, sampleToken(time.Now().UTC())))

	reader := NewStore(backing, vault.NewCipher("rotated secret"), zaptest.NewLogger(t))
	_, err := reader.Load(ctx, tenant, ProviderQuickBooks)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConnected)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemoryCredentialStorer(), vault.NewCipher("s"), zaptest.NewLogger(t))
	tenant := uuid.New()
	require.NoError(t, store.Save(ctx, tenant, ProviderQuickBooks, sampleToken(time.Now().UTC())))
	require.NoError(t, store.Delete(ctx, tenant, ProviderQuickBooks))
	_, err := store.Load(ctx, tenant, ProviderQuickBooks)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, store.Delete(ctx, tenant, ProviderQuickBooks), ErrNotConnected)
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("qbo")
	assert.NoError(t, err)
	assert.Equal(t, ProviderQuickBooks, p)
	p, err = ParseProvider("xero")
	assert.NoError(t, err)
	assert.Equal(t, ProviderXero, p)
	_, err = ParseProvider("myob")
	assert.Error(t, err)
}
