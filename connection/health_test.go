package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/alann-h/picking-software-sub002/db"
	"github.com/alann-h/picking-software-sub002/db/tables"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryHealthStorer struct {
	rows      map[string]*tables.ConnectionHealthTable
	loadErr   error
	upsertErr error
}

func newMemoryHealthStorer() *memoryHealthStorer {
	return &memoryHealthStorer{rows: make(map[string]*tables.ConnectionHealthTable)}
}

func healthKey(tenantID uuid.UUID, provider string) string {
	return tenantID.String() + "|" + provider
}

func (m *memoryHealthStorer) ConnectionHealth(
	_ context.Context,
	tenantID uuid.UUID,
	provider string,
) (*tables.ConnectionHealthTable, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	row, ok := m.rows[healthKey(tenantID, provider)]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memoryHealthStorer) ConnectionHealthForTenant(
	_ context.Context,
	tenantID uuid.UUID,
) ([]tables.ConnectionHealthTable, error) {
	var out []tables.ConnectionHealthTable
	for _, row := range m.rows {
		if row.TenantID == tenantID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memoryHealthStorer) DueConnectionChecks(
	_ context.Context,
	now time.Time,
) ([]tables.ConnectionHealthTable, error) {
	var out []tables.ConnectionHealthTable
	for _, row := range m.rows {
		if !row.NextCheckDue.After(now) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memoryHealthStorer) UpsertConnectionHealth(
	_ context.Context,
	row *tables.ConnectionHealthTable,
) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	cp := *row
	m.rows[healthKey(row.TenantID, row.Provider)] = &cp
	return nil
}

func trackerAt(t *testing.T, store HealthStorer, now time.Time) *HealthTracker {
	t.Helper()
	tracker := NewHealthTracker(store, zaptest.NewLogger(t))
	tracker.now = func() time.Time { return now }
	return tracker
}

func TestRecordOutcomeCreatesRowLazily(t *testing.T) {
	store := newMemoryHealthStorer()
	now := time.Now().UTC()
	tracker := trackerAt(t, store, now)
	tenant := uuid.New()

	prev := tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusHealthy, "")
	assert.Equal(t, 0, prev)

	row, err := store.ConnectionHealth(context.Background(), tenant, "qbo")
	require.NoError(t, err)
	assert.Equal(t, string(StatusHealthy), row.Status)
	assert.Equal(t, 0, row.FailureCount)
	require.NotNil(t, row.LastSuccessfulCall)
	assert.Equal(t, now, *row.LastSuccessfulCall)
	assert.Equal(t, now.Add(time.Hour), row.NextCheckDue)
}

func TestRecordOutcomeCountsConsecutiveFailures(t *testing.T) {
	store := newMemoryHealthStorer()
	now := time.Now().UTC()
	tracker := trackerAt(t, store, now)
	tenant := uuid.New()

	for i := 1; i <= 3; i++ {
		prev := tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderXero, StatusWarning, "rate limited")
		assert.Equal(t, i-1, prev)
	}

	row, err := store.ConnectionHealth(context.Background(), tenant, "xero")
	require.NoError(t, err)
	assert.Equal(t, 3, row.FailureCount)
	require.NotNil(t, row.LastErrorMessage)
	assert.Equal(t, "rate limited", *row.LastErrorMessage)
	assert.Equal(t, now.Add(15*time.Minute), row.NextCheckDue)
}

func TestRecordOutcomeHealthyResetsFailureCount(t *testing.T) {
	store := newMemoryHealthStorer()
	now := time.Now().UTC()
	tracker := trackerAt(t, store, now)
	tenant := uuid.New()

	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusWarning, "boom")
	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusWarning, "boom")
	prev := tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusHealthy, "")
	assert.Equal(t, 2, prev, "the recovery reports how deep the hole was")

	row, err := store.ConnectionHealth(context.Background(), tenant, "qbo")
	require.NoError(t, err)
	assert.Equal(t, 0, row.FailureCount)
	assert.Equal(t, string(StatusHealthy), row.Status)
}

func TestRecordOutcomeFailureKeepsLastSuccessfulCall(t *testing.T) {
	store := newMemoryHealthStorer()
	success := time.Now().UTC().Add(-time.Hour)
	tracker := trackerAt(t, store, success)
	tenant := uuid.New()

	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusHealthy, "")
	tracker.now = func() time.Time { return success.Add(time.Hour) }
	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusWarning, "boom")

	row, err := store.ConnectionHealth(context.Background(), tenant, "qbo")
	require.NoError(t, err)
	require.NotNil(t, row.LastSuccessfulCall)
	assert.Equal(t, success, *row.LastSuccessfulCall)
}

func TestRecordOutcomeTerminalStatesProbeOften(t *testing.T) {
	store := newMemoryHealthStorer()
	now := time.Now().UTC()
	tracker := trackerAt(t, store, now)
	tenant := uuid.New()

	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusExpired, "refresh token expired")
	row, err := store.ConnectionHealth(context.Background(), tenant, "qbo")
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), row.NextCheckDue)

	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderXero, StatusRevoked, "grant revoked")
	row, err = store.ConnectionHealth(context.Background(), tenant, "xero")
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), row.NextCheckDue)
}

func TestRecordOutcomeSwallowsStorageTrouble(t *testing.T) {
	store := newMemoryHealthStorer()
	store.upsertErr = errors.New("connection refused")
	tracker := trackerAt(t, store, time.Now().UTC())

	// recording is best effort, the refresh result must not depend on it
	prev := tracker.RecordOutcome(context.Background(), uuid.New(), credentials.ProviderQuickBooks, StatusHealthy, "")
	assert.Equal(t, 0, prev)
}

func TestHealthReturnsTenantRows(t *testing.T) {
	store := newMemoryHealthStorer()
	now := time.Now().UTC()
	tracker := trackerAt(t, store, now)
	tenant := uuid.New()
	other := uuid.New()

	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusHealthy, "")
	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderXero, StatusWarning, "boom")
	tracker.RecordOutcome(context.Background(), other, credentials.ProviderQuickBooks, StatusHealthy, "")

	health, err := tracker.Health(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, health, 2)
	for _, h := range health {
		assert.Equal(t, tenant, h.TenantID)
	}
}

func TestDueReturnsOnlyOverdueConnections(t *testing.T) {
	store := newMemoryHealthStorer()
	now := time.Now().UTC()
	tracker := trackerAt(t, store, now)
	tenant := uuid.New()

	// healthy row checked an hour ago is due, one checked now is not
	tracker.now = func() time.Time { return now.Add(-2 * time.Hour) }
	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderQuickBooks, StatusHealthy, "")
	tracker.now = func() time.Time { return now }
	tracker.RecordOutcome(context.Background(), tenant, credentials.ProviderXero, StatusHealthy, "")

	due, err := tracker.Due(context.Background())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, credentials.ProviderQuickBooks, due[0].Provider)
}
