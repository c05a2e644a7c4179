package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/alann-h/picking-software-sub002/events"
	"github.com/alann-h/picking-software-sub002/events/event"
	"github.com/alann-h/picking-software-sub002/provider"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TokenVault loads and saves encrypted tokens
type TokenVault interface {
	Load(ctx context.Context, tenantID uuid.UUID, p credentials.Provider) (*credentials.Token, error)
	Save(ctx context.Context, tenantID uuid.UUID, p credentials.Provider, token *credentials.Token) error
}

// OutcomeRecorder persists health outcomes, see HealthTracker
type OutcomeRecorder interface {
	RecordOutcome(
		ctx context.Context,
		tenantID uuid.UUID,
		p credentials.Provider,
		status HealthStatus,
		errMessage string,
	) int
}

// Dispatcher fans out lifecycle events
type Dispatcher interface {
	Dispatch(ctx context.Context, ev events.Event)
}

// Coordinator hands out valid provider tokens. Concurrent callers for
// the same tenant and provider share one refresh, callers for other
// connections proceed fully in parallel. The persisted row is the
// source of truth, a refresh has happened once the save went through.
type Coordinator struct {
	store      TokenVault
	adapters   map[credentials.Provider]provider.Adapter
	health     OutcomeRecorder
	dispatcher Dispatcher
	log        *zap.Logger
	sf         singleflight.Group
	now        func() time.Time
}

// NewCoordinator returns a coordinator over the given adapters
func NewCoordinator(
	store TokenVault,
	adapters []provider.Adapter,
	health OutcomeRecorder,
	dispatcher Dispatcher,
	log *zap.Logger,
) *Coordinator {
	m := make(map[credentials.Provider]provider.Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Coordinator{
		store:      store,
		adapters:   m,
		health:     health,
		dispatcher: dispatcher,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func flightKey(tenantID uuid.UUID, p credentials.Provider) string {
	return tenantID.String() + "|" + string(p)
}

// ValidToken returns a token good for at least the skew buffer. It
// refreshes behind the scenes when needed and fails with
// ErrReauthRequired or ErrProviderUnavailable, never both.
func (c *Coordinator) ValidToken(
	ctx context.Context,
	tenantID uuid.UUID,
	p credentials.Provider,
) (*credentials.Token, error) {
	adapter, ok := c.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	token, err := c.store.Load(ctx, tenantID, p)
	if err != nil {
		if errors.Is(err, credentials.ErrNotConnected) {
			return nil, fmt.Errorf("%w: %w", ErrReauthRequired, err)
		}
		// decryption failures and storage trouble surface untouched
		return nil, err
	}
	if adapter.AccessTokenValid(token, c.now()) {
		return token, nil
	}

	// the token needs a refresh, share one flight per connection so a
	// single-use refresh token is never burned twice
	v, err, _ := c.sf.Do(flightKey(tenantID, p), func() (interface{}, error) {
		return c.refresh(ctx, tenantID, p, adapter, false)
	})
	if err != nil {
		return nil, err
	}
	return v.(*credentials.Token), nil
}

// ForceRefresh rotates the credential even while the current access
// token is still usable, an operator action for verifying a connection
// end to end. It shares the flight with ValidToken callers.
func (c *Coordinator) ForceRefresh(
	ctx context.Context,
	tenantID uuid.UUID,
	p credentials.Provider,
) (*credentials.Token, error) {
	adapter, ok := c.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	v, err, _ := c.sf.Do(flightKey(tenantID, p), func() (interface{}, error) {
		return c.refresh(ctx, tenantID, p, adapter, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(*credentials.Token), nil
}

// refresh runs inside a singleflight slot, everyone waiting on the
// slot observes its outcome. The slot is gone once Do returns, so a
// later caller starts over from fresh state.
func (c *Coordinator) refresh(
	ctx context.Context,
	tenantID uuid.UUID,
	p credentials.Provider,
	adapter provider.Adapter,
	force bool,
) (*credentials.Token, error) {
	// re-read, the flight we piggybacked on may have just finished
	token, err := c.store.Load(ctx, tenantID, p)
	if err != nil {
		if errors.Is(err, credentials.ErrNotConnected) {
			return nil, fmt.Errorf("%w: %w", ErrReauthRequired, err)
		}
		return nil, err
	}
	now := c.now()
	if !force && adapter.AccessTokenValid(token, now) {
		return token, nil
	}

	if !adapter.RefreshTokenValid(token, now) {
		// a known-dead refresh token is not worth a provider round trip
		c.health.RecordOutcome(ctx, tenantID, p, StatusExpired, "refresh token expired")
		c.dispatcher.Dispatch(ctx, &event.ReauthRequired{
			TenantID: tenantID,
			Provider: string(p),
			Cause:    "refresh token expired",
		})
		return nil, fmt.Errorf("%w: refresh token expired", ErrReauthRequired)
	}

	refreshed, err := adapter.Refresh(ctx, token)
	if err != nil {
		var failure *provider.RefreshFailure
		if errors.As(err, &failure) && failure.Reason == provider.ReasonRevoked {
			c.health.RecordOutcome(ctx, tenantID, p, StatusRevoked, err.Error())
			c.dispatcher.Dispatch(ctx, &event.ReauthRequired{
				TenantID: tenantID,
				Provider: string(p),
				Cause:    "grant revoked by provider",
			})
			return nil, fmt.Errorf("%w: the provider revoked the grant", ErrReauthRequired)
		}
		c.health.RecordOutcome(ctx, tenantID, p, StatusWarning, err.Error())
		c.dispatcher.Dispatch(ctx, &event.TokenRefreshFailed{
			TenantID: tenantID,
			Provider: string(p),
			Reason:   err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := c.store.Save(ctx, tenantID, p, refreshed); err != nil {
		// the save is the commit point, without it the refresh never
		// happened - drop the new token and let the caller retry
		c.log.Error("could not persist refreshed token",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", string(p)),
			zap.Error(err))
		c.health.RecordOutcome(ctx, tenantID, p, StatusWarning, "persistence failed")
		c.dispatcher.Dispatch(ctx, &event.TokenRefreshFailed{
			TenantID: tenantID,
			Provider: string(p),
			Reason:   "persistence failed",
		})
		return nil, fmt.Errorf("%w: could not persist refreshed token", ErrProviderUnavailable)
	}

	previousFailures := c.health.RecordOutcome(ctx, tenantID, p, StatusHealthy, "")
	c.dispatcher.Dispatch(ctx, &event.TokenRefreshed{
		TenantID: tenantID,
		Provider: string(p),
	})
	if previousFailures > 0 {
		c.dispatcher.Dispatch(ctx, &event.ConnectionRestored{
			TenantID:      tenantID,
			Provider:      string(p),
			AfterFailures: previousFailures,
		})
	}
	c.log.Info("refreshed provider token",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", string(p)))
	return refreshed, nil
}

// ReauthRequired reports whether the tenant has to redo the consent
// flow. Transient trouble is an error, not a yes.
func (c *Coordinator) ReauthRequired(
	ctx context.Context,
	tenantID uuid.UUID,
	p credentials.Provider,
) (bool, error) {
	_, err := c.ValidToken(ctx, tenantID, p)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, ErrReauthRequired) {
		return true, nil
	}
	return false, err
}

// Client returns a ready to use API client for the business layer
func (c *Coordinator) Client(
	ctx context.Context,
	tenantID uuid.UUID,
	p credentials.Provider,
) (*provider.AuthenticatedClient, error) {
	adapter, ok := c.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	token, err := c.ValidToken(ctx, tenantID, p)
	if err != nil {
		return nil, err
	}
	return adapter.NewClient(ctx, token), nil
}

// Forget drops any in-flight state for a connection, called when a
// tenant disconnects the provider. A running refresh completes but its
// result is not handed to later callers.
func (c *Coordinator) Forget(tenantID uuid.UUID, p credentials.Provider) {
	c.sf.Forget(flightKey(tenantID, p))
}
