package provider

import (
	"context"
	"time"

	"github.com/alann-h/picking-software-sub002/config"
	"github.com/alann-h/picking-software-sub002/credentials"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// QuickBooks Online rotates the refresh token on every refresh and
// reports the remaining refresh lifetime in the token response as
// x_refresh_token_expires_in.

const qboRefreshExpiresInKey = "x_refresh_token_expires_in"

// qboRefreshLifetime is the documented ~100 day refresh token window,
// used only when the endpoint omits the explicit claim
const qboRefreshLifetime = 100 * 24 * time.Hour

type QuickBooks struct {
	conf    *oauth2.Config
	baseURL string
	timeout time.Duration
	log     *zap.Logger
}

// NewQuickBooks builds the QuickBooks Online adapter
func NewQuickBooks(cfg *config.ProviderConfiguration, log *zap.Logger) *QuickBooks {
	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &QuickBooks{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		baseURL: cfg.BaseURL,
		timeout: timeout,
		log:     log,
	}
}

// Provider implements Adapter
func (*QuickBooks) Provider() credentials.Provider {
	return credentials.ProviderQuickBooks
}

// AccessTokenValid implements Adapter
func (*QuickBooks) AccessTokenValid(token *credentials.Token, now time.Time) bool {
	return accessTokenValid(token, now)
}

// RefreshTokenValid implements Adapter
func (*QuickBooks) RefreshTokenValid(token *credentials.Token, now time.Time) bool {
	if token.RefreshToken == "" {
		return false
	}
	return token.RefreshExpiresAt.After(now)
}

// Refresh implements Adapter
func (q *QuickBooks) Refresh(
	ctx context.Context,
	token *credentials.Token,
) (*credentials.Token, error) {
	nt, err := refreshGrant(ctx, q.conf, q.timeout, token.RefreshToken)
	if err != nil {
		q.log.Warn("quickbooks token refresh failed", zap.Error(err))
		return nil, err
	}
	now := time.Now().UTC()
	refreshed := &credentials.Token{
		AccessToken:       nt.AccessToken,
		RefreshToken:      nt.RefreshToken,
		AccessExpiresAt:   nt.Expiry.UTC(),
		ProviderTenantRef: token.ProviderTenantRef,
		IssuedAt:          now,
	}
	if refreshed.RefreshToken == "" {
		// should not happen with intuit, keep the old one rather than
		// persisting an unusable credential
		refreshed.RefreshToken = token.RefreshToken
	}
	if d, ok := extraExpirySeconds(nt, qboRefreshExpiresInKey); ok {
		refreshed.RefreshExpiresAt = now.Add(d)
	} else {
		refreshed.RefreshExpiresAt = now.Add(qboRefreshLifetime)
	}
	return refreshed, nil
}

// NewClient implements Adapter
func (q *QuickBooks) NewClient(
	ctx context.Context,
	token *credentials.Token,
) *AuthenticatedClient {
	return newAuthenticatedClient(ctx, q.baseURL, token)
}
