package provider

import (
	"context"
	"time"

	"github.com/alann-h/picking-software-sub002/config"
	"github.com/alann-h/picking-software-sub002/credentials"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Xero access tokens are JWTs and the refresh token lives in a rolling
// 60 day window, every successful refresh starts the window over. The
// token endpoint itself never states a refresh expiry.

// xeroRefreshWindow is the documented rolling refresh token lifetime
const xeroRefreshWindow = 60 * 24 * time.Hour

type Xero struct {
	conf    *oauth2.Config
	baseURL string
	timeout time.Duration
	log     *zap.Logger
}

// NewXero builds the Xero adapter
func NewXero(cfg *config.ProviderConfiguration, log *zap.Logger) *Xero {
	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &Xero{
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
func (*Xero) Provider() credentials.Provider {
	return credentials.ProviderXero
}

// AccessTokenValid implements Adapter. Rows written before expiry
// tracking carry a zero expiry, for those the exp claim of the access
// token JWT is authoritative.
func (x *Xero) AccessTokenValid(token *credentials.Token, now time.Time) bool {
	if token.AccessExpiresAt.IsZero() && token.AccessToken != "" {
		parsed, err := jwt.ParseInsecure([]byte(token.AccessToken))
		if err != nil {
			return false
		}
		return parsed.Expiration().Add(-ExpirySkew).After(now)
	}
	return accessTokenValid(token, now)
}

// RefreshTokenValid implements Adapter
func (x *Xero) RefreshTokenValid(token *credentials.Token, now time.Time) bool {
	if token.RefreshToken == "" {
		return false
	}
	expiry := token.RefreshExpiresAt
	if expiry.IsZero() {
		// legacy row without an expiry, fall back to the rolling window
		// counted from the last refresh
		expiry = token.IssuedAt.Add(xeroRefreshWindow)
	}
	return expiry.After(now)
}

// Refresh implements Adapter
func (x *Xero) Refresh(
	ctx context.Context,
	token *credentials.Token,
) (*credentials.Token, error) {
	nt, err := refreshGrant(ctx, x.conf, x.timeout, token.RefreshToken)
	if err != nil {
		x.log.Warn("xero token refresh failed", zap.Error(err))
		return nil, err
	}
	now := time.Now().UTC()
	refreshed := &credentials.Token{
		AccessToken:       nt.AccessToken,
		RefreshToken:      nt.RefreshToken,
		AccessExpiresAt:   nt.Expiry.UTC(),
		RefreshExpiresAt:  now.Add(xeroRefreshWindow),
		ProviderTenantRef: token.ProviderTenantRef,
		IssuedAt:          now,
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	return refreshed, nil
}

// NewClient implements Adapter
func (x *Xero) NewClient(
	ctx context.Context,
	token *credentials.Token,
) *AuthenticatedClient {
	return newAuthenticatedClient(ctx, x.baseURL, token)
}
