// Package provider is the single seam where QuickBooks Online and Xero
// specific knowledge lives. Everything above it treats both the same.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alann-h/picking-software-sub002/credentials"
	"golang.org/x/oauth2"
)

// ExpirySkew is subtracted from the access token expiry before
// comparing against now, it absorbs clock skew and in-flight latency
const ExpirySkew = 5 * time.Minute

const defaultRefreshTimeout = 10 * time.Second

// FailureReason classifies a failed refresh
type FailureReason string

const (
	// ReasonRevoked means the provider no longer honours the grant,
	// only the tenant consenting again can fix this
	ReasonRevoked FailureReason = "revoked"
	// ReasonTransient covers network trouble, timeouts and unexpected
	// provider responses, a later retry may succeed
	ReasonTransient FailureReason = "transient"
)

// RefreshFailure is the structured outcome of a failed refresh call,
// callers switch on Reason instead of matching error text
type RefreshFailure struct {
	Reason FailureReason
	cause  error
}

func (f *RefreshFailure) Error() string {
	return fmt.Sprintf("token refresh failed (%s): %v", f.Reason, f.cause)
}

func (f *RefreshFailure) Unwrap() error {
	return f.cause
}

// Adapter is the provider facing capability set of the coordinator
type Adapter interface {
	// Provider names the variant
	Provider() credentials.Provider
	// AccessTokenValid reports whether the access token is still good
	// for at least ExpirySkew from now
	AccessTokenValid(token *credentials.Token, now time.Time) bool
	// RefreshTokenValid reports whether a refresh attempt could succeed
	RefreshTokenValid(token *credentials.Token, now time.Time) bool
	// Refresh trades the refresh token for a fresh pair, failures are
	// always a *RefreshFailure
	Refresh(ctx context.Context, token *credentials.Token) (*credentials.Token, error)
	// NewClient wraps the token in a ready to use API client
	NewClient(ctx context.Context, token *credentials.Token) *AuthenticatedClient
}

// AuthenticatedClient is what the business layer gets handed to talk
// to the provider API, no lifecycle logic lives here
type AuthenticatedClient struct {
	HTTP    *http.Client
	BaseURL string
	// TenantRef is the realm id (QuickBooks) or xero-tenant-id header
	// value (Xero) API calls must carry
	TenantRef string
}

func accessTokenValid(token *credentials.Token, now time.Time) bool {
	if token.AccessToken == "" || token.AccessExpiresAt.IsZero() {
		return false
	}
	return token.AccessExpiresAt.Add(-ExpirySkew).After(now)
}

// refreshGrant runs the refresh_token grant against the provider token
// endpoint with a bounded timeout and classifies the outcome
func refreshGrant(
	ctx context.Context,
	conf *oauth2.Config,
	timeout time.Duration,
	refreshToken string,
) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	nt, err := ts.Token()
	if err != nil {
		return nil, classifyRefreshError(err)
	}
	return nt, nil
}

func classifyRefreshError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return &RefreshFailure{Reason: ReasonRevoked, cause: err}
	}
	return &RefreshFailure{Reason: ReasonTransient, cause: err}
}

// extraExpirySeconds reads a numeric lifetime claim from the token
// endpoint response body
func extraExpirySeconds(tok *oauth2.Token, key string) (time.Duration, bool) {
	switch v := tok.Extra(key).(type) {
	case float64:
		return time.Duration(v) * time.Second, v > 0
	case int64:
		return time.Duration(v) * time.Second, v > 0
	}
	return 0, false
}

func newAuthenticatedClient(
	ctx context.Context,
	baseURL string,
	token *credentials.Token,
) *AuthenticatedClient {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		Expiry:      token.AccessExpiresAt,
	})
	return &AuthenticatedClient{
		HTTP:      oauth2.NewClient(ctx, src),
		BaseURL:   baseURL,
		TenantRef: token.ProviderTenantRef,
	}
}
