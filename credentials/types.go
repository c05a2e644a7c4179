// Package credentials holds the provider token model and its encrypted
// persistence.
package credentials

import (
	"errors"
	"fmt"
	"time"
)

// Provider identifies a connected accounting system
type Provider string

const (
	// ProviderQuickBooks is QuickBooks Online
	ProviderQuickBooks Provider = "qbo"
	// ProviderXero is Xero
	ProviderXero Provider = "xero"
)

// ParseProvider maps the wire representation to a Provider
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderQuickBooks:
		return ProviderQuickBooks, nil
	case ProviderXero:
		return ProviderXero, nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

// ErrNotConnected indicates the tenant never connected this provider,
// which is not the same as holding an expired credential
var ErrNotConnected = errors.New("tenant has no credential for this provider")

// Token is one provider credential of one tenant. The coordinator only
// ever looks at the expiry fields, everything else is opaque provider
// material.
type Token struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	// ProviderTenantRef is the realm id for QuickBooks and the tenant
	// id for Xero, the adapters need it on every API call
	ProviderTenantRef string
	IssuedAt          time.Time
}
