package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ServerConfiguration contains the ops endpoint settings
type ServerConfiguration struct {
	Port    int
	Address string
	// ServiceToken guards the ops endpoints, callers send it as bearer token
	ServiceToken string `mapstructure:"service-token" json:"-"`
	// AllowedOrigins for the operations dashboard
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

// DatabaseConfiguration contains the settings required to connect to a database
type DatabaseConfiguration struct {
	Type string
	DSN  string `json:"-"`
}

// VaultConfiguration holds the secret the credential cipher key is derived from
type VaultConfiguration struct {
	Secret string `json:"-"`
}

// ProviderConfiguration is the OAuth client registration for one accounting provider
type ProviderConfiguration struct {
	ClientID     string `mapstructure:"client-id"`
	ClientSecret string `mapstructure:"client-secret" json:"-"`
	// TokenURL is the provider token endpoint used for the refresh grant
	TokenURL string `mapstructure:"token-url"`
	// BaseURL is the root of the provider accounting API
	BaseURL string `mapstructure:"base-url"`
	// RefreshTimeout bounds the round trip to the token endpoint
	RefreshTimeout time.Duration `mapstructure:"refresh-timeout"`
}

// Enabled reports whether the provider carries a client registration.
// Defaults fill in the endpoint urls, so url presence means nothing.
func (p *ProviderConfiguration) Enabled() bool {
	return p != nil && (p.ClientID != "" || p.ClientSecret != "")
}

// ProvidersConfiguration groups the supported accounting providers
type ProvidersConfiguration struct {
	QuickBooks *ProviderConfiguration `mapstructure:"quickbooks"`
	Xero       *ProviderConfiguration `mapstructure:"xero"`
}

// Configuration habours the entire service configuration
type Configuration struct {
	Server    *ServerConfiguration    `mapstructure:"server"`
	Database  *DatabaseConfiguration  `mapstructure:"database"`
	Vault     *VaultConfiguration     `mapstructure:"vault"`
	Providers *ProvidersConfiguration `mapstructure:"providers"`
}

// Validate does some basic validation of the config file and tries to be helpful on missconfiguration
func (c *Configuration) Validate() error {
	if c.Database == nil {
		return errors.New("no database configuration found")
	}
	if c.Vault == nil || c.Vault.Secret == "" {
		return errors.New(
			"no vault secret configured, credentials can not be encrypted - generate one with the random-key command",
		)
	}
	if c.Server == nil {
		return errors.New("no server configuration found")
	}
	if c.Server.ServiceToken == "" {
		return errors.New("no server.service-token configured, the ops endpoints would be open")
	}
	if c.Providers == nil ||
		(!c.Providers.QuickBooks.Enabled() && !c.Providers.Xero.Enabled()) {
		return errors.New("no provider configured, at least one of providers.quickbooks or providers.xero needs a client registration")
	}
	for name, p := range map[string]*ProviderConfiguration{
		"quickbooks": c.Providers.QuickBooks,
		"xero":       c.Providers.Xero,
	} {
		if !p.Enabled() {
			continue
		}
		if p.ClientID == "" || p.ClientSecret == "" {
			return fmt.Errorf("providers.%s needs both client-id and client-secret", name)
		}
		if p.TokenURL == "" {
			return fmt.Errorf("providers.%s has no token-url", name)
		}
	}
	return nil
}

// DebugMode returns true if the DEBUG_MODE variable is set
func (*Configuration) DebugMode() bool {
	if r := os.Getenv("PSUB_DEBUG_MODE"); r == "true" {
		return true
	}
	return false
}
