package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfiguration() *Configuration {
	return &Configuration{
		Server: &ServerConfiguration{
			Port:         3000,
			ServiceToken: "secret",
		},
		Database: &DatabaseConfiguration{
			Type: "sqlite",
			DSN:  ":memory:",
		},
		Vault: &VaultConfiguration{
			Secret: "0123456789",
		},
		Providers: &ProvidersConfiguration{
			QuickBooks: &ProviderConfiguration{
				ClientID:     "id",
				ClientSecret: "secret",
				TokenURL:     "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer",
			},
		},
	}
}

func TestValidateAcceptsSingleProvider(t *testing.T) {
	assert.NoError(t, validConfiguration().Validate())
}

func TestValidateRequiresVaultSecret(t *testing.T) {
	c := validConfiguration()
	c.Vault = &VaultConfiguration{}
	assert.Error(t, c.Validate())
}

func TestValidateRequiresServiceToken(t *testing.T) {
	c := validConfiguration()
	c.Server.ServiceToken = ""
	assert.Error(t, c.Validate())
}

func TestValidateRequiresAProvider(t *testing.T) {
	c := validConfiguration()
	c.Providers = &ProvidersConfiguration{}
	assert.Error(t, c.Validate())
}

func TestValidateIgnoresProviderWithOnlyDefaultURLs(t *testing.T) {
	// defaults always fill in the endpoint urls, a provider without a
	// client registration stays disabled
	c := validConfiguration()
	c.Providers.Xero = &ProviderConfiguration{
		TokenURL: "https://identity.xero.com/connect/token",
		BaseURL:  "https://api.xero.com",
	}
	assert.NoError(t, c.Validate())
	assert.False(t, c.Providers.Xero.Enabled())
	assert.True(t, c.Providers.QuickBooks.Enabled())
}

func TestValidateRequiresProviderSecrets(t *testing.T) {
	c := validConfiguration()
	c.Providers.QuickBooks.ClientSecret = ""
	assert.Error(t, c.Validate())
}

func TestValidateRequiresTokenURL(t *testing.T) {
	c := validConfiguration()
	c.Providers.QuickBooks.TokenURL = ""
	assert.Error(t, c.Validate())
}
