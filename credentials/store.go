package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alann-h/picking-software-sub002/db"
	"github.com/alann-h/picking-software-sub002/db/tables"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CredentialStorer is the slice of the datastore this package needs
type CredentialStorer interface {
	ProviderCredential(
		ctx context.Context,
		tenantID uuid.UUID,
		provider string,
	) (*tables.ProviderCredentialTable, error)
	SaveProviderCredential(
		ctx context.Context,
		tenantID uuid.UUID,
		provider string,
		blob string,
		providerTenantRef string,
	) error
	DeleteProviderCredential(ctx context.Context, tenantID uuid.UUID, provider string) error
}

// Cipher seals and opens credential payloads
type Cipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(blob string) (string, error)
}

// Store loads and saves tokens, everything that touches the database
// goes through the cipher first. Expiry is none of its business.
type Store struct {
	store  CredentialStorer
	cipher Cipher
	log    *zap.Logger
}

// NewStore returns a new credential store
func NewStore(store CredentialStorer, cipher Cipher, log *zap.Logger) *Store {
	return &Store{
		store:  store,
		cipher: cipher,
		log:    log,
	}
}

// tokenPayload is the plaintext layout inside the encrypted blob
type tokenPayload struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	IssuedAt         time.Time `json:"issued_at"`
}

// Load fetches and decrypts the token of a tenant and provider,
// ErrNotConnected when there is no row
func (s *Store) Load(ctx context.Context, tenantID uuid.UUID, provider Provider) (*Token, error) {
	row, err := s.store.ProviderCredential(ctx, tenantID, string(provider))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, err
	}
	plain, err := s.cipher.Decrypt(row.Blob)
	if err != nil {
		// a blob we can not open is data corruption, not a state the
		// lifecycle can recover from on its own
		s.log.Error("stored credential blob can not be decrypted",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", string(provider)),
			zap.Error(err))
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal([]byte(plain), &payload); err != nil {
		s.log.Error("stored credential payload is not valid json",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", string(provider)))
		return nil, err
	}
	return &Token{
		AccessToken:       payload.AccessToken,
		RefreshToken:      payload.RefreshToken,
		AccessExpiresAt:   payload.AccessExpiresAt,
		RefreshExpiresAt:  payload.RefreshExpiresAt,
		ProviderTenantRef: row.ProviderTenantRef,
		IssuedAt:          payload.IssuedAt,
	}, nil
}

// Save encrypts and persists the token, always in the current blob
// format, so legacy rows get rewritten on their next refresh
func (s *Store) Save(ctx context.Context, tenantID uuid.UUID, provider Provider, token *Token) error {
	payload, err := json.Marshal(&tokenPayload{
		AccessToken:      token.AccessToken,
		RefreshToken:     token.RefreshToken,
		AccessExpiresAt:  token.AccessExpiresAt,
		RefreshExpiresAt: token.RefreshExpiresAt,
		IssuedAt:         token.IssuedAt,
	})
	if err != nil {
		return err
	}
	blob, err := s.cipher.Encrypt(string(payload))
	if err != nil {
		return err
	}
	return s.store.SaveProviderCredential(
		ctx,
		tenantID,
		string(provider),
		blob,
		token.ProviderTenantRef,
	)
}

// Delete drops the credential, used when a tenant disconnects
func (s *Store) Delete(ctx context.Context, tenantID uuid.UUID, provider Provider) error {
	err := s.store.DeleteProviderCredential(ctx, tenantID, string(provider))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotConnected
		}
		return err
	}
	return nil
}
