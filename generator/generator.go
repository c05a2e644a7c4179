// Package generator creates the random secret material the service
// hands out, currently only vault secrets.
package generator

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
)

type SecretGenerator struct{}

func New() *SecretGenerator {
	return &SecretGenerator{}
}

// CreateSecretWithSize returns an url-safe random secret built from
// size bytes of entropy
func (*SecretGenerator) CreateSecretWithSize(size int) string {
	b := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err.Error()) // rand should never fail
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "=")
}
