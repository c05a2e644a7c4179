// Package vault encrypts provider credentials before they hit the
// persistent store and decrypts them on the way back out.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDecryptionFailed indicates the stored blob is malformed or was written
// under a different vault secret, either way the credential is unusable
var ErrDecryptionFailed = errors.New("unable to decrypt credential blob")

// blobDelimiter separates the hex encoded IV from the hex encoded
// ciphertext, a colon can never appear inside the hex alphabet
const blobDelimiter = ":"

// Cipher encrypts and decrypts credential payloads with AES-256-CBC.
// The key is derived once from the configured secret, so secrets of any
// length work and rotating the secret invalidates every stored blob.
type Cipher struct {
	key []byte
}

// NewCipher derives the symmetric key from the vault secret
func NewCipher(secret string) *Cipher {
	key := sha256.Sum256([]byte(secret))
	return &Cipher{key: key[:]}
}

// Encrypt seals the plain value and returns hex(iv):hex(ciphertext).
// A fresh random IV is drawn for every call, equal plaintexts never
// produce equal blobs.
func (c *Cipher) Encrypt(plain string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}
	padded := pad([]byte(plain))
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return hex.EncodeToString(iv) + blobDelimiter + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a blob written by Encrypt. Blobs without a delimiter are
// the pre-IV legacy format and decrypt under an all-zero IV, that format
// is read-only and gets rewritten on the next save.
func (c *Cipher) Decrypt(blob string) (string, error) {
	var iv, ciphertext []byte
	parts := strings.Split(blob, blobDelimiter)
	switch len(parts) {
	case 1:
		iv = make([]byte, aes.BlockSize)
		ct, err := hex.DecodeString(parts[0])
		if err != nil {
			return "", fmt.Errorf("%w: ciphertext is not hex", ErrDecryptionFailed)
		}
		ciphertext = ct
	case 2:
		var err error
		iv, err = hex.DecodeString(parts[0])
		if err != nil || len(iv) != aes.BlockSize {
			return "", fmt.Errorf("%w: bad initialization vector", ErrDecryptionFailed)
		}
		ciphertext, err = hex.DecodeString(parts[1])
		if err != nil {
			return "", fmt.Errorf("%w: ciphertext is not hex", ErrDecryptionFailed)
		}
	default:
		return "", fmt.Errorf("%w: unexpected blob shape", ErrDecryptionFailed)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length is off", ErrDecryptionFailed)
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)
	unpadded, err := unpad(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(unpadded), nil
}

// PKCS#7

func pad(in []byte) []byte {
	n := aes.BlockSize - len(in)%aes.BlockSize
	out := make([]byte, len(in)+n)
	copy(out, in)
	for i := len(in); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpad(in []byte) ([]byte, error) {
	if len(in) == 0 {
		return nil, errors.New("empty plaintext")
	}
	n := int(in[len(in)-1])
	if n == 0 || n > aes.BlockSize || n > len(in) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range in[len(in)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return in[:len(in)-n], nil
}
