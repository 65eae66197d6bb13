// Package aesencryption protects validator private keys at rest with AES-256-GCM.
//
// A Cipher owns one symmetric key for the lifetime of an ingestion run. The key
// never leaves process memory except through KeyString, which the operator
// hands to the decrypting side out of band.
package aesencryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/ssvlabs/validator-keysync/errs"
)

// KeySize is the length of the AES-256 key in bytes.
const KeySize = 32

// Cipher encrypts private key material under a lazily generated key.
type Cipher struct {
	once   sync.Once
	key    []byte
	aead   cipher.AEAD
	keyErr error
	rand   io.Reader
}

// New returns a Cipher whose key is generated from crypto/rand on first use.
func New() *Cipher {
	return &Cipher{rand: rand.Reader}
}

// NewWithKey returns a Cipher bound to an existing key.
func NewWithKey(key []byte) (*Cipher, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	c := &Cipher{
		key:  append([]byte(nil), key...),
		aead: aead,
		rand: rand.Reader,
	}
	c.once.Do(func() {}) // key is already set

	return c, nil
}

func (c *Cipher) init() error {
	c.once.Do(func() {
		key := make([]byte, KeySize)
		if _, err := io.ReadFull(c.rand, key); err != nil {
			c.keyErr = errors.Wrap(err, "generate cipher key")
			return
		}
		aead, err := newAEAD(key)
		if err != nil {
			c.keyErr = err
			return
		}
		c.key = key
		c.aead = aead
	})
	return c.keyErr
}

// Key returns the cipher key, generating it on the first call. Subsequent calls
// return the same key.
func (c *Cipher) Key() ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	return c.key, nil
}

// KeyString returns the key in the encoding expected by the decrypting side.
func (c *Cipher) KeyString() (string, error) {
	key, err := c.Key()
	if err != nil {
		return "", err
	}
	return BytesToString(key), nil
}

// Encrypt seals plaintext under a fresh random nonce. Nonces are never reused.
func (c *Cipher) Encrypt(plaintext string) (ciphertext, nonce []byte, err error) {
	if err := c.init(); err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, nil, errors.Wrap(err, "generate nonce")
	}

	return c.aead.Seal(nil, nonce, []byte(plaintext), nil), nonce, nil
}

// Decrypt opens a ciphertext produced by Encrypt with the same key.
func (c *Cipher) Decrypt(ciphertext, nonce []byte) (string, error) {
	if err := c.init(); err != nil {
		return "", err
	}
	return open(c.aead, ciphertext, nonce)
}

// Decrypt opens ciphertext with an explicit key. Any authentication failure,
// including a wrong key or a corrupted nonce, is reported as errs.DecryptionError.
func Decrypt(ciphertext, nonce, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	return open(aead, ciphertext, nonce)
}

func open(aead cipher.AEAD, ciphertext, nonce []byte) (string, error) {
	if len(nonce) != aead.NonceSize() {
		return "", errs.DecryptionError{Err: fmt.Errorf("invalid nonce size %d, expected %d", len(nonce), aead.NonceSize())}
	}

	// #nosec G407 nonce comes from the stored record
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errs.DecryptionError{Err: err}
	}

	return string(plaintext), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, errs.NewConfigurationError("cipher key", "expected %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "create AES cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "create GCM")
	}

	return aead, nil
}

// BytesToString encodes persisted binary fields.
func BytesToString(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// StringToBytes decodes fields encoded with BytesToString.
func StringToBytes(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
