package aesencryption

import (
	"fmt"

	"github.com/ssvlabs/validator-keysync/errs"
)

// Decoder is the consuming side of the cipher key handoff: it is built from the
// string printed at the end of an ingestion run and opens stored records.
type Decoder struct {
	cipher *Cipher
}

func NewDecoder(cipherKey string) (*Decoder, error) {
	key, err := StringToBytes(cipherKey)
	if err != nil {
		return nil, errs.NewConfigurationError("cipher key", "not valid base64: %v", err)
	}

	c, err := NewWithKey(key)
	if err != nil {
		return nil, err
	}

	return &Decoder{cipher: c}, nil
}

// DecryptRecord decrypts the encoded private_key and nonce columns of a record.
func (d *Decoder) DecryptRecord(data, nonce string) (string, error) {
	ciphertext, err := StringToBytes(data)
	if err != nil {
		return "", errs.DecryptionError{Source: "private_key", Err: fmt.Errorf("decode: %w", err)}
	}

	nonceBytes, err := StringToBytes(nonce)
	if err != nil {
		return "", errs.DecryptionError{Source: "nonce", Err: fmt.Errorf("decode: %w", err)}
	}

	return d.cipher.Decrypt(ciphertext, nonceBytes)
}
