package keystore

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/herumi/bls-eth-go-binary/bls"
	"github.com/ssvlabs/eth2-key-manager/encryptor/keystorev4"

	"github.com/ssvlabs/validator-keysync/errs"
)

// Keystore is an EIP-2335 validator keystore file.
type Keystore struct {
	Crypto  map[string]any `json:"crypto"`
	PubKey  string         `json:"pubkey"`
	Path    string         `json:"path"`
	UUID    string         `json:"uuid"`
	Version int            `json:"version"`
}

// LoadKeystore reads and parses a keystore file without decrypting it.
func LoadKeystore(path string) (*Keystore, error) {
	// #nosec G304 keystore paths come from the operator's key directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore %s: %w", path, err)
	}

	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errs.DecryptionError{Source: path, Err: fmt.Errorf("parse keystore JSON: %w", err)}
	}
	if ks.Version != 4 {
		return nil, errs.DecryptionError{Source: path, Err: fmt.Errorf("unsupported keystore version %d", ks.Version)}
	}
	if len(ks.Crypto) == 0 {
		return nil, errs.DecryptionError{Source: path, Err: fmt.Errorf("missing crypto section")}
	}

	return &ks, nil
}

// DeclaredPubKey parses the pubkey field. ok is false when the field is absent,
// which EIP-2335 permits.
func (ks *Keystore) DeclaredPubKey() (pubKey phase0.BLSPubKey, ok bool, err error) {
	if ks.PubKey == "" {
		return phase0.BLSPubKey{}, false, nil
	}
	pubKey, err = ParsePubKey(ks.PubKey)
	if err != nil {
		return phase0.BLSPubKey{}, false, err
	}
	return pubKey, true, nil
}

// ParsePubKey decodes a hex BLS public key with or without the 0x prefix.
func ParsePubKey(s string) (phase0.BLSPubKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return phase0.BLSPubKey{}, fmt.Errorf("decode public key %q: %w", s, err)
	}
	if len(raw) != phase0.PublicKeyLength {
		return phase0.BLSPubKey{}, fmt.Errorf("public key %q has %d bytes, expected %d", s, len(raw), phase0.PublicKeyLength)
	}
	var pubKey phase0.BLSPubKey
	copy(pubKey[:], raw)
	return pubKey, nil
}

// Decrypter turns a keystore and its password into the raw secret and the
// public key it belongs to.
type Decrypter interface {
	Decrypt(ks *Keystore, password string) (secret []byte, pubKey phase0.BLSPubKey, err error)
}

var initBLSOnce sync.Once

func initBLS() {
	initBLSOnce.Do(func() {
		if err := bls.Init(bls.BLS12_381); err != nil {
			panic(fmt.Sprintf("init BLS: %v", err))
		}
	})
}

type keystoreV4Decrypter struct{}

// NewDecrypter returns the EIP-2335 decrypter. The decrypted secret must derive
// the keystore's declared public key.
func NewDecrypter() Decrypter {
	initBLS()
	return keystoreV4Decrypter{}
}

func (keystoreV4Decrypter) Decrypt(ks *Keystore, password string) ([]byte, phase0.BLSPubKey, error) {
	secret, err := keystorev4.New().Decrypt(ks.Crypto, password)
	if err != nil {
		return nil, phase0.BLSPubKey{}, fmt.Errorf("decrypt private key: %w", err)
	}

	sk := &bls.SecretKey{}
	if err := sk.Deserialize(secret); err != nil {
		return nil, phase0.BLSPubKey{}, fmt.Errorf("invalid BLS secret key: %w", err)
	}

	var derived phase0.BLSPubKey
	copy(derived[:], sk.GetPublicKey().Serialize())

	declared, ok, err := ks.DeclaredPubKey()
	if err != nil {
		return nil, phase0.BLSPubKey{}, err
	}
	if ok && !bytes.Equal(declared[:], derived[:]) {
		return nil, phase0.BLSPubKey{}, fmt.Errorf("secret key derives %s, keystore declares %s", derived, declared)
	}

	return secret, derived, nil
}
