package keystore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/google/uuid"
	"github.com/herumi/bls-eth-go-binary/bls"
	"github.com/stretchr/testify/require"
	keystorev4 "github.com/wealdtech/go-eth2-wallet-encryptor-keystorev4"
)

// writeRealKeystore writes an EIP-2335 keystore for a fresh BLS key. pbkdf2 is
// used instead of scrypt to keep the tests fast.
func writeRealKeystore(t *testing.T, dir, name, password string) (*bls.SecretKey, phase0.BLSPubKey) {
	t.Helper()
	initBLS()

	sk := &bls.SecretKey{}
	sk.SetByCSPRNG()

	crypto, err := keystorev4.New(keystorev4.WithCipher("pbkdf2")).Encrypt(sk.Serialize(), password)
	require.NoError(t, err)

	var pubKey phase0.BLSPubKey
	copy(pubKey[:], sk.GetPublicKey().Serialize())

	writeKeystoreJSON(t, filepath.Join(dir, name), map[string]any{
		"crypto":  crypto,
		"pubkey":  hex.EncodeToString(pubKey[:]),
		"path":    "m/12381/3600/0/0/0",
		"uuid":    uuid.NewString(),
		"version": 4,
	})

	return sk, pubKey
}

func writeKeystoreJSON(t *testing.T, path string, ks map[string]any) {
	t.Helper()
	data, err := json.Marshal(ks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// fakeDecrypter accepts keystores written by writeFakeKeystore, whose crypto
// section carries the plain secret and the password it expects.
type fakeDecrypter struct {
	calls []string
}

func (d *fakeDecrypter) Decrypt(ks *Keystore, password string) ([]byte, phase0.BLSPubKey, error) {
	d.calls = append(d.calls, ks.PubKey)
	if ks.Crypto["password"] != password {
		return nil, phase0.BLSPubKey{}, fmt.Errorf("invalid checksum")
	}
	secret, err := hex.DecodeString(ks.Crypto["secret"].(string))
	if err != nil {
		return nil, phase0.BLSPubKey{}, err
	}
	pubKey, err := ParsePubKey(ks.PubKey)
	if err != nil {
		return nil, phase0.BLSPubKey{}, err
	}
	return secret, pubKey, nil
}

func fakePubKey(id byte) phase0.BLSPubKey {
	var pk phase0.BLSPubKey
	pk[0] = 0xa0
	pk[phase0.PublicKeyLength-1] = id
	return pk
}

func writeFakeKeystore(t *testing.T, dir, name, password string, id byte, secret byte) {
	t.Helper()
	pk := fakePubKey(id)
	writeKeystoreJSON(t, filepath.Join(dir, name), map[string]any{
		"crypto":  map[string]any{"password": password, "secret": hex.EncodeToString([]byte{secret})},
		"pubkey":  hex.EncodeToString(pk[:]),
		"version": 4,
	})
}
