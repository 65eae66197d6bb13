package sharding

import (
	"errors"
	"testing"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssvlabs/validator-keysync/errs"
	"github.com/ssvlabs/validator-keysync/keystore"
	"github.com/ssvlabs/validator-keysync/logging"
	"github.com/ssvlabs/validator-keysync/logging/fields"
	"github.com/ssvlabs/validator-keysync/utils/aesencryption"
)

func testKeySet(n int, recipient *common.Address) *keystore.KeySet {
	set := keystore.NewKeySet()
	for i := 0; i < n; i++ {
		var pk phase0.BLSPubKey
		pk[0] = 0xa0
		pk[47] = byte(i)
		set.Set(pk, keystore.KeyInfo{
			PrivateKey:   uint256.NewInt(uint64(1000 + i)),
			FeeRecipient: recipient,
		})
	}
	return set
}

func TestShardIndex(t *testing.T) {
	require.Equal(t, 0, ShardIndex(0, 2))
	require.Equal(t, 0, ShardIndex(1, 2))
	require.Equal(t, 1, ShardIndex(2, 2))
	require.Equal(t, 2, ShardIndex(4, 2))
	require.Equal(t, 4, ShardIndex(4, 1))
}

func TestRecommendedReplicas(t *testing.T) {
	tests := []struct {
		n, capacity, want int
	}{
		{n: 5, capacity: 2, want: 3},
		{n: 4, capacity: 2, want: 2},
		{n: 1, capacity: 100, want: 1},
		{n: 0, capacity: 100, want: 0},
		{n: 250, capacity: 100, want: 3},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RecommendedReplicas(tt.n, tt.capacity), "n=%d capacity=%d", tt.n, tt.capacity)
	}
}

func TestProcessAssignsShardsInOrder(t *testing.T) {
	cipher := aesencryption.New()
	set := testKeySet(5, nil)

	records, err := Process(logging.TestLogger(t), set, 2, cipher)
	require.NoError(t, err)
	require.Len(t, records, 5)

	var shards []string
	for i, r := range records {
		shards = append(shards, r.ValidatorIndex)
		require.Equal(t, set.Keys()[i].String(), r.PublicKey)
		require.Nil(t, r.FeeRecipient)
	}
	require.Equal(t, []string{"0", "0", "1", "1", "2"}, shards)
	require.Equal(t, 3, RecommendedReplicas(len(records), 2))
}

func TestProcessEncryptsDecimalSecret(t *testing.T) {
	cipher := aesencryption.New()
	recipient := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	records, err := Process(logging.TestLogger(t), testKeySet(2, &recipient), 100, cipher)
	require.NoError(t, err)

	keyString, err := cipher.KeyString()
	require.NoError(t, err)
	decoder, err := aesencryption.NewDecoder(keyString)
	require.NoError(t, err)

	for i, r := range records {
		plaintext, err := decoder.DecryptRecord(r.PrivateKey, r.Nonce)
		require.NoError(t, err)
		require.Equal(t, uint256.NewInt(uint64(1000+i)).Dec(), plaintext)
		require.NotNil(t, r.FeeRecipient)
		require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", *r.FeeRecipient)
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	set := testKeySet(7, nil)

	first, err := Process(logging.TestLogger(t), set, 3, aesencryption.New())
	require.NoError(t, err)
	second, err := Process(logging.TestLogger(t), set, 3, aesencryption.New())
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].PublicKey, second[i].PublicKey)
		require.Equal(t, first[i].ValidatorIndex, second[i].ValidatorIndex)
		require.NotEqual(t, first[i].Nonce, second[i].Nonce)
	}
}

func TestProcessRejectsCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		records, err := Process(logging.TestLogger(t), testKeySet(1, nil), capacity, aesencryption.New())
		require.Nil(t, records)
		require.True(t, errs.IsConfigurationError(err))
	}
}

type failingEncrypter struct {
	failAt int
	calls  int
}

func (e *failingEncrypter) Encrypt(plaintext string) ([]byte, []byte, error) {
	e.calls++
	if e.calls == e.failAt {
		return nil, nil, errors.New("entropy exhausted")
	}
	return []byte(plaintext), make([]byte, 12), nil
}

func TestProcessEncryptionFailureYieldsNoRecords(t *testing.T) {
	enc := &failingEncrypter{failAt: 3}

	records, err := Process(logging.TestLogger(t), testKeySet(5, nil), 2, enc)
	require.ErrorContains(t, err, "entropy exhausted")
	require.Nil(t, records)
	require.Equal(t, 3, enc.calls)
}

func TestProcessFailureLogsShard(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	_, err := Process(zap.New(core), testKeySet(5, nil), 2, &failingEncrypter{failAt: 3})
	require.Error(t, err)

	entries := logs.FilterMessage("failed to process key").All()
	require.Len(t, entries, 1)
	require.Equal(t, uint64(1), entries[0].ContextMap()[fields.FieldValidatorIndex])
}

func TestProcessEmptySet(t *testing.T) {
	records, err := Process(logging.TestLogger(t), keystore.NewKeySet(), 100, aesencryption.New())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestProcessHundredsOfKeys(t *testing.T) {
	records, err := Process(logging.TestLogger(t), testKeySet(250, nil), 100, aesencryption.New())
	require.NoError(t, err)
	require.Len(t, records, 250)

	for i, r := range records {
		switch {
		case i < 100:
			require.Equal(t, "0", r.ValidatorIndex, "position %d", i)
		case i < 200:
			require.Equal(t, "1", r.ValidatorIndex, "position %d", i)
		default:
			require.Equal(t, "2", r.ValidatorIndex, "position %d", i)
		}
	}
	require.Equal(t, 3, RecommendedReplicas(len(records), 100))
}
