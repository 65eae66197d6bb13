// Package sharding assigns ingested keys to signer shards and encrypts their
// secrets for storage.
package sharding

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"go.uber.org/zap"

	"github.com/ssvlabs/validator-keysync/errs"
	"github.com/ssvlabs/validator-keysync/keystore"
	"github.com/ssvlabs/validator-keysync/logging"
	"github.com/ssvlabs/validator-keysync/logging/fields"
	"github.com/ssvlabs/validator-keysync/storage/keys"
	"github.com/ssvlabs/validator-keysync/utils/aesencryption"
)

// Encrypter seals a plaintext secret. *aesencryption.Cipher implements it.
type Encrypter interface {
	Encrypt(plaintext string) (ciphertext, nonce []byte, err error)
}

// ShardIndex returns the shard of the key at position.
func ShardIndex(position, capacity int) int {
	return position / capacity
}

// RecommendedReplicas is the number of signer replicas needed to serve n keys
// when each holds at most capacity keys.
func RecommendedReplicas(n, capacity int) int {
	if n <= 0 || capacity < 1 {
		return 0
	}
	return (n + capacity - 1) / capacity
}

// Process turns the key set into storage records in insertion order. The
// secret is encrypted as its decimal string. Any failure discards all records.
func Process(logger *zap.Logger, keySet *keystore.KeySet, capacity int, cipher Encrypter) ([]keys.Record, error) {
	if capacity < 1 {
		return nil, errs.NewConfigurationError("validator capacity", "must be at least 1, got %d", capacity)
	}

	logger = logger.Named(logging.NameSharder)
	start := time.Now()

	records := make([]keys.Record, 0, keySet.Len())
	var processErr error
	keySet.Range(func(position int, pubKey phase0.BLSPubKey, info keystore.KeyInfo) bool {
		shard := ShardIndex(position, capacity)
		record, err := newRecord(pubKey, info, shard, cipher)
		if err != nil {
			logger.Error("failed to process key",
				fields.PubKey(pubKey),
				fields.ValidatorIndex(uint64(shard)), // #nosec G115 shard is never negative
				zap.Error(err))
			processErr = fmt.Errorf("failed to process key %s: %w", pubKey, err)
			return false
		}
		records = append(records, record)
		return true
	})
	if processErr != nil {
		return nil, processErr
	}

	logger.Info("assigned keys to shards",
		fields.Count(len(records)),
		fields.ValidatorCapacity(capacity),
		fields.RecommendedReplicas(RecommendedReplicas(len(records), capacity)),
		fields.Took(time.Since(start)))

	return records, nil
}

func newRecord(pubKey phase0.BLSPubKey, info keystore.KeyInfo, shard int, cipher Encrypter) (keys.Record, error) {
	if info.PrivateKey == nil {
		return keys.Record{}, errors.New("missing secret")
	}

	ciphertext, nonce, err := cipher.Encrypt(info.PrivateKey.Dec())
	if err != nil {
		return keys.Record{}, err
	}

	record := keys.Record{
		PublicKey:      pubKey.String(),
		PrivateKey:     aesencryption.BytesToString(ciphertext),
		Nonce:          aesencryption.BytesToString(nonce),
		ValidatorIndex: strconv.Itoa(shard),
	}
	if info.FeeRecipient != nil {
		recipient := info.FeeRecipient.Hex()
		record.FeeRecipient = &recipient
	}

	return record, nil
}
