package fields

import (
	"time"

	"github.com/attestantio/go-eth2-client/spec/phase0"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FieldCount              = "count"
	FieldDirectory          = "directory"
	FieldEnd                = "end"
	FieldFeeRecipient       = "fee_recipient"
	FieldPath               = "path"
	FieldPubKey             = "pubkey"
	FieldRecommendedReplica = "recommended_replicas"
	FieldReplicaIndex       = "replica_index"
	FieldRunID              = "run_id"
	FieldStart              = "start"
	FieldTable              = "table"
	FieldTook               = "took"
	FieldTotalReplicas      = "total_replicas"
	FieldValidatorCapacity  = "validator_capacity"
	FieldValidatorIndex     = "validator_index"
)

func Count(val int) zap.Field {
	return zap.Int(FieldCount, val)
}

func Took(duration time.Duration) zap.Field {
	return zap.Duration(FieldTook, duration)
}

func PubKey(pubKey phase0.BLSPubKey) zap.Field {
	return zap.Stringer(FieldPubKey, pubKey)
}

// FeeRecipient logs the address in checksum form, or an empty string for keys
// without an override.
func FeeRecipient(addr *common.Address) zap.Field {
	if addr == nil {
		return zap.String(FieldFeeRecipient, "")
	}
	return zap.String(FieldFeeRecipient, addr.Hex())
}

func Path(val string) zap.Field {
	return zap.String(FieldPath, val)
}

func Directory(val string) zap.Field {
	return zap.String(FieldDirectory, val)
}

func Table(val string) zap.Field {
	return zap.String(FieldTable, val)
}

func ValidatorIndex(val uint64) zap.Field {
	return zap.Uint64(FieldValidatorIndex, val)
}

func ValidatorCapacity(val int) zap.Field {
	return zap.Int(FieldValidatorCapacity, val)
}

func RecommendedReplicas(val int) zap.Field {
	return zap.Int(FieldRecommendedReplica, val)
}

func ReplicaIndex(val int) zap.Field {
	return zap.Int(FieldReplicaIndex, val)
}

func TotalReplicas(val int) zap.Field {
	return zap.Int(FieldTotalReplicas, val)
}

func Range(start, end int) zapcore.Field {
	return zap.Dict("range", zap.Int(FieldStart, start), zap.Int(FieldEnd, end))
}

func RunID(val uuid.UUID) zap.Field {
	return zap.Stringer(FieldRunID, val)
}
