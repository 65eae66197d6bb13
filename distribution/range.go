package distribution

import (
	"github.com/ssvlabs/validator-keysync/errs"
)

// ComputeRange returns the half-open slice [start, end) of an ordered list of
// n keys that the replica with the given ordinal serves, out of total
// replicas. It depends on its arguments only, so every replica computes the
// same partition without coordinating. total must be at least 1.
func ComputeRange(n, replicaIndex, total int) (start, end int) {
	perReplica := (n + total - 1) / total
	start = min(perReplica*replicaIndex, n)
	end = min(start+perReplica, n)
	return start, end
}

// SelectRange validates the replica parameters and returns a non-empty range.
// An empty range means the replica has nothing to serve, which is reported as
// a configuration error for that replica only.
func SelectRange(n, replicaIndex, total int) (start, end int, err error) {
	if total < 1 {
		return 0, 0, errs.NewConfigurationError("total validators", "must be at least 1, got %d", total)
	}
	if replicaIndex < 0 || replicaIndex >= total {
		return 0, 0, errs.NewConfigurationError("validator index", "%d is outside [0, %d)", replicaIndex, total)
	}

	start, end = ComputeRange(n, replicaIndex, total)
	if start >= end {
		return start, end, errs.NewConfigurationError("validator index",
			"replica %d of %d has no keys to serve out of %d", replicaIndex, total, n)
	}

	return start, end, nil
}
