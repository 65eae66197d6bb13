package distribution

import (
	"os"
	"strconv"
	"strings"

	"github.com/ssvlabs/validator-keysync/errs"
)

// ReplicaIndexFromHostname extracts the ordinal from a StatefulSet pod
// hostname such as "validator-3" or "validator-3.validator.ns.svc".
func ReplicaIndexFromHostname(hostname string) (int, error) {
	name, _, _ := strings.Cut(hostname, ".")

	dash := strings.LastIndex(name, "-")
	if dash < 0 || dash == len(name)-1 {
		return 0, errs.NewConfigurationError("validator index", "hostname %q has no ordinal suffix", hostname)
	}

	index, err := strconv.Atoi(name[dash+1:])
	if err != nil || index < 0 {
		return 0, errs.NewConfigurationError("validator index", "hostname %q has no ordinal suffix", hostname)
	}

	return index, nil
}

// ReplicaIndex derives the ordinal from the local hostname.
func ReplicaIndex() (int, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return 0, errs.NewConfigurationError("validator index", "could not read hostname: %v", err)
	}
	return ReplicaIndexFromHostname(hostname)
}
