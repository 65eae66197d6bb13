// Package errs defines the failure classes shared by the ingestion and
// distribution paths. Every class is fatal for the operation that raised it.
package errs

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid operator-supplied value. It is raised
// before anything is mutated.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewConfigurationError is a shorthand for building a ConfigurationError with a
// formatted reason.
func NewConfigurationError(field, format string, args ...any) error {
	return ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DecryptionError reports key material that could not be decrypted, either a
// keystore with the wrong password or a ciphertext whose tag does not verify.
type DecryptionError struct {
	Source string
	Err    error
}

func (e DecryptionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("decryption failed: %v", e.Err)
	}
	return fmt.Sprintf("could not decrypt %s: %v", e.Source, e.Err)
}

func (e DecryptionError) Unwrap() error {
	return e.Err
}

// StorageError reports a failed store round-trip. The store is left as of the
// last successful full replace.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}

func IsConfigurationError(err error) bool {
	var target ConfigurationError
	return errors.As(err, &target)
}

func IsDecryptionError(err error) bool {
	var target DecryptionError
	return errors.As(err, &target)
}

func IsStorageError(err error) bool {
	var target StorageError
	return errors.As(err, &target)
}
