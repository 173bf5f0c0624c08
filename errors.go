package hxgrid

import (
	"errors"

	"github.com/pthm/hxgrid/lib/encoding"
	"github.com/pthm/hxgrid/lib/export"
)

// Sentinel errors for grid operations.
var (
	ErrInvalidConfig     = errors.New("hxgrid: invalid configuration")
	ErrMissingKey        = errors.New("hxgrid: row key is required")
	ErrSelfReference     = errors.New("hxgrid: formula column references itself")
	ErrDependencyMissing = errors.New("hxgrid: required dependency missing")
	ErrNotFound          = errors.New("hxgrid: resource not found")

	ErrHashMismatch  = export.ErrHashMismatch
	ErrUnknownFormat = export.ErrUnknownFormat

	ErrSignatureInvalid = encoding.ErrSignatureInvalid
	ErrDecryptFailed    = encoding.ErrDecryptFailed
	ErrInvalidFormat    = encoding.ErrInvalidFormat
)

// IsConfigError checks if err is caused by grid or column configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingKey) ||
		errors.Is(err, ErrSelfReference) ||
		errors.Is(err, ErrDependencyMissing)
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a state token decryption or signature
// error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) ||
		errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsHashMismatch checks if err is a rejected export integrity hash.
func IsHashMismatch(err error) bool {
	return errors.Is(err, ErrHashMismatch)
}

// configError names the offending option in an ErrInvalidConfig error.
func configError(owner, option, problem string) error {
	return &optionError{owner: owner, option: option, problem: problem}
}

type optionError struct {
	owner, option, problem string
}

func (e *optionError) Error() string {
	return "hxgrid: " + e.owner + ": option " + e.option + " " + e.problem
}

func (e *optionError) Unwrap() error { return ErrInvalidConfig }
