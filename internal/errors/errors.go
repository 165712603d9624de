package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for different categories
var (
	// ErrInvalidIdentity - malformed channel/timestamp input, rejected before hashing
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrNotFound - key or prefix matches nothing in local storage
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousID - prefix matches two or more stored hashes; caller must supply a longer key
	ErrAmbiguousID = errors.New("ambiguous id")

	// ErrAlreadyExists - dedup no-op, informational rather than a failure
	ErrAlreadyExists = errors.New("already exists")

	// ErrRemoteUnavailable - remote collaborator call failed or timed out; local state is unaffected
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrStorageIO - filesystem failure, fatal for the invocation
	ErrStorageIO = errors.New("storage io")
)

// AmbiguousIDError reports a prefix that matched more than one stored hash.
// Candidates holds a bounded, sorted sample of the colliding full hashes so
// the caller can retry with a longer key.
type AmbiguousIDError struct {
	Key        string
	Candidates []string
	Total      int
}

func (e *AmbiguousIDError) Error() string {
	suffix := ""
	if e.Total > len(e.Candidates) {
		suffix = ", ..."
	}
	return fmt.Sprintf("ambiguous id %q matches %d records: %s%s",
		e.Key, e.Total, strings.Join(e.Candidates, ", "), suffix)
}

func (e *AmbiguousIDError) Unwrap() error {
	return ErrAmbiguousID
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// InvalidIdentity wraps a message as an invalid identity error.
func InvalidIdentity(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidIdentity)
}

// NotFound wraps a message as a not found error.
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// AlreadyExists wraps a message as an already exists report.
func AlreadyExists(message string) error {
	return fmt.Errorf("%s: %w", message, ErrAlreadyExists)
}

// RemoteUnavailable wraps a message as a remote unavailable error.
func RemoteUnavailable(message string) error {
	return fmt.Errorf("%s: %w", message, ErrRemoteUnavailable)
}

// StorageIO wraps a filesystem error, keeping the cause in the chain.
func StorageIO(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %v: %w", message, err, ErrStorageIO)
}
