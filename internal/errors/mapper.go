package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MapRemoteError folds errors returned by the remote messaging service into
// the local taxonomy. Remote failures during an otherwise-successful local
// mutation are advisory, so everything that is not a context cancellation
// collapses into ErrRemoteUnavailable with the Slack error string preserved.
func MapRemoteError(err error) error {
	if err == nil {
		return nil
	}

	// Propagate context cancellation as-is
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("remote call timed out: %w", ErrRemoteUnavailable)
	}

	return fmt.Errorf("%s: %w", err.Error(), ErrRemoteUnavailable)
}

// Category returns the taxonomy category name for an error.
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidIdentity):
		return "ErrInvalidIdentity"
	case errors.Is(err, ErrNotFound):
		return "ErrNotFound"
	case errors.Is(err, ErrAmbiguousID):
		return "ErrAmbiguousID"
	case errors.Is(err, ErrAlreadyExists):
		return "ErrAlreadyExists"
	case errors.Is(err, ErrRemoteUnavailable):
		return "ErrRemoteUnavailable"
	case errors.Is(err, ErrStorageIO):
		return "ErrStorageIO"
	default:
		return "Unknown"
	}
}

// RemoteErrorString extracts the short Slack API error code ("not_in_channel",
// "ratelimited") from a wrapped remote error for result reporting.
func RemoteErrorString(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.Index(msg, ": remote unavailable"); idx > 0 {
		msg = msg[:idx]
	}
	return msg
}
