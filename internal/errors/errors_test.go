package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCategorySentinels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{InvalidIdentity("bad"), "ErrInvalidIdentity"},
		{NotFound("gone"), "ErrNotFound"},
		{AlreadyExists("dup"), "ErrAlreadyExists"},
		{RemoteUnavailable("down"), "ErrRemoteUnavailable"},
		{StorageIO(errors.New("disk"), "write"), "ErrStorageIO"},
		{errors.New("other"), "Unknown"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := Category(tt.err); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestAmbiguousIDError(t *testing.T) {
	err := &AmbiguousIDError{
		Key:        "b8",
		Candidates: []string{"b89c", "b8aa"},
		Total:      7,
	}

	if !IsCategory(err, ErrAmbiguousID) {
		t.Error("AmbiguousIDError must unwrap to ErrAmbiguousID")
	}

	var ambig *AmbiguousIDError
	if !errors.As(fmt.Errorf("resolve: %w", err), &ambig) {
		t.Error("AmbiguousIDError lost through wrapping")
	}

	msg := err.Error()
	if msg == "" || msg[len(msg)-3:] != "..." {
		t.Errorf("Expected truncation marker for partial candidate list: %q", msg)
	}
}

func TestMapRemoteError(t *testing.T) {
	if MapRemoteError(nil) != nil {
		t.Error("nil must map to nil")
	}

	if got := MapRemoteError(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Errorf("Cancellation must pass through, got %v", got)
	}
	if got := MapRemoteError(context.Canceled); errors.Is(got, ErrRemoteUnavailable) {
		t.Error("Cancellation must not be remapped")
	}

	if got := MapRemoteError(context.DeadlineExceeded); !errors.Is(got, ErrRemoteUnavailable) {
		t.Errorf("Timeout must map to ErrRemoteUnavailable, got %v", got)
	}

	got := MapRemoteError(errors.New("not_in_channel"))
	if !errors.Is(got, ErrRemoteUnavailable) {
		t.Errorf("API error must map to ErrRemoteUnavailable, got %v", got)
	}
	if RemoteErrorString(got) != "not_in_channel" {
		t.Errorf("Expected short code preserved, got %q", RemoteErrorString(got))
	}
}
