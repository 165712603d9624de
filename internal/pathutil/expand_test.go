package pathutil

import (
	"path/filepath"
	"testing"
)

func TestExpandEmpty(t *testing.T) {
	got, err := Expand("   ")
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty result, got %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := Expand("~/storage")
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	want := filepath.Join(home, "storage")
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("INBOX_ROOT", "/srv/inbox")

	got, err := Expand("$INBOX_ROOT/storage")
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if got != "/srv/inbox/storage" {
		t.Errorf("Expected /srv/inbox/storage, got %q", got)
	}
}
