package store

import (
	"errors"
	"testing"

	apperrors "github.com/mikesmullin/slack/internal/errors"
)

func TestResolveKeyFullHashAndPrefix(t *testing.T) {
	s := New(t.TempDir())

	hash, err := s.Put(testRecord("C0123456789", "1714000000.000100", ""))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.ResolveKey(hash)
	if err != nil {
		t.Fatalf("ResolveKey full hash failed: %v", err)
	}
	if got != hash {
		t.Errorf("Expected %s, got %s", hash, got)
	}

	got, err = s.ResolveKey(hash[:6])
	if err != nil {
		t.Fatalf("ResolveKey prefix failed: %v", err)
	}
	if got != hash {
		t.Errorf("Expected %s, got %s", hash, got)
	}

	// git-style: trailing .md is stripped
	got, err = s.ResolveKey(hash + ".md")
	if err != nil {
		t.Fatalf("ResolveKey with extension failed: %v", err)
	}
	if got != hash {
		t.Errorf("Expected %s, got %s", hash, got)
	}
}

func TestResolveKeyIdentityString(t *testing.T) {
	s := New(t.TempDir())

	hash, err := s.Put(testRecord("C0123456789", "1714000000.000200", "1714000000.000100"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.ResolveKey("C0123456789:1714000000.000200@1714000000.000100")
	if err != nil {
		t.Fatalf("ResolveKey identity failed: %v", err)
	}
	if got != hash {
		t.Errorf("Expected %s, got %s", hash, got)
	}

	_, err = s.ResolveKey("C0123456789:9999999999.000000")
	if !apperrors.IsCategory(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown identity, got %v", err)
	}

	_, err = s.ResolveKey("C0123456789:")
	if !apperrors.IsCategory(err, apperrors.ErrInvalidIdentity) {
		t.Errorf("Expected ErrInvalidIdentity, got %v", err)
	}
}

func TestResolveKeyAmbiguous(t *testing.T) {
	s := New(t.TempDir())

	var first string
	// Store events until two hashes share a first hex character. SHA-1
	// spreads uniformly, so a handful of puts is always enough.
	var prefix string
	hashes := map[byte][]string{}
	for i := 0; i < 40 && prefix == ""; i++ {
		rec := testRecord("C0123456789", "1714000000.00"+string(rune('0'+i%10))+string(rune('0'+i/10)), "")
		hash, err := s.Put(rec)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		hashes[hash[0]] = append(hashes[hash[0]], hash)
		if len(hashes[hash[0]]) == 2 {
			prefix = string(hash[0])
			first = hash
		}
	}
	if prefix == "" {
		t.Fatal("Could not construct colliding prefix")
	}

	_, err := s.ResolveKey(prefix)
	if !apperrors.IsCategory(err, apperrors.ErrAmbiguousID) {
		t.Fatalf("Expected ErrAmbiguousID, got %v", err)
	}

	var ambig *apperrors.AmbiguousIDError
	if !errors.As(err, &ambig) {
		t.Fatalf("Expected AmbiguousIDError, got %T", err)
	}
	if ambig.Total < 2 {
		t.Errorf("Expected at least 2 colliding hashes, got %d", ambig.Total)
	}
	if len(ambig.Candidates) == 0 || len(ambig.Candidates) > MaxAmbiguousCandidates {
		t.Errorf("Candidate sample out of bounds: %d", len(ambig.Candidates))
	}

	// A longer unique prefix resolves.
	got, err := s.ResolveKey(first[:12])
	if err != nil {
		t.Fatalf("ResolveKey long prefix failed: %v", err)
	}
	if got != first {
		t.Errorf("Expected %s, got %s", first, got)
	}
}

func TestResolveKeyEdgeCases(t *testing.T) {
	s := New(t.TempDir())

	if _, err := s.ResolveKey(""); !apperrors.IsCategory(err, apperrors.ErrInvalidIdentity) {
		t.Errorf("Expected ErrInvalidIdentity for empty key, got %v", err)
	}
	if _, err := s.ResolveKey("   "); !apperrors.IsCategory(err, apperrors.ErrInvalidIdentity) {
		t.Errorf("Expected ErrInvalidIdentity for blank key, got %v", err)
	}
	if _, err := s.ResolveKey("b89c"); !apperrors.IsCategory(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on empty store, got %v", err)
	}
}
