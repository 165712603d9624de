package store

import (
	"strings"

	"github.com/mikesmullin/slack/internal/errors"
	"github.com/mikesmullin/slack/internal/identity"
)

// MaxAmbiguousCandidates bounds how many colliding hashes an ambiguous-id
// error enumerates.
const MaxAmbiguousCandidates = 5

// ResolveKey maps a user-supplied key to exactly one stored hash. The key
// may be a full hash, any non-empty hex prefix, or a raw identity string
// (CHANNEL:TS[@THREAD_TS]). Identity strings hash directly to an exact
// lookup; anything else is matched git-style as a prefix over all stored
// hashes.
func (s *Store) ResolveKey(key string) (string, error) {
	key = strings.TrimSuffix(strings.TrimSpace(key), recordExt)
	if key == "" {
		return "", errors.InvalidIdentity("empty key")
	}

	if identity.IsIdentity(key) {
		channelID, timestamp, threadTS, err := identity.Parse(key)
		if err != nil {
			return "", err
		}
		hash, err := identity.HashEvent(channelID, timestamp, threadTS)
		if err != nil {
			return "", err
		}
		if !s.Exists(hash) {
			return "", errors.NotFound("no record for identity " + key)
		}
		return hash, nil
	}

	hashes, err := s.Hashes()
	if err != nil {
		return "", err
	}

	var matches []string
	for _, hash := range hashes {
		if strings.HasPrefix(hash, key) {
			matches = append(matches, hash)
		}
	}

	switch len(matches) {
	case 0:
		return "", errors.NotFound("no record matching " + key)
	case 1:
		return matches[0], nil
	default:
		candidates := matches
		if len(candidates) > MaxAmbiguousCandidates {
			candidates = candidates[:MaxAmbiguousCandidates]
		}
		return "", &errors.AmbiguousIDError{
			Key:        key,
			Candidates: candidates,
			Total:      len(matches),
		}
	}
}
