// Package identity derives canonical identity strings and content hashes
// for chat events. The canonical form is "CHANNEL:TS" for flat events and
// "CHANNEL:TS@THREAD_TS" for thread replies; the storage key is the SHA-1
// of the canonical form, rendered as 40 lowercase hex characters.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/mikesmullin/slack/internal/errors"
)

// ShortIDLen is the number of hex characters used for human-friendly
// partial references.
const ShortIDLen = 6

// Canonicalize produces the canonical identity string for an event.
// threadTS may be empty for events outside a thread.
func Canonicalize(channelID, timestamp, threadTS string) (string, error) {
	if strings.TrimSpace(channelID) == "" {
		return "", errors.InvalidIdentity("channel id is empty")
	}
	if strings.TrimSpace(timestamp) == "" {
		return "", errors.InvalidIdentity("timestamp is empty")
	}
	if threadTS != "" {
		return channelID + ":" + timestamp + "@" + threadTS, nil
	}
	return channelID + ":" + timestamp, nil
}

// Hash digests a canonical identity string into the 40-hex storage key.
func Hash(canonicalID string) string {
	sum := sha1.Sum([]byte(canonicalID))
	return hex.EncodeToString(sum[:])
}

// HashEvent is Canonicalize followed by Hash.
func HashEvent(channelID, timestamp, threadTS string) (string, error) {
	canonical, err := Canonicalize(channelID, timestamp, threadTS)
	if err != nil {
		return "", err
	}
	return Hash(canonical), nil
}

// Short returns the short form of a content hash.
func Short(contentHash string) string {
	if len(contentHash) <= ShortIDLen {
		return contentHash
	}
	return contentHash[:ShortIDLen]
}

// Parse splits an identity string back into its parts. It reports
// ErrInvalidIdentity for strings that are not in identity form; callers
// use this to distinguish identity keys from hex prefixes.
func Parse(s string) (channelID, timestamp, threadTS string, err error) {
	base := s
	if at := strings.Index(s, "@"); at >= 0 {
		base = s[:at]
		threadTS = s[at+1:]
		if threadTS == "" {
			return "", "", "", errors.InvalidIdentity("empty thread timestamp in " + s)
		}
	}

	colon := strings.Index(base, ":")
	if colon < 0 {
		return "", "", "", errors.InvalidIdentity("missing ':' in " + s)
	}

	channelID = base[:colon]
	timestamp = base[colon+1:]
	if channelID == "" || timestamp == "" {
		return "", "", "", errors.InvalidIdentity("incomplete identity " + s)
	}
	return channelID, timestamp, threadTS, nil
}

// IsIdentity reports whether a key looks like an identity string rather
// than a hash prefix.
func IsIdentity(key string) bool {
	return strings.Contains(key, ":")
}
