package store

import (
	"time"

	"github.com/mikesmullin/slack/internal/identity"
)

// Event types stored in the mailbox.
const (
	TypeMessage     = "message"
	TypeMention     = "mention"
	TypeReaction    = "reaction"
	TypeThreadReply = "thread_reply"
)

// NullString marshals as YAML null when empty. The record format keeps
// absent thread/user fields present-but-null, so parsers on the other side
// of the file never have to guess whether a field was dropped.
type NullString string

func (n NullString) MarshalYAML() (interface{}, error) {
	if n == "" {
		return nil, nil
	}
	return string(n), nil
}

// OfflineState is the local-only mutable portion of a record.
type OfflineState struct {
	Read   bool   `yaml:"read"`
	ReadAt string `yaml:"readAt,omitempty"`
}

// Record is one stored unit of chat activity. Payload fields beyond the
// identity triple are opaque: the store writes them out and reads them back
// verbatim, never interpreting their contents.
type Record struct {
	ChannelID   string                 `yaml:"channel_id"`
	Timestamp   string                 `yaml:"timestamp"`
	ThreadTS    NullString             `yaml:"thread_ts"`
	UserID      NullString             `yaml:"user_id"`
	Type        string                 `yaml:"type"`
	Text        string                 `yaml:"text"`
	Permalink   string                 `yaml:"permalink"`
	Reactions   []interface{}          `yaml:"reactions"`
	Attachments []interface{}          `yaml:"attachments"`
	Files       []interface{}          `yaml:"files"`
	StoredID    string                 `yaml:"_stored_id"`
	StoredAt    string                 `yaml:"_stored_at"`
	Offline     OfflineState           `yaml:"offline"`
	Extra       map[string]interface{} `yaml:",inline"`
}

// CanonicalID derives the canonical identity string for the record.
func (r *Record) CanonicalID() (string, error) {
	return identity.Canonicalize(r.ChannelID, r.Timestamp, string(r.ThreadTS))
}

// Hash derives the content hash for the record.
func (r *Record) Hash() (string, error) {
	canonical, err := r.CanonicalID()
	if err != nil {
		return "", err
	}
	return identity.Hash(canonical), nil
}

// ShortID returns the short form of the stored hash.
func (r *Record) ShortID() string {
	return identity.Short(r.StoredID)
}

// Read reports the local read flag.
func (r *Record) Read() bool {
	return r.Offline.Read
}

// EffectiveThreadTS returns the thread root timestamp the record belongs
// to: its own thread_ts for replies, its own timestamp for roots.
func (r *Record) EffectiveThreadTS() string {
	if r.ThreadTS != "" {
		return string(r.ThreadTS)
	}
	return r.Timestamp
}

// EventTime converts the service's decimal timestamp to wall time.
// Unparseable timestamps sort before everything else.
func (r *Record) EventTime() time.Time {
	return TimestampTime(r.Timestamp)
}
