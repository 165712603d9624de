// Package remote is the interface boundary to the external messaging
// service. The core never talks to Slack directly: it consumes these
// interfaces, and every implementation call is bounded by a per-call
// context timeout so no local operation can hang on the network.
package remote

import "context"

// Event is one raw inbound event as fetched from the service, before
// canonicalization. ThreadTS is empty unless the event is a reply inside a
// thread. Payload collections stay opaque.
type Event struct {
	ChannelID   string
	Timestamp   string
	ThreadTS    string
	UserID      string
	Type        string
	Text        string
	Permalink   string
	Reactions   []interface{}
	Attachments []interface{}
	Files       []interface{}
	Extra       map[string]interface{}
}

// Feed fetches batches of raw events.
type Feed interface {
	// UnreadChannels lists channel IDs with unread activity.
	UnreadChannels(ctx context.Context) ([]string, error)

	// UnreadDMs lists DM conversation IDs with unread activity.
	UnreadDMs(ctx context.Context) ([]string, error)

	// History fetches the most recent events of one conversation.
	History(ctx context.Context, channelID string, limit int) ([]Event, error)

	// Replies fetches a thread, root included.
	Replies(ctx context.Context, channelID, threadTS string, limit int) ([]Event, error)

	// Mentions searches for events addressed to the authed user.
	Mentions(ctx context.Context, limit int) ([]Event, error)
}

// Marker mirrors read-state to the service. Mirroring is advisory: callers
// treat failures as partial success, never as rollback.
type Marker interface {
	// MarkRead moves the conversation's read cursor to ts.
	MarkRead(ctx context.Context, channelID, ts string) error
}

// Directory resolves external entity IDs to profile data. Profiles are
// opaque dictionaries stored and returned verbatim by the cache layer.
type Directory interface {
	UserInfo(ctx context.Context, userID string) (map[string]interface{}, error)
	ChannelInfo(ctx context.Context, channelID string) (map[string]interface{}, error)
}

// Client is the full collaborator surface.
type Client interface {
	Feed
	Marker
	Directory
}
