// Package readstate mutates the local read/unread flag of stored records,
// with thread and channel fan-out. Every mutation is two-phase: the local
// write is authoritative, the remote mirror is advisory and surfaced as a
// result flag rather than an error.
package readstate

import (
	"context"
	"log/slog"

	"github.com/mikesmullin/slack/internal/errors"
	"github.com/mikesmullin/slack/internal/remote"
	"github.com/mikesmullin/slack/internal/store"
)

// Result reports the outcome of a mutation. SlackError carries the short
// remote error code when mirroring failed; MarkedOnSlack stays false for
// offline-only mutations and for mark-unread, which is never propagated.
type Result struct {
	OK            bool     `yaml:"ok"`
	ChannelID     string   `yaml:"channel_id,omitempty"`
	ThreadTS      string   `yaml:"thread_ts,omitempty"`
	MarkedCount   int      `yaml:"marked_count"`
	MarkedIDs     []string `yaml:"marked_ids"`
	MarkedOnSlack bool     `yaml:"marked_read_on_slack"`
	SlackError    string   `yaml:"slack_error,omitempty"`
}

type Manager struct {
	store  *store.Store
	marker remote.Marker
}

// New builds a manager. marker may be nil, in which case every mutation
// behaves as offline-only.
func New(s *store.Store, marker remote.Marker) *Manager {
	return &Manager{store: s, marker: marker}
}

// MarkRead marks a single record read by any resolvable key, then mirrors
// the read cursor remotely unless offlineOnly.
func (m *Manager) MarkRead(ctx context.Context, key string, offlineOnly bool) (*Result, error) {
	hash, err := m.store.ResolveKey(key)
	if err != nil {
		return nil, err
	}

	rec, err := m.store.SetRead(hash, true)
	if err != nil {
		return nil, err
	}

	result := &Result{
		OK:          true,
		ChannelID:   rec.ChannelID,
		MarkedCount: 1,
		MarkedIDs:   []string{rec.ShortID()},
	}
	m.mirror(ctx, result, rec.ChannelID, rec.Timestamp, offlineOnly)
	return result, nil
}

// MarkUnread marks a single record unread. Unread state is local-only and
// never propagated to the remote service.
func (m *Manager) MarkUnread(key string) (*Result, error) {
	hash, err := m.store.ResolveKey(key)
	if err != nil {
		return nil, err
	}

	rec, err := m.store.SetRead(hash, false)
	if err != nil {
		return nil, err
	}

	return &Result{
		OK:          true,
		ChannelID:   rec.ChannelID,
		MarkedCount: 1,
		MarkedIDs:   []string{rec.ShortID()},
	}, nil
}

// MarkThread marks every record in the resolved record's thread read. The
// thread root timestamp is the record's thread_ts, falling back to its own
// timestamp when the record is itself a root; a record with no thread
// context degrades gracefully to a single-record group. A stored record
// belongs to the fan-out when it shares the channel and either its
// thread_ts or its own timestamp equals the root timestamp, so roots whose
// replies arrived in separate pulls are swept in too.
func (m *Manager) MarkThread(ctx context.Context, key string, offlineOnly bool) (*Result, error) {
	hash, err := m.store.ResolveKey(key)
	if err != nil {
		return nil, err
	}
	rec, err := m.store.Get(hash)
	if err != nil {
		return nil, err
	}

	threadTS := rec.EffectiveThreadTS()
	members, err := m.store.List(store.Filter{ChannelID: rec.ChannelID})
	if err != nil {
		return nil, err
	}

	result := &Result{
		OK:        true,
		ChannelID: rec.ChannelID,
		ThreadTS:  threadTS,
	}
	for _, member := range members {
		if string(member.ThreadTS) != threadTS && member.Timestamp != threadTS {
			continue
		}
		marked, err := m.store.SetRead(member.StoredID, true)
		if err != nil {
			return nil, err
		}
		result.MarkedCount++
		result.MarkedIDs = append(result.MarkedIDs, marked.ShortID())
	}

	m.mirror(ctx, result, rec.ChannelID, threadTS, offlineOnly)
	return result, nil
}

// MarkChannel marks every stored record of one channel read and mirrors
// the remote read cursor at the latest member timestamp.
func (m *Manager) MarkChannel(ctx context.Context, channelID string, offlineOnly bool) (*Result, error) {
	members, err := m.store.List(store.Filter{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, errors.NotFound("no records for channel " + channelID)
	}

	result := &Result{
		OK:        true,
		ChannelID: channelID,
	}
	latest := ""
	for _, member := range members {
		marked, err := m.store.SetRead(member.StoredID, true)
		if err != nil {
			return nil, err
		}
		result.MarkedCount++
		result.MarkedIDs = append(result.MarkedIDs, marked.ShortID())
		if member.Timestamp > latest {
			latest = member.Timestamp
		}
	}

	m.mirror(ctx, result, channelID, latest, offlineOnly)
	return result, nil
}

// mirror performs the advisory remote phase. Failure downgrades to a
// result flag; the local mutation is already durable and never rolled back.
func (m *Manager) mirror(ctx context.Context, result *Result, channelID, ts string, offlineOnly bool) {
	if offlineOnly || m.marker == nil {
		return
	}

	if err := m.marker.MarkRead(ctx, channelID, ts); err != nil {
		result.SlackError = errors.RemoteErrorString(err)
		slog.Warn("Remote read-state mirror failed",
			"channel", channelID,
			"ts", ts,
			"error", err,
		)
		return
	}
	result.MarkedOnSlack = true
}
