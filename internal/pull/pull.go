// Package pull fetches fresh event batches from the remote feed,
// deduplicates them against the local store, and persists what is new.
package pull

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mikesmullin/slack/internal/dedup"
	"github.com/mikesmullin/slack/internal/identity"
	"github.com/mikesmullin/slack/internal/remote"
	"github.com/mikesmullin/slack/internal/store"
)

// Options select what a pull fetches.
type Options struct {
	// Since is the cutoff; events older than it are dropped before dedup.
	Since time.Time

	// Limit bounds how many events are fetched per conversation and per
	// category.
	Limit int

	// Type restricts the pull to one category: "channels", "dms",
	// "threads", "mentions", or "" / "all".
	Type string

	// ChannelID, when set, pulls only that conversation and ignores Type.
	ChannelID string
}

// Result is what a pull reports.
type Result struct {
	RunID  string      `yaml:"run_id"`
	Stats  dedup.Stats `yaml:",inline"`
	Stored []string    `yaml:"stored_ids,omitempty"`
	Errors []string    `yaml:"errors,omitempty"`
}

type Puller struct {
	feed  remote.Feed
	store *store.Store
}

func New(feed remote.Feed, s *store.Store) *Puller {
	return &Puller{feed: feed, store: s}
}

// Run performs one pull. Per-category fetch failures are collected into
// the result rather than aborting the whole pull; storage failures are
// fatal.
func (p *Puller) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	result := &Result{RunID: ulid.Make().String()}
	d := dedup.New(p.store)

	slog.Info("Pull started", "run", result.RunID, "since", opts.Since.Format("2006-01-02"), "type", orAll(opts.Type))

	if opts.ChannelID != "" {
		p.pullConversation(ctx, d, result, opts.ChannelID, opts)
	} else {
		fetchAll := opts.Type == "" || opts.Type == "all"
		if fetchAll || opts.Type == "channels" {
			p.pullCategory(ctx, d, result, opts, p.feed.UnreadChannels)
		}
		if fetchAll || opts.Type == "dms" {
			p.pullCategory(ctx, d, result, opts, p.feed.UnreadDMs)
		}
		if fetchAll || opts.Type == "threads" {
			p.pullThreads(ctx, d, result, opts)
		}
		if fetchAll || opts.Type == "mentions" {
			p.pullMentions(ctx, d, result, opts)
		}
	}

	result.Stats = d.Stats()
	slog.Info("Pull finished",
		"run", result.RunID,
		"stored", result.Stats.Stored,
		"skipped", result.Stats.Skipped,
		"fetched_total", result.Stats.Fetched,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (p *Puller) pullCategory(ctx context.Context, d *dedup.Deduplicator, result *Result, opts Options, list func(context.Context) ([]string, error)) {
	channels, err := list(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	if len(channels) > opts.Limit {
		channels = channels[:opts.Limit]
	}
	for _, channelID := range channels {
		p.pullConversation(ctx, d, result, channelID, opts)
	}
}

func (p *Puller) pullConversation(ctx context.Context, d *dedup.Deduplicator, result *Result, channelID string, opts Options) {
	events, err := p.feed.History(ctx, channelID, opts.Limit)
	if err != nil {
		result.Errors = append(result.Errors, "history "+channelID+": "+err.Error())
		return
	}
	p.storeBatch(d, result, events, opts.Since)
}

// pullThreads sweeps thread replies for every stored record that is a
// thread member, so replies that arrived after the last pull of the
// channel history are not missed.
func (p *Puller) pullThreads(ctx context.Context, d *dedup.Deduplicator, result *Result, opts Options) {
	records, err := p.store.List(store.Filter{Type: "threads"})
	if err != nil {
		result.Errors = append(result.Errors, "scan threads: "+err.Error())
		return
	}

	seen := map[string]struct{}{}
	count := 0
	for _, rec := range records {
		if count >= opts.Limit {
			break
		}
		key := rec.ChannelID + ":" + rec.EffectiveThreadTS()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		count++

		events, err := p.feed.Replies(ctx, rec.ChannelID, rec.EffectiveThreadTS(), opts.Limit)
		if err != nil {
			result.Errors = append(result.Errors, "replies "+key+": "+err.Error())
			continue
		}
		p.storeBatch(d, result, events, opts.Since)
	}
}

func (p *Puller) pullMentions(ctx context.Context, d *dedup.Deduplicator, result *Result, opts Options) {
	events, err := p.feed.Mentions(ctx, opts.Limit)
	if err != nil {
		result.Errors = append(result.Errors, "mentions: "+err.Error())
		return
	}
	p.storeBatch(d, result, events, opts.Since)
}

func (p *Puller) storeBatch(d *dedup.Deduplicator, result *Result, events []remote.Event, since time.Time) {
	if !since.IsZero() {
		cut := events[:0:0]
		for _, ev := range events {
			if store.TimestampTime(ev.Timestamp).Before(since) {
				continue
			}
			cut = append(cut, ev)
		}
		events = cut
	}

	toStore, _ := d.Partition(events)
	for _, ev := range toStore {
		rec := RecordFromEvent(ev)
		hash, err := p.store.Put(rec)
		if err != nil {
			// Partition already filtered known hashes; a put failure here
			// is a real storage problem.
			result.Errors = append(result.Errors, "store: "+err.Error())
			continue
		}
		result.Stored = append(result.Stored, identity.Short(hash))
		slog.Debug("Stored event", "short", identity.Short(hash), "channel", ev.ChannelID)
	}
}

// RecordFromEvent converts a raw fetched event to a storable record.
func RecordFromEvent(ev remote.Event) *store.Record {
	eventType := ev.Type
	if eventType == "" {
		eventType = store.TypeMessage
	}
	extra := ev.Extra
	if len(extra) == 0 {
		extra = nil
	}
	return &store.Record{
		ChannelID:   ev.ChannelID,
		Timestamp:   ev.Timestamp,
		ThreadTS:    store.NullString(ev.ThreadTS),
		UserID:      store.NullString(ev.UserID),
		Type:        eventType,
		Text:        ev.Text,
		Permalink:   ev.Permalink,
		Reactions:   ev.Reactions,
		Attachments: ev.Attachments,
		Files:       ev.Files,
		Extra:       extra,
	}
}

func orAll(t string) string {
	if t == "" {
		return "all"
	}
	return t
}
