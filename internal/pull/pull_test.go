package pull

import (
	"context"
	"testing"
	"time"

	"github.com/mikesmullin/slack/internal/remote"
	"github.com/mikesmullin/slack/internal/store"
)

type fakeFeed struct {
	unreadChannels []string
	unreadDMs      []string
	history        map[string][]remote.Event
	replies        map[string][]remote.Event
	mentions       []remote.Event
	historyCalls   int
}

func (f *fakeFeed) UnreadChannels(ctx context.Context) ([]string, error) {
	return f.unreadChannels, nil
}

func (f *fakeFeed) UnreadDMs(ctx context.Context) ([]string, error) {
	return f.unreadDMs, nil
}

func (f *fakeFeed) History(ctx context.Context, channelID string, limit int) ([]remote.Event, error) {
	f.historyCalls++
	return f.history[channelID], nil
}

func (f *fakeFeed) Replies(ctx context.Context, channelID, threadTS string, limit int) ([]remote.Event, error) {
	return f.replies[channelID+":"+threadTS], nil
}

func (f *fakeFeed) Mentions(ctx context.Context, limit int) ([]remote.Event, error) {
	return f.mentions, nil
}

func ev(channelID, ts, threadTS string) remote.Event {
	return remote.Event{
		ChannelID: channelID,
		Timestamp: ts,
		ThreadTS:  threadTS,
		UserID:    "U0123456",
		Type:      "message",
		Text:      "hi",
	}
}

func TestRunStoresNewEvents(t *testing.T) {
	s := store.New(t.TempDir())
	feed := &fakeFeed{
		unreadChannels: []string{"C01"},
		history: map[string][]remote.Event{
			"C01": {
				ev("C01", "1714000300.000100", ""),
				ev("C01", "1714000200.000100", ""),
				ev("C01", "1714000300.000100", ""), // dup within batch
			},
		},
	}

	result, err := New(feed, s).Run(context.Background(), Options{Type: "channels"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.RunID == "" {
		t.Error("Expected a run id")
	}
	if result.Stats.Fetched != 3 || result.Stats.Stored != 2 || result.Stats.Skipped != 1 {
		t.Errorf("Unexpected stats: %+v", result.Stats)
	}
	if len(result.Stored) != 2 {
		t.Errorf("Expected 2 stored short ids, got %v", result.Stored)
	}

	records, err := s.List(store.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Read() {
			t.Error("Pulled records must default to unread")
		}
	}
}

func TestRunSecondPullSkipsKnown(t *testing.T) {
	s := store.New(t.TempDir())
	feed := &fakeFeed{
		unreadChannels: []string{"C01"},
		history: map[string][]remote.Event{
			"C01": {ev("C01", "1714000300.000100", "")},
		},
	}
	p := New(feed, s)

	if _, err := p.Run(context.Background(), Options{Type: "channels"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	result, err := p.Run(context.Background(), Options{Type: "channels"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stats.Stored != 0 || result.Stats.Skipped != 1 {
		t.Errorf("Expected repeat pull to skip, got %+v", result.Stats)
	}
}

func TestRunSinceCutoff(t *testing.T) {
	s := store.New(t.TempDir())
	feed := &fakeFeed{
		unreadChannels: []string{"C01"},
		history: map[string][]remote.Event{
			"C01": {
				ev("C01", "1714000300.000100", ""),
				ev("C01", "1600000000.000100", ""), // ancient
			},
		},
	}

	since := time.Unix(1714000000, 0).UTC()
	result, err := New(feed, s).Run(context.Background(), Options{Type: "channels", Since: since})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stats.Stored != 1 {
		t.Errorf("Expected the ancient event dropped, got %+v", result.Stats)
	}
}

func TestRunSingleChannelBypassesDiscovery(t *testing.T) {
	s := store.New(t.TempDir())
	feed := &fakeFeed{
		unreadChannels: []string{"C01", "C02"},
		history: map[string][]remote.Event{
			"C03": {ev("C03", "1714000300.000100", "")},
		},
	}

	result, err := New(feed, s).Run(context.Background(), Options{ChannelID: "C03"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if feed.historyCalls != 1 {
		t.Errorf("Expected exactly one history call, got %d", feed.historyCalls)
	}
	if result.Stats.Stored != 1 {
		t.Errorf("Unexpected stats: %+v", result.Stats)
	}
}

func TestRunThreadsSweepsStoredThreads(t *testing.T) {
	s := store.New(t.TempDir())

	// A reply already stored; the sweep should fetch the rest of its thread.
	rec := RecordFromEvent(ev("C01", "1714000200.000100", "1714000100.000100"))
	if _, err := s.Put(rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	feed := &fakeFeed{
		replies: map[string][]remote.Event{
			"C01:1714000100.000100": {
				ev("C01", "1714000100.000100", ""),
				ev("C01", "1714000200.000100", "1714000100.000100"), // known
				ev("C01", "1714000300.000100", "1714000100.000100"),
			},
		},
	}

	result, err := New(feed, s).Run(context.Background(), Options{Type: "threads"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stats.Stored != 2 || result.Stats.Skipped != 1 {
		t.Errorf("Unexpected stats: %+v", result.Stats)
	}
}

func TestRunMentions(t *testing.T) {
	s := store.New(t.TempDir())
	mention := ev("C09", "1714000300.000100", "")
	mention.Type = store.TypeMention
	feed := &fakeFeed{mentions: []remote.Event{mention}}

	result, err := New(feed, s).Run(context.Background(), Options{Type: "mentions"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stats.Stored != 1 {
		t.Errorf("Unexpected stats: %+v", result.Stats)
	}

	records, err := s.List(store.Filter{Type: "mentions"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected mention record, got %d", len(records))
	}
}
