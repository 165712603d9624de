package render

import (
	"strings"
	"testing"

	"github.com/mikesmullin/slack/internal/rescache"
	"github.com/mikesmullin/slack/internal/store"
)

func rec(channelID, ts, eventType string, read bool) *store.Record {
	return &store.Record{
		ChannelID: channelID,
		Timestamp: ts,
		UserID:    "U0123456",
		Type:      eventType,
		Text:      "hello there",
		StoredID:  "0123456789abcdef0123456789abcdef01234567",
		Offline:   store.OfflineState{Read: read},
	}
}

func TestSummarize(t *testing.T) {
	records := []*store.Record{
		rec("C01", "1714000100.000100", store.TypeMessage, false),
		rec("C01", "1714000200.000100", store.TypeMessage, true),
		rec("C01", "1714000300.000100", store.TypeMention, false),
	}

	s := Summarize(records)
	if s.Total != 3 || s.Unread != 2 {
		t.Errorf("Unexpected totals: %+v", s)
	}
	if s.ByType[store.TypeMessage] != 2 || s.ByType[store.TypeMention] != 1 {
		t.Errorf("Unexpected by_type: %v", s.ByType)
	}
}

func TestFormatRecordsEmpty(t *testing.T) {
	out := NewFormatter().FormatRecords(nil, nil)
	if out != "Inbox empty" {
		t.Errorf("Unexpected empty output: %q", out)
	}
}

func TestFormatRecordsShowsShortIDAndText(t *testing.T) {
	out := NewFormatter().FormatRecords([]*store.Record{
		rec("C01", "1714000100.000100", store.TypeMessage, false),
	}, nil)

	if !strings.Contains(out, "012345") {
		t.Errorf("Listing missing short id:\n%s", out)
	}
	if !strings.Contains(out, "hello there") {
		t.Errorf("Listing missing text:\n%s", out)
	}
}

func TestFormatRecordShowsReadState(t *testing.T) {
	r := rec("C01", "1714000100.000100", store.TypeMessage, true)
	r.Offline.ReadAt = "2026-08-30T10:00:00Z"

	out := NewFormatter().FormatRecord(r, nil)
	if !strings.Contains(out, "read 2026-08-30T10:00:00Z") {
		t.Errorf("View missing read state:\n%s", out)
	}
	if !strings.Contains(out, "hello there") {
		t.Errorf("View missing body:\n%s", out)
	}
}

func TestProfileField(t *testing.T) {
	p := rescache.Profile{
		"name": "alice",
		"profile": map[string]interface{}{
			"email": "alice@example.com",
		},
	}

	if got := profileField(p, "name"); got != "alice" {
		t.Errorf("name = %q", got)
	}
	if got := profileField(p, "profile.email"); got != "alice@example.com" {
		t.Errorf("profile.email = %q", got)
	}
	if got := profileField(p, "missing"); got != "" {
		t.Errorf("missing = %q", got)
	}
}

func TestYAMLResult(t *testing.T) {
	out, err := YAML(map[string]int{"stored": 2})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "stored: 2") {
		t.Errorf("Unexpected yaml: %q", out)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncateString("0123456789", 8); got != "01234..." {
		t.Errorf("truncate = %q", got)
	}
}
