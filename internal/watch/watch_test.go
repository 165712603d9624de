package watch

import (
	"context"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/mikesmullin/slack/internal/config"
	"github.com/mikesmullin/slack/internal/pull"
	"github.com/mikesmullin/slack/internal/remote"
	"github.com/mikesmullin/slack/internal/store"
)

type fakeFeed struct {
	history map[string][]remote.Event
}

func (f *fakeFeed) UnreadChannels(ctx context.Context) ([]string, error) {
	channels := make([]string, 0, len(f.history))
	for id := range f.history {
		channels = append(channels, id)
	}
	return channels, nil
}

func (f *fakeFeed) UnreadDMs(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeFeed) History(ctx context.Context, channelID string, limit int) ([]remote.Event, error) {
	return f.history[channelID], nil
}

func (f *fakeFeed) Replies(ctx context.Context, channelID, threadTS string, limit int) ([]remote.Event, error) {
	return nil, nil
}

func (f *fakeFeed) Mentions(ctx context.Context, limit int) ([]remote.Event, error) {
	return nil, nil
}

func TestCompileRules(t *testing.T) {
	rules, err := CompileRules([]config.RuleConfig{
		{Name: "deploys", Pattern: `(?i)deploy`, Channel: "C0DEPLOY", Command: "notify-send deploy"},
	})
	if err != nil {
		t.Fatalf("CompileRules failed: %v", err)
	}
	if len(rules) != 1 || rules[0].Name != "deploys" {
		t.Fatalf("Unexpected rules: %+v", rules)
	}

	if _, err := CompileRules([]config.RuleConfig{{Pattern: `(`}}); err == nil {
		t.Error("Expected an error for a broken pattern")
	}
}

func TestRuleMatches(t *testing.T) {
	rule := Rule{Pattern: mustCompile(t, `(?i)deploy`), Channel: "C0DEPLOY"}

	match := &store.Record{ChannelID: "C0DEPLOY", Text: "Deploy finished"}
	if !rule.Matches(match) {
		t.Error("Expected a match on channel and text")
	}
	wrongChannel := &store.Record{ChannelID: "C0OTHER", Text: "deploy"}
	if rule.Matches(wrongChannel) {
		t.Error("Channel-scoped rule matched the wrong channel")
	}

	anyChannel := Rule{Pattern: mustCompile(t, `urgent`)}
	if !anyChannel.Matches(&store.Record{ChannelID: "C0OTHER", Text: "urgent: pager"}) {
		t.Error("Unscoped rule should match any channel")
	}
}

func TestTickRunsMatchingRuleCommands(t *testing.T) {
	s := store.New(t.TempDir())
	feed := &fakeFeed{history: map[string][]remote.Event{
		"C0DEPLOY": {
			{ChannelID: "C0DEPLOY", Timestamp: "1714000300.000100", Type: "message", Text: "deploy started"},
			{ChannelID: "C0DEPLOY", Timestamp: "1714000400.000100", Type: "message", Text: "lunch?"},
		},
	}}

	rules := []Rule{{Name: "deploys", Pattern: mustCompile(t, `deploy`), Command: "true"}}
	w := New(pull.New(feed, s), s, rules, pull.Options{Type: "channels"})

	var fired []string
	w.runCmd = func(ctx context.Context, rule Rule, rec *store.Record) error {
		fired = append(fired, rule.Name+":"+rec.Text)
		return nil
	}

	w.Tick(context.Background())

	if len(fired) != 1 || fired[0] != "deploys:deploy started" {
		t.Errorf("Expected one rule firing, got %v", fired)
	}

	// A second tick over the same feed stores nothing, so no rule fires.
	fired = nil
	w.Tick(context.Background())
	if len(fired) != 0 {
		t.Errorf("Rules fired on already-stored events: %v", fired)
	}
}

func TestExecutePassesBufferFile(t *testing.T) {
	s := store.New(t.TempDir())
	w := New(pull.New(&fakeFeed{}, s), s, nil, pull.Options{})

	out := t.TempDir() + "/copy.yml"
	rule := Rule{
		Name:    "copy",
		Pattern: mustCompile(t, `.`),
		Command: `sh -c "cp \"$SLACK_EVENT_FILE\" ` + out + `"`,
	}
	rec := &store.Record{ChannelID: "C0TEST", Timestamp: "1714000300.000100", Type: "message", Text: "hello"}

	if err := w.execute(context.Background(), rule, rec); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Command did not copy the buffer file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("Buffer file missing record text: %q", data)
	}
}

func mustCompile(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(pattern)
	if err != nil {
		t.Fatal(err)
	}
	return re
}
