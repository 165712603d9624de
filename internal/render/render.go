// Package render formats records and command results for the terminal.
// Listings are lipgloss tables; structured command results (pull stats,
// mark results) go out as YAML so they stay scriptable.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"gopkg.in/yaml.v3"

	"github.com/mikesmullin/slack/internal/rescache"
	"github.com/mikesmullin/slack/internal/store"
)

type Formatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
	unreadStyle  lipgloss.Style
}

func NewFormatter() *Formatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &Formatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
		unreadStyle: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),
	}
}

// FormatRecords renders an inbox listing. Names come from the resolution
// cache only; unresolved IDs are shown raw rather than triggering network
// lookups from a listing.
func (f *Formatter) FormatRecords(records []*store.Record, cache *rescache.Cache) string {
	if len(records) == 0 {
		return "Inbox empty"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row >= 0 && row < len(records) && !records[row].Read():
				return f.unreadStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers("ID", "", "When", "Channel", "From", "Text")

	for _, rec := range records {
		t.Row(
			rec.ShortID(),
			readMarker(rec),
			formatEventTime(rec.EventTime()),
			f.channelLabel(rec.ChannelID, cache),
			f.userLabel(string(rec.UserID), cache),
			truncateString(oneline(rec.Text), 48),
		)
	}

	return t.String()
}

// FormatRecord renders one record in full.
func (f *Formatter) FormatRecord(rec *store.Record, cache *rescache.Cache) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})

	t.Row("ID", rec.ShortID())
	t.Row("Hash", rec.StoredID)
	t.Row("Type", rec.Type)
	t.Row("Channel", f.channelLabel(rec.ChannelID, cache))
	t.Row("From", f.userLabel(string(rec.UserID), cache))
	t.Row("When", formatEventTime(rec.EventTime()))
	if string(rec.ThreadTS) != "" {
		t.Row("Thread", string(rec.ThreadTS))
	}
	if rec.Permalink != "" {
		t.Row("Link", rec.Permalink)
	}
	t.Row("Read", readState(rec))

	text := rec.Text
	if text == "" {
		text = "(no text)"
	}
	return t.String() + "\n\n" + text + "\n"
}

// Summary aggregates a set of records by type and read state.
type Summary struct {
	Total  int            `yaml:"total"`
	Unread int            `yaml:"unread"`
	ByType map[string]int `yaml:"by_type"`
}

func Summarize(records []*store.Record) Summary {
	s := Summary{ByType: map[string]int{}}
	for _, rec := range records {
		s.Total++
		if !rec.Read() {
			s.Unread++
		}
		s.ByType[rec.Type]++
	}
	return s
}

// FormatSummary renders aggregate counts per event type.
func (f *Formatter) FormatSummary(records []*store.Record) string {
	if len(records) == 0 {
		return "Inbox empty"
	}
	s := Summarize(records)

	unreadByType := map[string]int{}
	for _, rec := range records {
		if !rec.Read() {
			unreadByType[rec.Type]++
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.headerStyle
			}
			return f.cellStyle
		}).
		Headers("Type", "Total", "Unread")

	for _, eventType := range sortedKeys(s.ByType) {
		t.Row(eventType, fmt.Sprint(s.ByType[eventType]), fmt.Sprint(unreadByType[eventType]))
	}
	t.Row("all", fmt.Sprint(s.Total), fmt.Sprint(s.Unread))

	return t.String()
}

// FormatProfiles renders directory-cache entries keyed by ID. headers and
// keys pair up per column; nested keys use "profile.email" syntax.
func (f *Formatter) FormatProfiles(profiles map[string]rescache.Profile, headers []string, keys []string) string {
	if len(profiles) == 0 {
		return "Nothing cached"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(append([]string{"ID"}, headers...)...)

	for _, id := range sortedProfileIDs(profiles) {
		row := []string{id}
		for _, key := range keys {
			row = append(row, profileField(profiles[id], key))
		}
		t.Row(row...)
	}
	return t.String()
}

// YAML marshals a command result for stdout.
func YAML(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *Formatter) channelLabel(channelID string, cache *rescache.Cache) string {
	if cache != nil {
		if profile, ok := cache.CachedChannel(channelID); ok {
			if name := profileField(profile, "name"); name != "" {
				return "#" + name
			}
		}
	}
	return channelID
}

func (f *Formatter) userLabel(userID string, cache *rescache.Cache) string {
	if userID == "" {
		return "-"
	}
	if cache != nil {
		if profile, ok := cache.CachedUser(userID); ok {
			if name := profileField(profile, "real_name"); name != "" {
				return name
			}
			if name := profileField(profile, "name"); name != "" {
				return "@" + name
			}
		}
	}
	return userID
}

// profileField reads a scalar from a profile, descending one level for
// dotted keys like "profile.email".
func profileField(p rescache.Profile, key string) string {
	if outer, inner, ok := strings.Cut(key, "."); ok {
		nested, _ := p[outer].(map[string]interface{})
		if s, ok := nested[inner].(string); ok {
			return s
		}
		return ""
	}
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func readMarker(rec *store.Record) string {
	if rec.Read() {
		return " "
	}
	return "*"
}

func readState(rec *store.Record) string {
	if !rec.Read() {
		return "unread"
	}
	if rec.Offline.ReadAt != "" {
		return "read " + rec.Offline.ReadAt
	}
	return "read"
}

func formatEventTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedProfileIDs(m map[string]rescache.Profile) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
