package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EncodeRecord renders a record as a frontmatter document: a YAML metadata
// header between --- fences followed by a markdown body. Only the header is
// authoritative; the body is a human-oriented rendering.
func EncodeRecord(r *Record) ([]byte, error) {
	header, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record header: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(renderBody(r))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// DecodeRecord parses a frontmatter document back into a record. The body
// is discarded.
func DecodeRecord(data []byte) (*Record, error) {
	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		return nil, fmt.Errorf("record must start with frontmatter")
	}

	endIndex := strings.Index(content, "\n---")
	if endIndex == -1 {
		return nil, fmt.Errorf("record frontmatter must end with ---")
	}

	var rec Record
	if err := yaml.Unmarshal([]byte(content[4:endIndex+1]), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record header: %w", err)
	}
	return &rec, nil
}

func renderBody(r *Record) string {
	var lines []string

	if r.ThreadTS != "" {
		lines = append(lines, fmt.Sprintf("# Thread Reply in %s", r.ChannelID))
	} else {
		lines = append(lines, fmt.Sprintf("# Message in %s", r.ChannelID))
	}
	lines = append(lines, "")

	from := string(r.UserID)
	if from == "" {
		from = "Unknown"
	}
	lines = append(lines, fmt.Sprintf("**From:** %s", from))
	lines = append(lines, fmt.Sprintf("**Channel:** %s", r.ChannelID))
	lines = append(lines, fmt.Sprintf("**Timestamp:** %s", r.Timestamp))
	if r.ThreadTS != "" {
		lines = append(lines, fmt.Sprintf("**Thread:** %s", r.ThreadTS))
	}
	if r.Permalink != "" {
		lines = append(lines, fmt.Sprintf("**Permalink:** [%s](%s)", r.Permalink, r.Permalink))
	}

	lines = append(lines, "", "---", "")
	if r.Text != "" {
		lines = append(lines, r.Text)
	} else {
		lines = append(lines, "(no text)")
	}

	if len(r.Reactions) > 0 {
		lines = append(lines, "", "---", "", "## Reactions", "")
		for _, raw := range r.Reactions {
			reaction, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			name := stringField(reaction, "name", "?")
			lines = append(lines, fmt.Sprintf("- :%s: (%v)", name, reaction["count"]))
		}
	}

	if len(r.Attachments) > 0 || len(r.Files) > 0 {
		lines = append(lines, "", "---", "", "## Attachments", "")
		for _, raw := range r.Attachments {
			att, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			title := firstStringField(att, "title", "fallback")
			if title == "" {
				title = "Attachment"
			}
			url := firstStringField(att, "image_url", "thumb_url", "from_url")
			if url != "" {
				lines = append(lines, fmt.Sprintf("- [%s](%s)", title, url))
			} else {
				lines = append(lines, fmt.Sprintf("- %s", title))
			}
		}
		for _, raw := range r.Files {
			file, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			name := firstStringField(file, "name", "title")
			if name == "" {
				name = "File"
			}
			url := firstStringField(file, "url_private", "permalink")
			switch {
			case url != "" && strings.HasPrefix(stringField(file, "mimetype", ""), "image/"):
				lines = append(lines, fmt.Sprintf("- ![%s](%s)", name, url))
			case url != "":
				lines = append(lines, fmt.Sprintf("- [%s](%s)", name, url))
			default:
				lines = append(lines, fmt.Sprintf("- %s", name))
			}
		}
	}

	return strings.Join(lines, "\n")
}

func stringField(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func firstStringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// TimestampTime converts a service decimal timestamp ("1714000000.000100")
// to wall time. Unparseable values map to the zero time so they sort last
// in the default newest-first ordering.
func TimestampTime(ts string) time.Time {
	secs := ts
	if idx := strings.Index(ts, "."); idx >= 0 {
		secs = ts[:idx]
	}
	unix, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}
