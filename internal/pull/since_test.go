package pull

import (
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"iso date", "2026-08-01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), false},
		{"yesterday", "yesterday", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), false},
		{"yesterday upper", "Yesterday", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), false},
		{"days ago", "3 days ago", time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), false},
		{"one day ago", "1 day ago", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), false},
		{"bad ago", "three days ago", time.Time{}, true},
		{"garbage", "tuesday", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSinceAt(tt.input, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSinceAt failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
