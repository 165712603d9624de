// Package store persists event records as content-addressed frontmatter
// files. The directory of records is the durable index: every query
// re-scans the filesystem, and any in-memory acceleration lives only for
// the duration of a single call.
package store

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/mikesmullin/slack/internal/errors"
)

const recordExt = ".md"

// CacheDirName is the reserved subdirectory for resolution caches; files
// under it are never treated as records.
const CacheDirName = "_cache"

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the storage root.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDirs creates the storage directory tree.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Join(s.dir, CacheDirName), 0o755); err != nil {
		return errors.StorageIO(err, "create storage dirs")
	}
	return nil
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.dir, hash+recordExt)
}

// Exists reports whether a record with the given hash is stored.
func (s *Store) Exists(hash string) bool {
	_, err := os.Stat(s.path(hash))
	return err == nil
}

// Put persists a new record, computing its hash and stamping _stored_id,
// _stored_at and the unread offline state. A second arrival of an existing
// hash is a no-op reported as ErrAlreadyExists; payload fields and read
// state of the stored record are never touched.
func (s *Store) Put(rec *Record) (string, error) {
	hash, err := rec.Hash()
	if err != nil {
		return "", err
	}

	if s.Exists(hash) {
		return hash, errors.AlreadyExists("record " + hash)
	}

	if err := s.EnsureDirs(); err != nil {
		return "", err
	}

	rec.StoredID = hash
	rec.StoredAt = time.Now().UTC().Format(time.RFC3339)
	rec.Offline = OfflineState{Read: false}

	data, err := EncodeRecord(rec)
	if err != nil {
		return "", err
	}

	// Write-to-temp-then-rename: a concurrent reader never observes a
	// half-written record.
	if err := atomic.WriteFile(s.path(hash), bytes.NewReader(data)); err != nil {
		return "", errors.StorageIO(err, "write record "+hash)
	}

	slog.Debug("Record stored", "hash", hash, "channel", rec.ChannelID, "ts", rec.Timestamp)
	return hash, nil
}

// Get loads a record by full hash.
func (s *Store) Get(hash string) (*Record, error) {
	data, err := os.ReadFile(s.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("record " + hash)
		}
		return nil, errors.StorageIO(err, "read record "+hash)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, errors.StorageIO(err, "parse record "+hash)
	}
	return rec, nil
}

// Hashes enumerates all stored hashes in lexical order.
func (s *Store) Hashes() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageIO(err, "scan storage dir")
	}

	var hashes []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || !strings.HasSuffix(name, recordExt) {
			continue
		}
		hashes = append(hashes, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(hashes)
	return hashes, nil
}

// Filter selects records in List. The zero value matches everything unread
// and read alike, newest first.
type Filter struct {
	// Type filters by event category: "channels", "dms", "threads",
	// "mentions", "reactions", or "" / "all" for everything.
	Type string

	// ChannelID restricts to one channel when non-empty.
	ChannelID string

	// Since drops records whose event time is before the cutoff.
	Since time.Time

	// UnreadOnly drops records already marked read.
	UnreadOnly bool

	// Ascending reverses the default newest-first ordering.
	Ascending bool
}

func (f Filter) matches(rec *Record) bool {
	if f.UnreadOnly && rec.Read() {
		return false
	}
	if f.ChannelID != "" && rec.ChannelID != f.ChannelID {
		return false
	}
	if !f.Since.IsZero() && rec.EventTime().Before(f.Since) {
		return false
	}

	switch f.Type {
	case "", "all":
		return true
	case "mentions":
		return rec.Type == TypeMention
	case "reactions":
		return rec.Type == TypeReaction
	case "threads":
		return rec.ThreadTS != ""
	case "dms":
		return strings.HasPrefix(rec.ChannelID, "D")
	case "channels":
		return !strings.HasPrefix(rec.ChannelID, "D") && rec.ThreadTS == "" && rec.Type != TypeMention
	default:
		return false
	}
}

// List re-scans the storage directory and returns the records matching the
// filter, ordered by event timestamp (newest first unless Ascending).
// Files that fail to parse are skipped, not fatal.
func (s *Store) List(f Filter) ([]*Record, error) {
	hashes, err := s.Hashes()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(hashes))
	for _, hash := range hashes {
		rec, err := s.Get(hash)
		if err != nil {
			slog.Warn("Skipping unreadable record", "hash", hash, "error", err)
			continue
		}
		if f.matches(rec) {
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].EventTime(), records[j].EventTime()
		if f.Ascending {
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return records[i].Timestamp < records[j].Timestamp
		}
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return records[i].Timestamp > records[j].Timestamp
	})
	return records, nil
}

// SetRead mutates the read flag of one stored record, stamping readAt on
// mark-read and clearing it on mark-unread. The rewrite goes through the
// same atomic-replace path as Put.
func (s *Store) SetRead(hash string, read bool) (*Record, error) {
	rec, err := s.Get(hash)
	if err != nil {
		return nil, err
	}

	rec.Offline.Read = read
	if read {
		rec.Offline.ReadAt = time.Now().UTC().Format(time.RFC3339)
	} else {
		rec.Offline.ReadAt = ""
	}

	data, err := EncodeRecord(rec)
	if err != nil {
		return nil, err
	}
	if err := atomic.WriteFile(s.path(hash), bytes.NewReader(data)); err != nil {
		return nil, errors.StorageIO(err, "rewrite record "+hash)
	}
	return rec, nil
}
