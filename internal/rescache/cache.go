// Package rescache is the write-through resolution cache mapping external
// entity IDs (users, channels) to profile data. Profiles are opaque
// dictionaries stored verbatim. Entries never expire: once resolved, an
// entry is authoritative until an explicit re-resolve overwrites it.
//
// The cache files are shared across invocations, so every write is a
// load-merge-atomic-replace cycle under a cross-process file lock.
// Concurrent resolves of the same entity key are last-writer-wins, which
// is acceptable because resolution is idempotent and re-resolvable.
package rescache

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/mikesmullin/slack/internal/errors"
	"github.com/mikesmullin/slack/internal/remote"
)

const (
	usersFile    = "users.yml"
	channelsFile = "channels.yml"
)

// Profile is an opaque entity profile.
type Profile = map[string]interface{}

type Cache struct {
	dir       string
	directory remote.Directory
}

// New builds a cache over dir. directory may be nil for cache-only use;
// misses then fail as ErrNotFound instead of resolving remotely.
func New(dir string, directory remote.Directory) *Cache {
	return &Cache{dir: dir, directory: directory}
}

// ResolveUser returns the cached profile for a user ID, delegating to the
// remote directory on a miss and writing the result through before
// returning it.
func (c *Cache) ResolveUser(ctx context.Context, userID string) (Profile, error) {
	return c.resolve(ctx, usersFile, userID, func(ctx context.Context) (Profile, error) {
		return c.directory.UserInfo(ctx, userID)
	})
}

// ResolveChannel is ResolveUser for channel IDs.
func (c *Cache) ResolveChannel(ctx context.Context, channelID string) (Profile, error) {
	return c.resolve(ctx, channelsFile, channelID, func(ctx context.Context) (Profile, error) {
		return c.directory.ChannelInfo(ctx, channelID)
	})
}

func (c *Cache) resolve(ctx context.Context, file, id string, fetch func(context.Context) (Profile, error)) (Profile, error) {
	entries, err := c.load(file)
	if err != nil {
		return nil, err
	}
	if profile, ok := entries[id]; ok {
		return profile, nil
	}

	if c.directory == nil {
		return nil, errors.NotFound("no cached entry for " + id)
	}

	profile, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	profile["_cached_at"] = time.Now().UTC().Format(time.RFC3339)

	if err := c.write(file, id, profile); err != nil {
		return nil, err
	}
	slog.Debug("Resolution cached", "file", file, "id", id)
	return profile, nil
}

// CachedUser returns a cached user profile without ever resolving remotely.
func (c *Cache) CachedUser(userID string) (Profile, bool) {
	entries, err := c.load(usersFile)
	if err != nil {
		return nil, false
	}
	profile, ok := entries[userID]
	return profile, ok
}

// CachedChannel returns a cached channel profile without ever resolving
// remotely.
func (c *Cache) CachedChannel(channelID string) (Profile, bool) {
	entries, err := c.load(channelsFile)
	if err != nil {
		return nil, false
	}
	profile, ok := entries[channelID]
	return profile, ok
}

// Users enumerates all cached user profiles.
func (c *Cache) Users() (map[string]Profile, error) {
	return c.load(usersFile)
}

// Channels enumerates all cached channel profiles.
func (c *Cache) Channels() (map[string]Profile, error) {
	return c.load(channelsFile)
}

// FindUsers returns cached user profiles where any scalar field contains
// the keyword, case-insensitively, sorted by real_name then name. The
// search recurses into nested maps and lists, so titles, emails and custom
// profile fields all match.
func (c *Cache) FindUsers(keyword string) ([]Profile, error) {
	entries, err := c.load(usersFile)
	if err != nil {
		return nil, err
	}

	keyword = strings.ToLower(keyword)
	var matches []Profile
	for _, profile := range entries {
		if containsKeyword(profile, keyword) {
			matches = append(matches, profile)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return userSortKey(matches[i]) < userSortKey(matches[j])
	})
	return matches, nil
}

// FindChannels returns cached channel profiles matching the keyword,
// sorted by name.
func (c *Cache) FindChannels(keyword string) ([]Profile, error) {
	entries, err := c.load(channelsFile)
	if err != nil {
		return nil, err
	}

	keyword = strings.ToLower(keyword)
	var matches []Profile
	for _, profile := range entries {
		if containsKeyword(profile, keyword) {
			matches = append(matches, profile)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return profileString(matches[i], "name") < profileString(matches[j], "name")
	})
	return matches, nil
}

// UserByName finds a cached user by exact name, real_name or display_name,
// ignoring case and a leading "@".
func (c *Cache) UserByName(name string) (Profile, bool) {
	entries, err := c.load(usersFile)
	if err != nil {
		return nil, false
	}

	name = strings.ToLower(strings.TrimPrefix(name, "@"))
	for _, profile := range entries {
		if strings.ToLower(profileString(profile, "name")) == name ||
			strings.ToLower(profileString(profile, "real_name")) == name ||
			strings.ToLower(nestedString(profile, "profile", "display_name")) == name {
			return profile, true
		}
	}
	return nil, false
}

// ChannelByName finds a cached channel by exact name or name_normalized,
// ignoring case and a leading "#".
func (c *Cache) ChannelByName(name string) (Profile, bool) {
	entries, err := c.load(channelsFile)
	if err != nil {
		return nil, false
	}

	name = strings.ToLower(strings.TrimPrefix(name, "#"))
	for _, profile := range entries {
		if strings.ToLower(profileString(profile, "name")) == name ||
			strings.ToLower(profileString(profile, "name_normalized")) == name {
			return profile, true
		}
	}
	return nil, false
}

func (c *Cache) path(file string) string {
	return filepath.Join(c.dir, file)
}

func (c *Cache) load(file string) (map[string]Profile, error) {
	data, err := os.ReadFile(c.path(file))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Profile{}, nil
		}
		return nil, errors.StorageIO(err, "read cache "+file)
	}

	entries := map[string]Profile{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.StorageIO(err, "parse cache "+file)
	}
	if entries == nil {
		entries = map[string]Profile{}
	}
	return entries, nil
}

// write merges one entry into the cache file under a cross-process lock
// and replaces the file atomically. The file is re-read inside the lock so
// concurrent resolves of different keys both survive.
func (c *Cache) write(file, id string, profile Profile) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.StorageIO(err, "create cache dir")
	}

	lock := flock.New(c.path(file) + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.StorageIO(err, "lock cache "+file)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release cache lock", "file", file, "error", err)
		}
	}()

	entries, err := c.load(file)
	if err != nil {
		return err
	}
	entries[id] = profile

	data, err := yaml.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "marshal cache "+file)
	}
	if err := atomic.WriteFile(c.path(file), bytes.NewReader(data)); err != nil {
		return errors.StorageIO(err, "write cache "+file)
	}
	return nil
}

// containsKeyword recursively searches scalar values for the keyword.
func containsKeyword(value interface{}, keyword string) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), keyword)
	case map[string]interface{}:
		for _, nested := range v {
			if containsKeyword(nested, keyword) {
				return true
			}
		}
	case []interface{}:
		for _, nested := range v {
			if containsKeyword(nested, keyword) {
				return true
			}
		}
	}
	return false
}

func profileString(p Profile, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func nestedString(p Profile, outer, inner string) string {
	if nested, ok := p[outer].(map[string]interface{}); ok {
		if v, ok := nested[inner].(string); ok {
			return v
		}
	}
	return ""
}

func userSortKey(p Profile) string {
	if name := profileString(p, "real_name"); name != "" {
		return name
	}
	return profileString(p, "name")
}
