package main

import (
	"fmt"

	"github.com/mikesmullin/slack/internal/config"
	"github.com/mikesmullin/slack/internal/remote"
	"github.com/mikesmullin/slack/internal/rescache"
	"github.com/mikesmullin/slack/internal/store"
)

// openStore opens the local mailbox, creating directories on first use.
func openStore() (*store.Store, error) {
	s := store.New(cfg.Storage.Root)
	if err := s.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return s, nil
}

// newClient builds the remote client. Commands that can run fully offline
// should not call this.
func newClient() (*remote.SlackClient, error) {
	if cfg.Remote.Token == "" {
		return nil, fmt.Errorf("no token configured: set remote.token or SLACK_TOKEN")
	}
	timeout, err := config.DurationOrDefault(cfg.Remote.Timeout, config.DefaultRemoteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid remote.timeout: %w", err)
	}
	return remote.NewSlackClient(cfg.Remote.Token, timeout), nil
}

// newCache builds the resolution cache. With online false the cache serves
// hits only and misses fail locally instead of reaching out.
func newCache(online bool) (*rescache.Cache, error) {
	var directory remote.Directory
	if online {
		client, err := newClient()
		if err != nil {
			return nil, err
		}
		directory = client
	}
	return rescache.New(cfg.CacheDir(), directory), nil
}

// offlineCache never errors: it serves whatever is already on disk.
func offlineCache() *rescache.Cache {
	return rescache.New(cfg.CacheDir(), nil)
}
