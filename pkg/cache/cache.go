// Package cache stores fetched subreddit snapshots with a freshness window.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"subsight/pkg/store"
	"subsight/pkg/types"
)

const keyPrefix = "reddit_insights_data_"

// TTL is how long a snapshot stays usable after fetch. Anything older is
// treated exactly like "never fetched".
const TTL = 30 * time.Minute

// Snapshots caches one snapshot per subreddit in a KV store.
type Snapshots struct {
	kv  store.KV
	log zerolog.Logger
	now func() time.Time
}

// NewSnapshots creates a snapshot cache over kv.
func NewSnapshots(kv store.KV, log zerolog.Logger) *Snapshots {
	return &Snapshots{
		kv:  kv,
		log: log.With().Str("component", "cache").Logger(),
		now: time.Now,
	}
}

// Get returns the cached snapshot for subreddit if it is younger than TTL.
// Stale or unreadable entries read as absent; they are shadowed by the next
// Put rather than proactively deleted.
func (s *Snapshots) Get(ctx context.Context, subreddit string) (*types.Snapshot, bool) {
	raw, ok, err := s.kv.Get(ctx, keyPrefix+subreddit)
	if err != nil {
		s.log.Warn().Err(err).Str("subreddit", subreddit).Msg("snapshot read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var snap types.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.Warn().Err(err).Str("subreddit", subreddit).Msg("cached snapshot is corrupt")
		return nil, false
	}
	if s.now().Sub(snap.FetchedAt) >= TTL {
		return nil, false
	}
	return &snap, true
}

// Put overwrites the cached snapshot for subreddit.
func (s *Snapshots) Put(ctx context.Context, subreddit string, snap *types.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, keyPrefix+subreddit, raw); err != nil {
		return fmt.Errorf("caching snapshot for r/%s: %w", subreddit, err)
	}
	return nil
}
