// Package config manages the persisted API credentials.
//
// Credentials live in the injected key-value store and can be overlaid from
// SUBSIGHT_* environment variables. There are no compiled-in defaults: until
// the user supplies all three secrets the assistant stays in a
// not-configured state and refuses network operations.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"subsight/pkg/store"
	"subsight/pkg/types"
)

const storageKey = "reddit_insights_config"

// EnvPrefix is the prefix for environment overrides, e.g.
// SUBSIGHT_REDDIT_CLIENT_ID.
const EnvPrefix = "SUBSIGHT_"

// Store loads and saves credentials through an injected KV.
type Store struct {
	kv  store.KV
	log zerolog.Logger
}

// NewStore creates a credential store over kv.
func NewStore(kv store.KV, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log.With().Str("component", "config").Logger()}
}

// Load returns the persisted credentials. When nothing is stored (or the
// stored record is unreadable) it returns zero credentials, not an error:
// "never configured" is a normal state.
func (s *Store) Load(ctx context.Context) (types.Credentials, error) {
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return types.Credentials{}, fmt.Errorf("loading config: %w", err)
	}
	if !ok {
		return types.Credentials{}, nil
	}
	var creds types.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		s.log.Warn().Err(err).Msg("stored config is corrupt, ignoring")
		return types.Credentials{}, nil
	}
	return creds, nil
}

// Save persists creds, overwriting whatever was stored before. Called on
// every credential change.
func (s *Store) Save(ctx context.Context, creds types.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := s.kv.Put(ctx, storageKey, raw); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// FromEnv overlays credentials found in the environment on top of base.
// Recognized variables: SUBSIGHT_REDDIT_CLIENT_ID, SUBSIGHT_REDDIT_CLIENT_SECRET
// and SUBSIGHT_GEMINI_API_KEY. Empty variables leave base values untouched.
func FromEnv(base types.Credentials) types.Credentials {
	k := koanf.New(".")
	_ = k.Load(env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	}), nil)

	out := base
	if v := k.String("reddit_client_id"); v != "" {
		out.RedditClientID = v
	}
	if v := k.String("reddit_client_secret"); v != "" {
		out.RedditClientSecret = v
	}
	if v := k.String("gemini_api_key"); v != "" {
		out.GeminiAPIKey = v
	}
	return out
}
