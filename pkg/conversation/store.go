// Package conversation persists per-subreddit chat history.
//
// The whole collection is serialized into a single KV entry and rewritten on
// every mutation. That is deliberate: at single-user scale it keeps the
// store trivially consistent, and the durable record is always the complete
// collection.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"subsight/pkg/store"
	"subsight/pkg/types"
)

const storageKey = "reddit_insights_conversations"

// Store owns the durable conversation collection, one conversation per
// subreddit.
type Store struct {
	kv  store.KV
	log zerolog.Logger

	mu     sync.Mutex
	all    []types.Conversation
	loaded bool

	now   func() time.Time
	newID func() string
}

// NewStore creates a conversation store over kv. The collection is loaded
// lazily on first access.
func NewStore(kv store.KV, log zerolog.Logger) *Store {
	return &Store{
		kv:    kv,
		log:   log.With().Str("component", "conversation").Logger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// load reads the persisted collection once. Corrupt data is logged and
// dropped rather than wedging the assistant.
func (s *Store) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("loading conversations: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &s.all); err != nil {
			s.log.Warn().Err(err).Msg("stored conversations are corrupt, starting fresh")
			s.all = nil
		}
	}
	s.loaded = true
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	if s.all == nil {
		s.all = []types.Conversation{}
	}
	raw, err := json.Marshal(s.all)
	if err != nil {
		return fmt.Errorf("encoding conversations: %w", err)
	}
	if err := s.kv.Put(ctx, storageKey, raw); err != nil {
		return fmt.Errorf("saving conversations: %w", err)
	}
	return nil
}

// GetOrCreate returns the conversation bound to subreddit, creating and
// persisting an empty one on first access.
func (s *Store) GetOrCreate(ctx context.Context, subreddit string) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return types.Conversation{}, err
	}

	for _, conv := range s.all {
		if conv.Subreddit == subreddit {
			return conv, nil
		}
	}

	now := s.now()
	conv := types.Conversation{
		ID:        s.newID(),
		Subreddit: subreddit,
		Messages:  []types.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.all = append(s.all, conv)
	if err := s.persist(ctx); err != nil {
		return types.Conversation{}, err
	}
	return conv, nil
}

// Get returns the stored conversation for subreddit, if any.
func (s *Store) Get(ctx context.Context, subreddit string) (types.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return types.Conversation{}, false, err
	}
	for _, conv := range s.all {
		if conv.Subreddit == subreddit {
			return conv, true, nil
		}
	}
	return types.Conversation{}, false, nil
}

// NewMessage builds a chat message with a fresh id and timestamp.
func (s *Store) NewMessage(role types.Role, content string) types.Message {
	return types.Message{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
}

// AppendTurn returns a copy of conv with msg appended and UpdatedAt
// refreshed. Nothing is persisted; the caller follows up with Replace.
func (s *Store) AppendTurn(conv types.Conversation, msg types.Message) types.Conversation {
	out := conv
	out.Messages = make([]types.Message, 0, len(conv.Messages)+1)
	out.Messages = append(out.Messages, conv.Messages...)
	out.Messages = append(out.Messages, msg)
	out.UpdatedAt = s.now()
	return out
}

// Clear returns a copy of conv with an empty turn sequence. Clearing an
// already-empty conversation yields the same zero-turn result.
func (s *Store) Clear(conv types.Conversation) types.Conversation {
	out := conv
	out.Messages = []types.Message{}
	out.UpdatedAt = s.now()
	return out
}

// Replace swaps the stored entry with the same ID for conv and persists the
// whole collection. A conversation not yet in the collection is appended.
func (s *Store) Replace(ctx context.Context, conv types.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}

	for i := range s.all {
		if s.all[i].ID == conv.ID {
			s.all[i] = conv
			return s.persist(ctx)
		}
	}
	s.all = append(s.all, conv)
	return s.persist(ctx)
}
