// Package assistant wires the fetcher, cache, generator and stores into one
// user session. It is the only layer that knows about all of them, and the
// only one allowed to produce user-facing error state.
package assistant

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"subsight/pkg/cache"
	"subsight/pkg/conversation"
	"subsight/pkg/insight"
	"subsight/pkg/types"
)

// ErrBusy is returned when an operation of the same kind is already in
// flight. The guard is explicit so it holds for non-interactive callers,
// not just for a disabled input field.
var ErrBusy = errors.New("another operation is in flight")

// ErrNoSubreddit is returned when a question or clear arrives before any
// subreddit is bound.
var ErrNoSubreddit = errors.New("no subreddit selected")

// Fetcher retrieves subreddit content.
type Fetcher interface {
	ValidateSubreddit(ctx context.Context, name string) bool
	FetchSnapshot(ctx context.Context, name string) (*types.Snapshot, error)
}

// Generator produces an answer from a question, a snapshot and the
// conversation so far.
type Generator interface {
	Answer(ctx context.Context, question string, snap *types.Snapshot, history []types.Message) (string, error)
}

// Session drives one user's interaction: a single active subreddit, its
// snapshot, and its conversation. All state transitions go through it.
type Session struct {
	snapshots *cache.Snapshots
	convs     *conversation.Store
	log       zerolog.Logger

	mu         sync.Mutex
	fetcher    Fetcher
	generator  Generator
	subreddit  string
	snapshot   *types.Snapshot
	conv       types.Conversation
	loading    bool
	generating bool
	lastError  string
}

// NewSession creates a session. fetcher and generator may be nil when no
// credentials are configured yet; every network operation then fails with
// types.ErrNotConfigured until SetClients is called.
func NewSession(fetcher Fetcher, generator Generator, snapshots *cache.Snapshots, convs *conversation.Store, log zerolog.Logger) *Session {
	return &Session{
		fetcher:   fetcher,
		generator: generator,
		snapshots: snapshots,
		convs:     convs,
		log:       log.With().Str("component", "assistant").Logger(),
	}
}

// SetClients swaps in freshly built API clients after a credential change.
func (s *Session) SetClients(fetcher Fetcher, generator Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher = fetcher
	s.generator = generator
	s.lastError = ""
}

// Configured reports whether the session has working API clients.
func (s *Session) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetcher != nil && s.generator != nil
}

// SelectSubreddit binds the session to a subreddit. A fresh cached snapshot
// is reused; otherwise one fetch runs, its result is cached, and the
// conversation for that subreddit is created or reattached. On failure the
// previous selection stays in place.
func (s *Session) SelectSubreddit(ctx context.Context, name string) error {
	s.mu.Lock()
	if s.fetcher == nil {
		s.mu.Unlock()
		return types.ErrNotConfigured
	}
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	fetcher := s.fetcher
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if snap, ok := s.snapshots.Get(ctx, name); ok {
		s.log.Debug().Str("subreddit", name).Msg("using cached snapshot")
		return s.bind(ctx, name, snap)
	}

	snap, err := fetcher.FetchSnapshot(ctx, name)
	if err != nil {
		s.fail(err)
		return err
	}
	if err := s.snapshots.Put(ctx, name, snap); err != nil {
		// A broken cache write costs a refetch later, nothing more.
		s.log.Warn().Err(err).Msg("failed to cache snapshot")
	}
	return s.bind(ctx, name, snap)
}

func (s *Session) bind(ctx context.Context, name string, snap *types.Snapshot) error {
	conv, err := s.convs.GetOrCreate(ctx, name)
	if err != nil {
		s.fail(err)
		return err
	}
	s.mu.Lock()
	s.subreddit = name
	s.snapshot = snap
	s.conv = conv
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// Ask appends the user's question to the active conversation immediately,
// generates an answer, and appends the assistant turn with extracted
// sources. On generation failure the user turn stays; the history is
// allowed to contain an unanswered question.
//
// If the user switches subreddits while generation is in flight, the late
// answer is appended to the conversation that originated the question, never
// to the newly active one.
func (s *Session) Ask(ctx context.Context, question string) (types.Message, error) {
	s.mu.Lock()
	if s.generator == nil {
		s.mu.Unlock()
		return types.Message{}, types.ErrNotConfigured
	}
	if s.generating {
		s.mu.Unlock()
		return types.Message{}, ErrBusy
	}
	if s.subreddit == "" || s.snapshot == nil {
		s.mu.Unlock()
		return types.Message{}, ErrNoSubreddit
	}
	s.generating = true
	generator := s.generator
	origin := s.subreddit
	snap := s.snapshot

	userMsg := s.convs.NewMessage(types.RoleUser, question)
	conv := s.convs.AppendTurn(s.conv, userMsg)
	s.conv = conv
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
	}()

	// Optimistic append: the user turn is durable before generation starts.
	if err := s.convs.Replace(ctx, conv); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist user turn")
	}

	answer, err := generator.Answer(ctx, question, snap, conv.Messages)
	if err != nil {
		s.fail(err)
		return types.Message{}, err
	}

	assistantMsg := s.convs.NewMessage(types.RoleAssistant, answer)
	assistantMsg.Sources = insight.ExtractSources(answer)

	s.mu.Lock()
	stillActive := s.subreddit == origin
	current := s.conv
	s.mu.Unlock()

	if stillActive {
		updated := s.convs.AppendTurn(current, assistantMsg)
		s.mu.Lock()
		s.conv = updated
		s.lastError = ""
		s.mu.Unlock()
		if err := s.convs.Replace(ctx, updated); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist assistant turn")
		}
		return assistantMsg, nil
	}

	// The session moved on while the model was thinking. Deliver the answer
	// to the originating conversation in the store.
	s.log.Debug().Str("subreddit", origin).Msg("appending late answer to originating conversation")
	stored, ok, getErr := s.convs.Get(ctx, origin)
	if getErr != nil || !ok {
		s.log.Warn().Err(getErr).Str("subreddit", origin).Msg("originating conversation missing, dropping answer")
		return assistantMsg, nil
	}
	if err := s.convs.Replace(ctx, s.convs.AppendTurn(stored, assistantMsg)); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist late assistant turn")
	}
	return assistantMsg, nil
}

// ClearHistory empties the active conversation. The snapshot is untouched.
func (s *Session) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	if s.subreddit == "" {
		s.mu.Unlock()
		return ErrNoSubreddit
	}
	cleared := s.convs.Clear(s.conv)
	s.conv = cleared
	s.mu.Unlock()
	return s.convs.Replace(ctx, cleared)
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// Subreddit returns the active subreddit name, or "" when idle.
func (s *Session) Subreddit() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subreddit
}

// Snapshot returns the bound snapshot, or nil when idle.
func (s *Session) Snapshot() *types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Conversation returns a copy of the active conversation.
func (s *Session) Conversation() types.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// LastError returns the most recent user-facing error text, or "".
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Loading reports whether a snapshot fetch is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Generating reports whether an answer is being generated.
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}
