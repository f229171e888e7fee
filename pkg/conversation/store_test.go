package conversation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"subsight/pkg/store"
	"subsight/pkg/types"
)

func newTestStore() (*Store, *store.Memory) {
	kv := store.NewMemory()
	return NewStore(kv, zerolog.Nop()), kv
}

func TestGetOrCreateCreatesOnce(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore()

	first, err := s.GetOrCreate(ctx, "startups")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.ID == "" || first.Subreddit != "startups" {
		t.Fatalf("unexpected conversation: %+v", first)
	}
	if len(first.Messages) != 0 {
		t.Fatalf("new conversation must be empty, has %d messages", len(first.Messages))
	}
	if !first.CreatedAt.Equal(first.UpdatedAt) {
		t.Error("new conversation must have matching timestamps")
	}

	second, err := s.GetOrCreate(ctx, "startups")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if second.ID != first.ID {
		t.Error("second call must return the existing conversation")
	}

	// Creation persists the whole collection.
	raw, ok, _ := kv.Get(ctx, storageKey)
	if !ok {
		t.Fatal("expected collection persisted after creation")
	}
	var all []types.Conversation
	if err := json.Unmarshal(raw, &all); err != nil {
		t.Fatalf("persisted collection unreadable: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 persisted conversation, got %d", len(all))
	}
}

func TestAppendTurnValueSemantics(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	conv, err := s.GetOrCreate(ctx, "startups")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	msg := s.NewMessage(types.RoleUser, "What pain points appear?")
	updated := s.AppendTurn(conv, msg)

	if len(conv.Messages) != 0 {
		t.Error("AppendTurn must not mutate its input")
	}
	if len(updated.Messages) != 1 || updated.Messages[0].Content != "What pain points appear?" {
		t.Fatalf("unexpected messages: %+v", updated.Messages)
	}
	if updated.UpdatedAt.Before(conv.UpdatedAt) {
		t.Error("UpdatedAt must be refreshed")
	}
}

func TestReplacePersists(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore()

	conv, _ := s.GetOrCreate(ctx, "startups")
	updated := s.AppendTurn(conv, s.NewMessage(types.RoleUser, "hello"))
	if err := s.Replace(ctx, updated); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// A fresh store over the same KV sees the persisted turn.
	reloaded := NewStore(kv, zerolog.Nop())
	got, ok, err := reloaded.Get(ctx, "startups")
	if err != nil || !ok {
		t.Fatalf("Get after reload: ok=%v err=%v", ok, err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(got.Messages))
	}
}

func TestClearIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	conv, _ := s.GetOrCreate(ctx, "startups")
	for i := 0; i < 4; i++ {
		conv = s.AppendTurn(conv, s.NewMessage(types.RoleUser, "q"))
	}

	cleared := s.Clear(conv)
	if len(cleared.Messages) != 0 {
		t.Fatalf("expected zero turns, got %d", len(cleared.Messages))
	}

	again := s.Clear(cleared)
	if len(again.Messages) != 0 {
		t.Fatal("clearing twice must still yield zero turns")
	}
	if again.ID != conv.ID || again.Subreddit != conv.Subreddit {
		t.Error("clear must not change identity fields")
	}
}

func TestConversationsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	a, _ := s.GetOrCreate(ctx, "startups")
	b, _ := s.GetOrCreate(ctx, "golang")
	if a.ID == b.ID {
		t.Fatal("different subreddits must get different conversations")
	}

	if err := s.Replace(ctx, s.AppendTurn(a, s.NewMessage(types.RoleUser, "q"))); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, ok, _ := s.Get(ctx, "golang")
	if !ok || len(got.Messages) != 0 {
		t.Error("appending to one conversation must not touch another")
	}
}
