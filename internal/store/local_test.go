package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"inkwise/internal/models"
)

func TestLocalStore_CreateOnEmpty(t *testing.T) {
	s := NewLocalStore(NewMemoryKV())
	ctx := context.Background()

	chats, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("expected empty store, got %d chats", len(chats))
	}

	chat, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if chat.Title != models.DefaultChatTitle {
		t.Errorf("expected title %q, got %q", models.DefaultChatTitle, chat.Title)
	}
	if len(chat.Messages) != 0 {
		t.Errorf("expected no messages, got %d", len(chat.Messages))
	}
	if !strings.HasPrefix(chat.ID, "chat-") {
		t.Errorf("unexpected id %q", chat.ID)
	}
}

func TestLocalStore_CreatePrependsUniqueIDs(t *testing.T) {
	s := NewLocalStore(NewMemoryKV())
	ctx := context.Background()

	seen := make(map[string]bool)
	var last string
	for i := 0; i < 50; i++ {
		chat, err := s.Create(ctx)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[chat.ID] {
			t.Fatalf("duplicate id %q", chat.ID)
		}
		seen[chat.ID] = true
		last = chat.ID
	}

	chats, _ := s.List(ctx)
	if chats[0].ID != last {
		t.Errorf("most recent chat should be first")
	}
}

func TestLocalStore_RoundTrip(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	first := NewLocalStore(kv)
	a, _ := first.Create(ctx)
	b, _ := first.Create(ctx)
	if err := first.AppendMessage(ctx, a.ID, models.NewMessage(models.RoleUser, "hello\nthere")); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if err := first.Rename(ctx, b.ID, "Second"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	want, _ := first.List(ctx)
	got, err := NewLocalStore(kv).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d chats, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Title != want[i].Title {
			t.Errorf("chat %d differs: %+v vs %+v", i, got[i], want[i])
		}
		if len(got[i].Messages) != len(want[i].Messages) {
			t.Errorf("chat %d message count differs", i)
		}
		for j := range want[i].Messages {
			if !reflect.DeepEqual(got[i].Messages[j].Content, want[i].Messages[j].Content) {
				t.Errorf("chat %d message %d differs", i, j)
			}
		}
	}
}

func TestLocalStore_Rename(t *testing.T) {
	s := NewLocalStore(NewMemoryKV())
	ctx := context.Background()
	chat, _ := s.Create(ctx)

	tests := []struct {
		title    string
		expected string
	}{
		{"Moon notes", "Moon notes"},
		{"   ", models.UntitledChatTitle},
		{"", models.UntitledChatTitle},
		{"  padded  ", "padded"},
	}
	for _, tc := range tests {
		if err := s.Rename(ctx, chat.ID, tc.title); err != nil {
			t.Fatalf("Rename failed: %v", err)
		}
		chats, _ := s.List(ctx)
		if chats[0].Title != tc.expected {
			t.Errorf("Rename(%q): expected %q, got %q", tc.title, tc.expected, chats[0].Title)
		}
	}

	if err := s.Rename(ctx, "missing", "x"); err != nil {
		t.Errorf("renaming a missing chat should be a no-op, got %v", err)
	}
}

func TestLocalStore_DeleteMissingLeavesStoreUnchanged(t *testing.T) {
	kv := NewMemoryKV()
	s := NewLocalStore(kv)
	ctx := context.Background()
	s.Create(ctx)
	s.Create(ctx)

	before, _ := kv.Get(ctx, ChatsKey)
	if err := s.Delete(ctx, "chat-does-not-exist"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	after, _ := kv.Get(ctx, ChatsKey)
	if string(before) != string(after) {
		t.Error("deleting a missing chat changed the stored blob")
	}
}

func TestLocalStore_Delete(t *testing.T) {
	s := NewLocalStore(NewMemoryKV())
	ctx := context.Background()
	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)

	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	chats, _ := s.List(ctx)
	if len(chats) != 1 || chats[0].ID != a.ID {
		t.Fatalf("unexpected chats after delete: %+v", chats)
	}
}

func TestLocalStore_AppendIsOrderedAndChecksChat(t *testing.T) {
	s := NewLocalStore(NewMemoryKV())
	ctx := context.Background()
	chat, _ := s.Create(ctx)

	contents := []string{"one", "two", "three"}
	for _, c := range contents {
		if err := s.AppendMessage(ctx, chat.ID, models.NewMessage(models.RoleUser, c)); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := s.Messages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	for i, c := range contents {
		if msgs[i].Content != c {
			t.Errorf("message %d: expected %q, got %q", i, c, msgs[i].Content)
		}
	}

	err = s.AppendMessage(ctx, "missing", models.NewMessage(models.RoleUser, "x"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Messages(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_MalformedBlobIsEmpty(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	kv.Set(ctx, ChatsKey, []byte("{not json"))

	s := NewLocalStore(kv)
	chats, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List should not fail on malformed state: %v", err)
	}
	if len(chats) != 0 {
		t.Fatalf("expected no chats, got %d", len(chats))
	}

	if _, err := s.Create(ctx); err != nil {
		t.Fatalf("Create after malformed state failed: %v", err)
	}
	chats, _ = s.List(ctx)
	if len(chats) != 1 {
		t.Fatalf("expected the blob to be rewritten with one chat, got %d", len(chats))
	}
}
