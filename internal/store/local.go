package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"inkwise/internal/models"
)

// ChatsKey is the storage key holding the serialized chat list.
const ChatsKey = "inkwise-chats"

// LocalStore keeps the whole chat list as one JSON blob in a KV.
// Every mutation rewrites the full blob.
type LocalStore struct {
	mu  sync.Mutex
	kv  KV
	key string
}

func NewLocalStore(kv KV) *LocalStore {
	return &LocalStore{kv: kv, key: ChatsKey}
}

func (s *LocalStore) load(ctx context.Context) ([]models.Chat, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var chats []models.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		log.Printf("%v under %q, starting empty: %v", ErrMalformedState, s.key, err)
		return nil, nil
	}
	return chats, nil
}

func (s *LocalStore) save(ctx context.Context, chats []models.Chat) error {
	if chats == nil {
		chats = []models.Chat{}
	}
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to encode chats: %w", err)
	}
	return s.kv.Set(ctx, s.key, data)
}

func (s *LocalStore) List(ctx context.Context) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		return []models.Chat{}, nil
	}
	return chats, nil
}

// Create prepends a fresh default-titled chat.
func (s *LocalStore) Create(ctx context.Context) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chat := models.Chat{
		ID:        models.NewChatID(),
		Title:     models.DefaultChatTitle,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	chats = append([]models.Chat{chat}, chats...)
	if err := s.save(ctx, chats); err != nil {
		return nil, err
	}
	return &chat, nil
}

// Rename is a no-op for unknown ids.
func (s *LocalStore) Rename(ctx context.Context, chatID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(chats, chatID)
	if i < 0 {
		return nil
	}
	chats[i].Title = normalizeTitle(title)
	chats[i].UpdatedAt = time.Now().UTC()
	return s.save(ctx, chats)
}

// Delete is a no-op for unknown ids.
func (s *LocalStore) Delete(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(chats, chatID)
	if i < 0 {
		return nil
	}
	chats = append(chats[:i], chats[i+1:]...)
	return s.save(ctx, chats)
}

func (s *LocalStore) AppendMessage(ctx context.Context, chatID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(chats, chatID)
	if i < 0 {
		return ErrNotFound
	}
	chats[i].Messages = append(chats[i].Messages, msg)
	chats[i].UpdatedAt = time.Now().UTC()
	return s.save(ctx, chats)
}

func (s *LocalStore) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(chats, chatID)
	if i < 0 {
		return nil, ErrNotFound
	}
	return chats[i].Messages, nil
}

func indexOf(chats []models.Chat, id string) int {
	for i := range chats {
		if chats[i].ID == id {
			return i
		}
	}
	return -1
}
