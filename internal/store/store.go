// Package store persists chats and their messages, either in a local
// key-value blob or through the InkWise REST backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inkwise/internal/models"
)

var (
	ErrNotFound       = errors.New("chat not found")
	ErrSessionExpired = errors.New("session expired")
	ErrMalformedState = errors.New("malformed persisted chat state")
)

// APIError is a non-success reply from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// ChatStore owns the authoritative list of chats.
type ChatStore interface {
	List(ctx context.Context) ([]models.Chat, error)
	Create(ctx context.Context) (*models.Chat, error)
	Rename(ctx context.Context, chatID, title string) error
	Delete(ctx context.Context, chatID string) error
	Messages(ctx context.Context, chatID string) ([]models.Message, error)
}

// MessageAppender is a store that appends single messages.
type MessageAppender interface {
	AppendMessage(ctx context.Context, chatID string, msg models.Message) error
}

// Exchange is the result of one backend-side send: both messages are
// already persisted when it is returned.
type Exchange struct {
	UserMessage      models.Message
	AssistantMessage models.Message
	Title            string
}

// Exchanger is a store that generates and persists a reply in one call.
type Exchanger interface {
	SendMessage(ctx context.Context, chatID, text string, style models.Style) (*Exchange, error)
}

func normalizeTitle(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return models.UntitledChatTitle
}
