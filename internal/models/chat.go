package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultChatTitle  = "New Chat"
	UntitledChatTitle = "Untitled Chat"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chat is a titled conversation thread. Messages are kept in insertion order.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Message is a single turn in a chat.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewChatID returns a fresh client-side chat identifier.
func NewChatID() string {
	return "chat-" + uuid.NewString()
}

// NewMessage builds a message with a fresh identifier.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        string(role) + "-" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ChatRecord is a chat as stored and listed by the backend.
type ChatRecord struct {
	ID        uuid.UUID `json:"_id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredMessage is a message as persisted by the backend.
type StoredMessage struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"-"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SendMessageRequest is the payload of POST /api/chats/{id}/messages.
type SendMessageRequest struct {
	Message string `json:"message"`
	Style   string `json:"style"`
}

// SendMessageResponse is the reply of POST /api/chats/{id}/messages.
type SendMessageResponse struct {
	UserMessage      StoredMessage `json:"user_message"`
	AssistantMessage StoredMessage `json:"assistant_message"`
	Title            string        `json:"title,omitempty"`
}

type MessagesResponse struct {
	Messages []StoredMessage `json:"messages"`
	Title    string          `json:"title"`
}

type RenameChatRequest struct {
	Title string `json:"title"`
}

// ChatEvent is pushed to a user's websocket connections when their chats change.
type ChatEvent struct {
	Type    string      `json:"type"` // "chat_created" | "chat_renamed" | "chat_deleted" | "message_added"
	ChatID  uuid.UUID   `json:"chat_id"`
	Payload interface{} `json:"payload,omitempty"`
}
