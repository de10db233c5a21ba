package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"inkwise/internal/models"
)

// RemoteStore talks to the InkWise backend. Every call is one round trip
// and returns only after the response is parsed.
type RemoteStore struct {
	baseURL string
	client  *http.Client
	token   string
}

type RemoteOption func(*RemoteStore)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteStore) { s.client = c }
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) RemoteOption {
	return func(s *RemoteStore) { s.token = token }
}

func NewRemoteStore(baseURL string, opts ...RemoteOption) (*RemoteStore, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	s := &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Jar: jar, Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Token returns the bearer token in use, if any.
func (s *RemoteStore) Token() string {
	return s.token
}

type remoteChat struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c remoteChat) toChat() models.Chat {
	return models.Chat{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

type remoteMessage struct {
	ID        string      `json:"id"`
	Role      models.Role `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

func (m remoteMessage) toMessage() models.Message {
	return models.Message{ID: m.ID, Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
}

func (s *RemoteStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage accepts both {"error":{"message":...}} and {"error":"..."}.
func errorMessage(data []byte, status int) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && len(envelope.Error) > 0 {
		var text string
		if json.Unmarshal(envelope.Error, &text) == nil && text != "" {
			return text
		}
		var structured struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &structured) == nil && structured.Message != "" {
			return structured.Message
		}
	}
	return http.StatusText(status)
}

func chatPath(chatID string, suffix string) string {
	return "/api/chats/" + url.PathEscape(chatID) + suffix
}

func (s *RemoteStore) List(ctx context.Context) ([]models.Chat, error) {
	var records []remoteChat
	if err := s.do(ctx, http.MethodGet, "/api/chats", nil, &records); err != nil {
		return nil, err
	}
	chats := make([]models.Chat, 0, len(records))
	for _, r := range records {
		chats = append(chats, r.toChat())
	}
	return chats, nil
}

func (s *RemoteStore) Create(ctx context.Context) (*models.Chat, error) {
	var record remoteChat
	if err := s.do(ctx, http.MethodPost, "/api/chats", nil, &record); err != nil {
		return nil, err
	}
	chat := record.toChat()
	return &chat, nil
}

func (s *RemoteStore) Rename(ctx context.Context, chatID, title string) error {
	err := s.do(ctx, http.MethodPut, chatPath(chatID, ""), models.RenameChatRequest{Title: normalizeTitle(title)}, nil)
	return ignoreNotFound(err)
}

func (s *RemoteStore) Delete(ctx context.Context, chatID string) error {
	return ignoreNotFound(s.do(ctx, http.MethodDelete, chatPath(chatID, ""), nil, nil))
}

func (s *RemoteStore) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	var resp struct {
		Messages []remoteMessage `json:"messages"`
	}
	if err := s.do(ctx, http.MethodGet, chatPath(chatID, "/messages"), nil, &resp); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	msgs := make([]models.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msgs = append(msgs, m.toMessage())
	}
	return msgs, nil
}

// SendMessage asks the backend to generate and persist a reply.
func (s *RemoteStore) SendMessage(ctx context.Context, chatID, text string, style models.Style) (*Exchange, error) {
	var resp struct {
		UserMessage      remoteMessage  `json:"user_message"`
		AssistantMessage *remoteMessage `json:"assistant_message"`
		Title            string         `json:"title"`
	}
	req := models.SendMessageRequest{Message: text, Style: string(style)}
	if err := s.do(ctx, http.MethodPost, chatPath(chatID, "/messages"), req, &resp); err != nil {
		return nil, err
	}
	if resp.AssistantMessage == nil {
		return nil, fmt.Errorf("backend reply is missing assistant_message")
	}
	return &Exchange{
		UserMessage:      resp.UserMessage.toMessage(),
		AssistantMessage: resp.AssistantMessage.toMessage(),
		Title:            resp.Title,
	}, nil
}

// Login authenticates against the backend and keeps the issued token.
func (s *RemoteStore) Login(ctx context.Context, email, password string) error {
	var resp models.AuthResponse
	err := s.do(ctx, http.MethodPost, "/api/login", models.LoginRequest{Email: email, Password: password}, &resp)
	if err == ErrSessionExpired {
		return &APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password."}
	}
	if err != nil {
		return err
	}
	s.token = resp.Token
	return nil
}

func isStatus(err error, status int) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == status
}

func ignoreNotFound(err error) error {
	if isStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}
