package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inkwise/internal/middleware"
	"inkwise/internal/models"
)

type stubChatRepo struct {
	chats    map[uuid.UUID]*models.ChatRecord
	messages map[uuid.UUID][]models.StoredMessage
	appended int
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{
		chats:    make(map[uuid.UUID]*models.ChatRecord),
		messages: make(map[uuid.UUID][]models.StoredMessage),
	}
}

func (s *stubChatRepo) add(userID uuid.UUID, title string) *models.ChatRecord {
	c := &models.ChatRecord{ID: uuid.New(), UserID: userID, Title: title, UpdatedAt: time.Now()}
	s.chats[c.ID] = c
	return c
}

func (s *stubChatRepo) Create(ctx context.Context, userID uuid.UUID, title string) (*models.ChatRecord, error) {
	return s.add(userID, title), nil
}

func (s *stubChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRecord, error) {
	out := make([]models.ChatRecord, 0)
	for _, c := range s.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubChatRepo) GetByID(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatRecord, error) {
	c, ok := s.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (s *stubChatRepo) UpdateTitle(ctx context.Context, userID, chatID uuid.UUID, title string) error {
	c, err := s.GetByID(ctx, userID, chatID)
	if err != nil {
		return err
	}
	c.Title = title
	return nil
}

func (s *stubChatRepo) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	if _, err := s.GetByID(ctx, userID, chatID); err != nil {
		return err
	}
	delete(s.chats, chatID)
	return nil
}

func (s *stubChatRepo) Messages(ctx context.Context, chatID uuid.UUID) ([]models.StoredMessage, error) {
	return append([]models.StoredMessage{}, s.messages[chatID]...), nil
}

func (s *stubChatRepo) AppendExchange(ctx context.Context, chatID uuid.UUID, user, assistant *models.StoredMessage, firstTitle string) (string, error) {
	s.appended++
	first := len(s.messages[chatID]) == 0
	user.ID, assistant.ID = uuid.New(), uuid.New()
	s.messages[chatID] = append(s.messages[chatID], *user, *assistant)
	if first {
		s.chats[chatID].Title = firstTitle
		return firstTitle, nil
	}
	return "", nil
}

type stubGenerator struct {
	reply string
	err   error
	style models.Style
}

func (g *stubGenerator) Generate(ctx context.Context, topic string, style models.Style) (string, error) {
	g.style = style
	return g.reply, g.err
}

type recordingPublisher struct {
	events []models.ChatEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, userID uuid.UUID, event models.ChatEvent) error {
	p.events = append(p.events, event)
	return nil
}

func chatRequest(method, path, chatID string, userID uuid.UUID, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rctx := chi.NewRouteContext()
	if chatID != "" {
		rctx.URLParams.Add("id", chatID)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Error
}

func TestChatHandler_SendMessage_FirstMessageSetsTitle(t *testing.T) {
	userID := uuid.New()
	repo := newStubChatRepo()
	chat := repo.add(userID, models.DefaultChatTitle)
	gen := &stubGenerator{reply: "Silver light"}
	events := &recordingPublisher{}
	h := NewChatHandler(repo, gen, events)

	req := chatRequest(http.MethodPost, "/api/chats/"+chat.ID.String()+"/messages", chat.ID.String(), userID,
		models.SendMessageRequest{Message: "  Tell me about the moon and the stars tonight  ", Style: "Haiku"})
	rr := httptest.NewRecorder()
	h.SendMessage(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.SendMessageResponse
	json.NewDecoder(rr.Body).Decode(&resp)

	if resp.UserMessage.Content != "Tell me about the moon and the stars tonight" {
		t.Errorf("user message not trimmed: %q", resp.UserMessage.Content)
	}
	if resp.AssistantMessage.Content != "Silver light" || resp.AssistantMessage.Role != models.RoleAssistant {
		t.Errorf("unexpected assistant message %+v", resp.AssistantMessage)
	}
	if resp.Title != "Tell me about the moon..." {
		t.Errorf("unexpected title %q", resp.Title)
	}
	if gen.style != models.StyleHaiku {
		t.Errorf("expected haiku style, got %q", gen.style)
	}
	if len(events.events) != 2 || events.events[1].Type != "message_added" {
		t.Errorf("unexpected events %+v", events.events)
	}
}

func TestChatHandler_SendMessage_LaterMessageKeepsTitle(t *testing.T) {
	userID := uuid.New()
	repo := newStubChatRepo()
	chat := repo.add(userID, "Moon")
	repo.messages[chat.ID] = []models.StoredMessage{{Role: models.RoleUser, Content: "earlier"}}
	h := NewChatHandler(repo, &stubGenerator{reply: "ok"}, nil)

	rr := httptest.NewRecorder()
	h.SendMessage(rr, chatRequest(http.MethodPost, "/", chat.ID.String(), userID, models.SendMessageRequest{Message: "more please"}))

	var resp models.SendMessageResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Title != "Moon" {
		t.Errorf("expected existing title, got %q", resp.Title)
	}
}

func TestChatHandler_SendMessage_GenerationFailureIsStored(t *testing.T) {
	userID := uuid.New()
	repo := newStubChatRepo()
	chat := repo.add(userID, models.DefaultChatTitle)
	h := NewChatHandler(repo, &stubGenerator{err: errors.New("quota exceeded")}, nil)

	rr := httptest.NewRecorder()
	h.SendMessage(rr, chatRequest(http.MethodPost, "/", chat.ID.String(), userID, models.SendMessageRequest{Message: "hi"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp models.SendMessageResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.AssistantMessage.Content != "Sorry, an error occurred: quota exceeded" {
		t.Errorf("unexpected reply %q", resp.AssistantMessage.Content)
	}
	if len(repo.messages[chat.ID]) != 2 {
		t.Errorf("expected both messages stored")
	}
}

func TestChatHandler_SendMessage_Rejections(t *testing.T) {
	owner := uuid.New()
	repo := newStubChatRepo()
	chat := repo.add(owner, models.DefaultChatTitle)
	h := NewChatHandler(repo, &stubGenerator{reply: "x"}, nil)

	tests := []struct {
		name    string
		chatID  string
		userID  uuid.UUID
		body    interface{}
		status  int
		message string
	}{
		{"blank message", chat.ID.String(), owner, models.SendMessageRequest{Message: "   "}, http.StatusBadRequest, "Message required"},
		{"foreign chat", chat.ID.String(), uuid.New(), models.SendMessageRequest{Message: "hi"}, http.StatusNotFound, "Chat not found"},
		{"unknown chat", uuid.NewString(), owner, models.SendMessageRequest{Message: "hi"}, http.StatusNotFound, "Chat not found"},
		{"malformed id", "not-a-uuid", owner, models.SendMessageRequest{Message: "hi"}, http.StatusNotFound, "Chat not found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.SendMessage(rr, chatRequest(http.MethodPost, "/", tc.chatID, tc.userID, tc.body))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if got := decodeError(t, rr).Message; got != tc.message {
				t.Errorf("expected %q, got %q", tc.message, got)
			}
		})
	}
	if repo.appended != 0 {
		t.Error("rejected requests must not store messages")
	}
}

func TestChatHandler_RenameRequiresTitle(t *testing.T) {
	userID := uuid.New()
	repo := newStubChatRepo()
	chat := repo.add(userID, "Old")
	h := NewChatHandler(repo, nil, nil)

	rr := httptest.NewRecorder()
	h.Rename(rr, chatRequest(http.MethodPut, "/", chat.ID.String(), userID, models.RenameChatRequest{Title: "  "}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Rename(rr, chatRequest(http.MethodPut, "/", chat.ID.String(), userID, models.RenameChatRequest{Title: " New name "}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if repo.chats[chat.ID].Title != "New name" {
		t.Errorf("title not updated: %q", repo.chats[chat.ID].Title)
	}
}

func TestChatHandler_CreateListDelete(t *testing.T) {
	userID := uuid.New()
	repo := newStubChatRepo()
	repo.add(uuid.New(), "someone else's")
	events := &recordingPublisher{}
	h := NewChatHandler(repo, nil, events)

	rr := httptest.NewRecorder()
	h.Create(rr, chatRequest(http.MethodPost, "/api/chats", "", userID, nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var created map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&created)
	if created["title"] != models.DefaultChatTitle || created["_id"] == nil {
		t.Fatalf("unexpected created chat %v", created)
	}

	rr = httptest.NewRecorder()
	h.List(rr, chatRequest(http.MethodGet, "/api/chats", "", userID, nil))
	var listed []models.ChatRecord
	json.NewDecoder(rr.Body).Decode(&listed)
	if len(listed) != 1 {
		t.Fatalf("expected only the user's chat, got %d", len(listed))
	}

	id := listed[0].ID.String()
	rr = httptest.NewRecorder()
	h.Delete(rr, chatRequest(http.MethodDelete, "/", id, userID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Delete(rr, chatRequest(http.MethodDelete, "/", id, userID, nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for second delete, got %d", rr.Code)
	}

	if len(events.events) != 2 || events.events[0].Type != "chat_created" || events.events[1].Type != "chat_deleted" {
		t.Errorf("unexpected events %+v", events.events)
	}
}

func TestChatHandler_Messages(t *testing.T) {
	userID := uuid.New()
	repo := newStubChatRepo()
	chat := repo.add(userID, "Moon")
	repo.messages[chat.ID] = []models.StoredMessage{
		{Role: models.RoleUser, Content: "a"},
		{Role: models.RoleAssistant, Content: "b"},
	}
	h := NewChatHandler(repo, nil, nil)

	rr := httptest.NewRecorder()
	h.Messages(rr, chatRequest(http.MethodGet, "/", chat.ID.String(), userID, nil))
	var resp models.MessagesResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Title != "Moon" || len(resp.Messages) != 2 || resp.Messages[1].Content != "b" {
		t.Errorf("unexpected response %+v", resp)
	}

	rr = httptest.NewRecorder()
	h.Messages(rr, chatRequest(http.MethodGet, "/", chat.ID.String(), uuid.New(), nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for foreign chat, got %d", rr.Code)
	}
}
