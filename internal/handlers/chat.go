package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inkwise/internal/middleware"
	"inkwise/internal/models"
	"inkwise/internal/services"
)

type chatRepository interface {
	Create(ctx context.Context, userID uuid.UUID, title string) (*models.ChatRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRecord, error)
	GetByID(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatRecord, error)
	UpdateTitle(ctx context.Context, userID, chatID uuid.UUID, title string) error
	Delete(ctx context.Context, userID, chatID uuid.UUID) error
	Messages(ctx context.Context, chatID uuid.UUID) ([]models.StoredMessage, error)
	AppendExchange(ctx context.Context, chatID uuid.UUID, user, assistant *models.StoredMessage, firstTitle string) (string, error)
}

type replyGenerator interface {
	Generate(ctx context.Context, topic string, style models.Style) (string, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event models.ChatEvent) error
}

type ChatHandler struct {
	chatRepo  chatRepository
	generator replyGenerator
	events    eventPublisher
}

// NewChatHandler builds the chat endpoints. events may be nil.
func NewChatHandler(chatRepo chatRepository, generator replyGenerator, events eventPublisher) *ChatHandler {
	return &ChatHandler{
		chatRepo:  chatRepo,
		generator: generator,
		events:    events,
	}
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatRepo.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chat, err := h.chatRepo.Create(r.Context(), userID, models.DefaultChatTitle)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.publish(r, userID, models.ChatEvent{Type: "chat_created", ChatID: chat.ID, Payload: chat})
	writeJSON(w, http.StatusCreated, chat)
}

func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	var req models.RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.chatRepo.UpdateTitle(r.Context(), userID, chatID, title); err != nil {
		handleServiceError(w, r, notFound(err))
		return
	}

	h.publish(r, userID, models.ChatEvent{Type: "chat_renamed", ChatID: chatID, Payload: map[string]string{"title": title}})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Updated"})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.chatRepo.Delete(r.Context(), userID, chatID); err != nil {
		handleServiceError(w, r, notFound(err))
		return
	}

	h.publish(r, userID, models.ChatEvent{Type: "chat_deleted", ChatID: chatID})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	chat, err := h.chatRepo.GetByID(r.Context(), middleware.GetUserID(r.Context()), chatID)
	if err != nil {
		handleServiceError(w, r, notFound(err))
		return
	}

	msgs, err := h.chatRepo.Messages(r.Context(), chat.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessagesResponse{Messages: msgs, Title: chat.Title})
}

// SendMessage generates a reply to the user's message and stores both.
// A failed generation is stored as the reply text instead of failing the
// request.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	topic := strings.TrimSpace(req.Message)
	if topic == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message required", r))
		return
	}
	style, _ := models.ParseStyle(req.Style)
	if style == "" {
		style = models.DefaultStyle
	}

	userID := middleware.GetUserID(r.Context())
	chat, err := h.chatRepo.GetByID(r.Context(), userID, chatID)
	if err != nil {
		handleServiceError(w, r, notFound(err))
		return
	}

	reply, err := h.generator.Generate(r.Context(), topic, style)
	if err != nil {
		logError(r, "generation", err)
		reply = "Sorry, an error occurred: " + err.Error()
	}

	userMsg := &models.StoredMessage{Role: models.RoleUser, Content: topic}
	assistantMsg := &models.StoredMessage{Role: models.RoleAssistant, Content: reply}
	newTitle, err := h.chatRepo.AppendExchange(r.Context(), chat.ID, userMsg, assistantMsg, services.TitleFromTopic(topic))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	title := chat.Title
	if newTitle != "" {
		title = newTitle
		h.publish(r, userID, models.ChatEvent{Type: "chat_renamed", ChatID: chat.ID, Payload: map[string]string{"title": title}})
	}
	h.publish(r, userID, models.ChatEvent{Type: "message_added", ChatID: chat.ID, Payload: []*models.StoredMessage{userMsg, assistantMsg}})

	writeJSON(w, http.StatusOK, models.SendMessageResponse{
		UserMessage:      *userMsg,
		AssistantMessage: *assistantMsg,
		Title:            title,
	})
}

func (h *ChatHandler) publish(r *http.Request, userID uuid.UUID, event models.ChatEvent) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(r.Context(), userID, event); err != nil {
		logError(r, "publish "+event.Type, err)
	}
}

func parseChatID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return uuid.Nil, false
	}
	return id, true
}

// notFound maps a missing row to the chat-not-found error.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &services.NotFoundError{Message: "Chat not found"}
	}
	return err
}
