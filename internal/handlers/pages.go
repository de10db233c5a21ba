package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"inkwise/internal/middleware"
	"inkwise/internal/models"
	"inkwise/internal/services"
	"inkwise/internal/view"
)

type PageHandler struct {
	authService *services.AuthService
	chatRepo    chatRepository
}

func NewPageHandler(authService *services.AuthService, chatRepo chatRepository) *PageHandler {
	return &PageHandler{authService: authService, chatRepo: chatRepo}
}

func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderLanding(w); err != nil {
		logError(r, "render landing", err)
	}
}

// Chatbot renders the chat page with the chat named by ?chat= active, or
// the most recent chat. A user without chats gets a new one.
func (h *PageHandler) Chatbot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.authService.CurrentUser(ctx, userID)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	records, err := h.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		logError(r, "list chats", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		chat, err := h.chatRepo.Create(ctx, userID, models.DefaultChatTitle)
		if err != nil {
			logError(r, "create chat", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		records = append(records, *chat)
	}

	active := records[0].ID
	if id, err := uuid.Parse(r.URL.Query().Get("chat")); err == nil {
		for _, c := range records {
			if c.ID == id {
				active = id
				break
			}
		}
	}

	stored, err := h.chatRepo.Messages(ctx, active)
	if err != nil {
		logError(r, "load messages", err)
	}

	data := view.PageData{
		UserName: user.Name,
		ActiveID: active.String(),
		Style:    models.DefaultStyle,
	}
	for _, c := range records {
		data.Chats = append(data.Chats, models.Chat{ID: c.ID.String(), Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt})
	}
	for _, m := range stored {
		data.Messages = append(data.Messages, models.Message{ID: m.ID.String(), Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderChatbot(w, data); err != nil {
		logError(r, "render chatbot", err)
	}
}
