// Package view renders session state as HTML fragments, a full chatbot
// page, or styled terminal output.
package view

import (
	"bytes"
	"html/template"
	"log"
	"sync"

	"inkwise/internal/format"
	"inkwise/internal/models"
)

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	"content": func(raw string) template.HTML { return template.HTML(format.Content(raw)) },
	"isUser":  func(r models.Role) bool { return r == models.RoleUser },
}).Parse(`
{{define "chat-list"}}{{range .Chats}}<div class="chat-item{{if eq .ID $.ActiveID}} active{{end}}" data-id="{{.ID}}">
  <span class="chat-title">{{.Title}}</span>
  <button class="edit-chat-btn" title="Rename">&#9998;</button>
  <button class="delete-chat-btn" title="Delete">&#10005;</button>
</div>
{{end}}{{end}}

{{define "message"}}<div class="message {{if isUser .Role}}message-user{{else}}message-assistant{{end}}" data-id="{{.ID}}">
  <span class="message-author">{{if isUser .Role}}You{{else}}InkWise{{end}}</span>
  <div class="message-body">{{content .Content}}</div>
</div>
{{end}}

{{define "empty-state"}}<div class="empty-state">
  <h2>READY TO WRITE?</h2>
  <p>Share your creative idea below and let's build something amazing together!</p>
</div>
{{end}}

{{define "loading"}}<div class="loading-indicator" id="loading"><span></span><span></span><span></span></div>
{{end}}
`))

// HTML keeps the rendered chat list and history as HTML fragments.
type HTML struct {
	mu       sync.Mutex
	chatList string
	messages []string
	loading  bool
	redirect string
}

func NewHTML() *HTML {
	return &HTML{}
}

func (h *HTML) RenderChatList(chats []models.Chat, activeID string) {
	out := execute("chat-list", struct {
		Chats    []models.Chat
		ActiveID string
	}{chats, activeID})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.chatList = out
}

func (h *HTML) RenderMessages(msgs []models.Message) {
	rendered := make([]string, 0, len(msgs))
	for _, m := range msgs {
		rendered = append(rendered, execute("message", m))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = rendered
}

func (h *HTML) AppendMessage(msg models.Message) {
	out := execute("message", msg)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, out)
}

func (h *HTML) ShowLoading() { h.setLoading(true) }
func (h *HTML) HideLoading() { h.setLoading(false) }

func (h *HTML) setLoading(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loading = v
}

func (h *HTML) Redirect(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redirect = path
}

// ChatList returns the sidebar fragment.
func (h *HTML) ChatList() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chatList
}

// History returns the message pane, including the empty state and the
// loading indicator when they apply.
func (h *HTML) History() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf bytes.Buffer
	if len(h.messages) == 0 && !h.loading {
		buf.WriteString(execute("empty-state", nil))
	}
	for _, m := range h.messages {
		buf.WriteString(m)
	}
	if h.loading {
		buf.WriteString(execute("loading", nil))
	}
	return buf.String()
}

// RedirectTarget is the last path passed to Redirect, if any.
func (h *HTML) RedirectTarget() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redirect
}

func execute(name string, data interface{}) string {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		return ""
	}
	return buf.String()
}
