// Package session drives one chat session: the chat list, the active chat,
// the selected style and the send-message cycle against a ChatStore.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"inkwise/internal/models"
	"inkwise/internal/services"
	"inkwise/internal/store"
)

const (
	defaultTitleWords = 3

	connectionErrorText = "Connection error. Please check your internet and try again."
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNoActiveChat   = errors.New("no active chat")
	ErrSendInProgress = errors.New("a message is already being sent")
	ErrUnknownStyle   = errors.New("unknown writing style")
)

// Renderer receives every visible state change.
type Renderer interface {
	RenderChatList(chats []models.Chat, activeID string)
	RenderMessages(msgs []models.Message)
	AppendMessage(msg models.Message)
	ShowLoading()
	HideLoading()
	Redirect(path string)
}

// Generator produces a reply for a prompt in a style.
type Generator interface {
	Generate(ctx context.Context, prompt string, style models.Style) (string, error)
}

type Option func(*Controller)

func WithGenerator(g Generator) Option {
	return func(c *Controller) { c.gen = g }
}

func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

// WithTitleWords sets how many words of the first message become the
// auto-title of a local chat.
func WithTitleWords(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.titleWords = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller owns the state of one session. The zero value is not usable;
// build it with New.
type Controller struct {
	store      store.ChatStore
	gen        Generator
	renderer   Renderer
	titleWords int
	logger     *log.Logger

	mu       sync.Mutex
	chats    []models.Chat
	loaded   map[string]bool
	activeID string
	style    models.Style
	sending  bool
}

func New(s store.ChatStore, opts ...Option) *Controller {
	c := &Controller{
		store:      s,
		renderer:   nopRenderer{},
		titleWords: defaultTitleWords,
		logger:     log.Default(),
		loaded:     make(map[string]bool),
		style:      models.DefaultStyle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the chat list and activates the most recent chat, creating one
// when the store is empty.
func (c *Controller) Load(ctx context.Context) error {
	chats, err := c.store.List(ctx)
	if err != nil {
		return c.fail(err)
	}
	if len(chats) == 0 {
		_, err := c.CreateChat(ctx)
		return err
	}

	c.mu.Lock()
	c.chats = chats
	c.loaded = make(map[string]bool)
	for _, chat := range chats {
		if chat.Messages != nil {
			c.loaded[chat.ID] = true
		}
	}
	c.mu.Unlock()

	return c.SetActiveChat(ctx, chats[0].ID)
}

// CreateChat adds a new default-titled chat at the top and makes it active.
func (c *Controller) CreateChat(ctx context.Context) (*models.Chat, error) {
	chat, err := c.store.Create(ctx)
	if err != nil {
		return nil, c.fail(err)
	}
	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}

	c.mu.Lock()
	c.chats = append([]models.Chat{*chat}, c.chats...)
	c.loaded[chat.ID] = true
	c.activeID = chat.ID
	chats := c.snapshot()
	c.mu.Unlock()

	c.renderer.RenderChatList(chats, chat.ID)
	c.renderer.RenderMessages(nil)
	return chat, nil
}

// SetActiveChat switches the visible chat, fetching its messages on first use.
func (c *Controller) SetActiveChat(ctx context.Context, chatID string) error {
	c.mu.Lock()
	i := c.indexOf(chatID)
	if i < 0 {
		c.mu.Unlock()
		return store.ErrNotFound
	}
	c.activeID = chatID
	cached := c.loaded[chatID]
	chats := c.snapshot()
	c.mu.Unlock()

	c.renderer.RenderChatList(chats, chatID)

	if !cached {
		msgs, err := c.store.Messages(ctx, chatID)
		if err != nil {
			return c.fail(err)
		}
		c.mu.Lock()
		if i := c.indexOf(chatID); i >= 0 {
			c.chats[i].Messages = msgs
			c.loaded[chatID] = true
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	stillActive := c.activeID == chatID
	msgs := c.messagesOf(chatID)
	c.mu.Unlock()

	if stillActive {
		c.renderer.RenderMessages(msgs)
	}
	return nil
}

// RenameChat sets a chat title; blank titles fall back to the untitled label.
func (c *Controller) RenameChat(ctx context.Context, chatID, title string) error {
	if err := c.store.Rename(ctx, chatID, title); err != nil {
		return c.fail(err)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = models.UntitledChatTitle
	}

	c.mu.Lock()
	i := c.indexOf(chatID)
	if i < 0 {
		c.mu.Unlock()
		return nil
	}
	c.chats[i].Title = title
	chats, active := c.snapshot(), c.activeID
	c.mu.Unlock()

	c.renderer.RenderChatList(chats, active)
	return nil
}

// DeleteChat removes a chat. Deleting the active chat activates the next
// most recent one, or a fresh chat when none remain.
func (c *Controller) DeleteChat(ctx context.Context, chatID string) error {
	if err := c.store.Delete(ctx, chatID); err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	if i := c.indexOf(chatID); i >= 0 {
		c.chats = append(c.chats[:i], c.chats[i+1:]...)
	}
	delete(c.loaded, chatID)
	wasActive := c.activeID == chatID
	if wasActive {
		c.activeID = ""
	}
	var next string
	if len(c.chats) > 0 {
		next = c.chats[0].ID
	}
	chats, active := c.snapshot(), c.activeID
	c.mu.Unlock()

	switch {
	case !wasActive:
		c.renderer.RenderChatList(chats, active)
		return nil
	case next != "":
		return c.SetActiveChat(ctx, next)
	default:
		_, err := c.CreateChat(ctx)
		return err
	}
}

func (c *Controller) SetStyle(style models.Style) error {
	if !style.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	c.mu.Lock()
	c.style = style
	c.mu.Unlock()
	return nil
}

// SendMessage appends the user's message to the active chat, generates a
// reply and appends it. Generation and transport failures become an
// assistant message; only guard failures and an expired session are
// returned as errors.
func (c *Controller) SendMessage(ctx context.Context, input string) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrSendInProgress
	}
	if c.activeID == "" {
		c.mu.Unlock()
		return ErrNoActiveChat
	}
	c.sending = true
	chatID, style := c.activeID, c.style
	userMsg := models.NewMessage(models.RoleUser, text)
	firstExchange := len(c.messagesOf(chatID)) == 0
	c.appendLocked(chatID, userMsg)
	c.mu.Unlock()

	c.renderer.AppendMessage(userMsg)
	c.renderer.ShowLoading()
	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
		c.renderer.HideLoading()
	}()

	var (
		reply models.Message
		title string
	)
	switch s := c.store.(type) {
	case store.Exchanger:
		ex, err := s.SendMessage(ctx, chatID, text, style)
		if errors.Is(err, store.ErrSessionExpired) {
			c.renderer.Redirect("/")
			return err
		}
		if err != nil {
			c.logger.Printf("send to chat %s failed: %v", chatID, err)
			reply = models.NewMessage(models.RoleAssistant, errorText(err))
			break
		}
		reply, title = ex.AssistantMessage, ex.Title

	case store.MessageAppender:
		if err := s.AppendMessage(ctx, chatID, userMsg); err != nil {
			c.logger.Printf("failed to persist user message in chat %s: %v", chatID, err)
		}
		content, genErr := c.generate(ctx, text, style)
		if genErr != nil {
			c.logger.Printf("generation for chat %s failed: %v", chatID, genErr)
			content = errorText(genErr)
		}
		reply = models.NewMessage(models.RoleAssistant, content)
		if err := s.AppendMessage(ctx, chatID, reply); err != nil {
			c.logger.Printf("failed to persist reply in chat %s: %v", chatID, err)
		}
		if genErr == nil && firstExchange && c.titleOf(chatID) == models.DefaultChatTitle {
			title = c.autoTitle(text)
			if err := c.store.Rename(ctx, chatID, title); err != nil {
				c.logger.Printf("failed to rename chat %s: %v", chatID, err)
			}
		}

	default:
		reply = models.NewMessage(models.RoleAssistant, errorText(fmt.Errorf("store %T cannot send messages", c.store)))
	}

	c.mu.Lock()
	c.appendLocked(chatID, reply)
	titleChanged := false
	if i := c.indexOf(chatID); i >= 0 && title != "" && c.chats[i].Title != title {
		c.chats[i].Title = title
		titleChanged = true
	}
	stillActive := c.activeID == chatID
	chats, active := c.snapshot(), c.activeID
	c.mu.Unlock()

	if stillActive {
		c.renderer.AppendMessage(reply)
	}
	if titleChanged {
		c.renderer.RenderChatList(chats, active)
	}
	return nil
}

func (c *Controller) generate(ctx context.Context, text string, style models.Style) (string, error) {
	if c.gen == nil {
		return "", services.ErrMissingCredential
	}
	return c.gen.Generate(ctx, text, style)
}

func (c *Controller) autoTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > c.titleWords {
		words = words[:c.titleWords]
	}
	return strings.Join(words, " ") + "..."
}

// errorText is the assistant message shown for a failed send.
func errorText(err error) string {
	var genErr *services.GenerationAPIError
	if errors.As(err, &genErr) {
		return "Error: " + genErr.Message
	}
	var apiErr *store.APIError
	if errors.As(err, &apiErr) {
		return "Error: " + apiErr.Message
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return connectionErrorText
	}
	return "Error: " + err.Error()
}

// fail redirects to the landing page when the backend session is gone.
func (c *Controller) fail(err error) error {
	if errors.Is(err, store.ErrSessionExpired) {
		c.renderer.Redirect("/")
	}
	return err
}

func (c *Controller) Chats() []models.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) ActiveChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

func (c *Controller) Style() models.Style {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

func (c *Controller) IsSending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// ActiveMessages returns the cached messages of the active chat.
func (c *Controller) ActiveMessages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messagesOf(c.activeID)
}

func (c *Controller) titleOf(chatID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(chatID); i >= 0 {
		return c.chats[i].Title
	}
	return ""
}

// The helpers below expect c.mu to be held.

func (c *Controller) indexOf(chatID string) int {
	for i := range c.chats {
		if c.chats[i].ID == chatID {
			return i
		}
	}
	return -1
}

func (c *Controller) appendLocked(chatID string, msg models.Message) {
	if i := c.indexOf(chatID); i >= 0 {
		c.chats[i].Messages = append(c.chats[i].Messages, msg)
	}
}

func (c *Controller) messagesOf(chatID string) []models.Message {
	i := c.indexOf(chatID)
	if i < 0 {
		return nil
	}
	return append([]models.Message(nil), c.chats[i].Messages...)
}

func (c *Controller) snapshot() []models.Chat {
	out := make([]models.Chat, len(c.chats))
	for i, chat := range c.chats {
		chat.Messages = append([]models.Message(nil), chat.Messages...)
		out[i] = chat
	}
	return out
}

type nopRenderer struct{}

func (nopRenderer) RenderChatList([]models.Chat, string) {}
func (nopRenderer) RenderMessages([]models.Message)      {}
func (nopRenderer) AppendMessage(models.Message)         {}
func (nopRenderer) ShowLoading()                         {}
func (nopRenderer) HideLoading()                         {}
func (nopRenderer) Redirect(string)                      {}
