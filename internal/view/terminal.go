package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"inkwise/internal/format"
	"inkwise/internal/models"
)

var (
	inkColor   = lipgloss.Color("#4F46E5")
	mutedColor = lipgloss.Color("#6B7280")
	errorColor = lipgloss.Color("#EF4444")

	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(inkColor)
	activeStyle    = lipgloss.NewStyle().Bold(true).Foreground(inkColor)
	dimStyle       = lipgloss.NewStyle().Foreground(mutedColor)
	userLabel      = lipgloss.NewStyle().Bold(true)
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(inkColor)
	warnStyle      = lipgloss.NewStyle().Foreground(errorColor)
	bubbleStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

// Terminal renders session state as styled text.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	width int
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, width: 80}
}

func (t *Terminal) RenderChatList(chats []models.Chat, activeID string) {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Chats") + "\n")
	for i, chat := range chats {
		line := fmt.Sprintf("%d. %s", i+1, chat.Title)
		if chat.ID == activeID {
			b.WriteString(activeStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString(dimStyle.Render("  "+line) + "\n")
	}
	t.write(b.String())
}

func (t *Terminal) RenderMessages(msgs []models.Message) {
	if len(msgs) == 0 {
		t.write(dimStyle.Render("READY TO WRITE? Share your creative idea below.") + "\n")
		return
	}
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(t.message(m))
	}
	t.write(b.String())
}

func (t *Terminal) AppendMessage(msg models.Message) {
	t.write(t.message(msg))
}

func (t *Terminal) ShowLoading() {
	t.write(dimStyle.Render("InkWise is writing...") + "\n")
}

func (t *Terminal) HideLoading() {}

func (t *Terminal) Redirect(string) {
	t.write(warnStyle.Render("Your session has expired. Please log in again.") + "\n")
}

func (t *Terminal) message(m models.Message) string {
	label := userLabel.Render("You")
	if m.Role == models.RoleAssistant {
		label = assistantLabel.Render("InkWise")
	}
	body := bubbleStyle.Width(t.width - 2).Render(format.Plain(m.Content))
	return label + "\n" + body + "\n"
}

func (t *Terminal) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	io.WriteString(t.out, s)
}
