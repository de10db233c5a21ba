package view

import (
	"bytes"
	"strings"
	"testing"

	"inkwise/internal/models"
)

func TestHTML_ChatListMarksActiveAndEscapes(t *testing.T) {
	h := NewHTML()
	h.RenderChatList([]models.Chat{
		{ID: "a", Title: "<b>Moon</b>"},
		{ID: "b", Title: "Sea"},
	}, "b")

	out := h.ChatList()
	if strings.Contains(out, "<b>Moon</b>") {
		t.Errorf("chat title was not escaped: %s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;Moon&lt;/b&gt;") {
		t.Errorf("expected escaped title in %s", out)
	}
	if !strings.Contains(out, `class="chat-item active" data-id="b"`) {
		t.Errorf("active chat not marked: %s", out)
	}
	if strings.Contains(out, `class="chat-item active" data-id="a"`) {
		t.Errorf("inactive chat marked active: %s", out)
	}
}

func TestHTML_HistoryStates(t *testing.T) {
	h := NewHTML()
	h.RenderMessages(nil)
	if !strings.Contains(h.History(), "READY TO WRITE?") {
		t.Fatalf("expected empty state, got %s", h.History())
	}

	h.AppendMessage(models.Message{ID: "u1", Role: models.RoleUser, Content: "Tell me <about> the **moon**"})
	h.ShowLoading()
	out := h.History()
	if strings.Contains(out, "READY TO WRITE?") {
		t.Error("empty state shown alongside messages")
	}
	if !strings.Contains(out, "loading-indicator") {
		t.Error("loading indicator missing")
	}
	if !strings.Contains(out, "Tell me &lt;about&gt; the <strong>moon</strong>") {
		t.Errorf("message content not formatted: %s", out)
	}

	h.HideLoading()
	h.AppendMessage(models.Message{ID: "a1", Role: models.RoleAssistant, Content: "line one\nline two"})
	out = h.History()
	if strings.Contains(out, "loading-indicator") {
		t.Error("loading indicator still shown")
	}
	if !strings.Contains(out, "line one<br>line two") || !strings.Contains(out, "message-assistant") {
		t.Errorf("assistant message not rendered: %s", out)
	}
}

func TestHTML_RenderMessagesReplacesHistory(t *testing.T) {
	h := NewHTML()
	h.AppendMessage(models.Message{Role: models.RoleUser, Content: "old"})
	h.RenderMessages([]models.Message{{Role: models.RoleUser, Content: "new"}})

	out := h.History()
	if strings.Contains(out, "old") || !strings.Contains(out, "new") {
		t.Errorf("history not replaced: %s", out)
	}
}

func TestHTML_Redirect(t *testing.T) {
	h := NewHTML()
	h.Redirect("/")
	if h.RedirectTarget() != "/" {
		t.Errorf("expected redirect target /, got %q", h.RedirectTarget())
	}
}

func TestRenderChatbot(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChatbot(&buf, PageData{
		UserName: "Ada",
		Chats:    []models.Chat{{ID: "c1", Title: "Moon"}},
		ActiveID: "c1",
		Style:    models.StyleHaiku,
	})
	if err != nil {
		t.Fatalf("RenderChatbot failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Hello, Ada", `data-id="c1"`, "READY TO WRITE?", `<option value="haiku" selected>Haiku</option>`, "<!DOCTYPE html>"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRenderLanding(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderLanding(&buf); err != nil {
		t.Fatalf("RenderLanding failed: %v", err)
	}
	if !strings.Contains(buf.String(), "/api/login") {
		t.Error("landing page has no login form")
	}
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.RenderChatList([]models.Chat{{ID: "a", Title: "Moon"}, {ID: "b", Title: "Sea"}}, "a")
	term.RenderMessages(nil)
	term.AppendMessage(models.Message{Role: models.RoleUser, Content: "hi"})
	term.AppendMessage(models.Message{Role: models.RoleAssistant, Content: "a **bold** reply"})
	term.Redirect("/")

	out := buf.String()
	for _, want := range []string{"> 1. Moon", "2. Sea", "READY TO WRITE?", "You", "InkWise", "a bold reply", "session has expired"} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, ">  1.") {
		t.Errorf("chat numbers should not be padded:\n%s", out)
	}
}
