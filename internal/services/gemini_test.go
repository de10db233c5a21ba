package services

import (
	"context"
	"strings"
	"testing"

	"inkwise/internal/models"
)

func TestBuildWritingPrompt(t *testing.T) {
	prompt := BuildWritingPrompt("autumn leaves", models.StyleHaiku)

	if !strings.Contains(prompt, "Write a three-line Japanese poetry format (5-7-5 syllables) about: autumn leaves") {
		t.Errorf("prompt missing style instruction:\n%s", prompt)
	}
	if !strings.HasPrefix(prompt, "You are InkWise") {
		t.Errorf("prompt missing role line:\n%s", prompt)
	}
}

func TestBuildWritingPrompt_UnknownStyle(t *testing.T) {
	prompt := BuildWritingPrompt("dragons", models.Style("limerick"))
	if !strings.Contains(prompt, "Write a creative piece about: dragons") {
		t.Errorf("expected generic description, got:\n%s", prompt)
	}
}

func TestTitleFromTopic(t *testing.T) {
	tests := []struct {
		topic    string
		expected string
	}{
		{"Tell me about the moon", "Tell me about the moon"},
		{"Write a poem about the quiet sea", "Write a poem about the..."},
		{"  spaced   out  ", "spaced out"},
		{"   ", models.DefaultChatTitle},
	}

	for _, tc := range tests {
		if got := TitleFromTopic(tc.topic); got != tc.expected {
			t.Errorf("TitleFromTopic(%q) = %q, want %q", tc.topic, got, tc.expected)
		}
	}
}

func TestGeminiService_NotConfigured(t *testing.T) {
	svc, err := NewGeminiService("", "gemini-1.5-pro-latest", 2)
	if err != nil {
		t.Fatalf("NewGeminiService failed: %v", err)
	}
	defer svc.Close()

	if svc.Configured() {
		t.Fatal("expected service to be unconfigured without a key")
	}

	text, err := svc.Generate(context.Background(), "anything", models.StylePoem)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != notConfiguredReply {
		t.Errorf("unexpected reply %q", text)
	}
}
