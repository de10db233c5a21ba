package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"inkwise/internal/models"
)

const notConfiguredReply = "The AI service is not configured. Please set GEMINI_API_KEY in your .env file."

// titleWords is how many words of the first message become the chat title.
const titleWords = 5

// GeminiService generates replies for the backend through the Gemini SDK.
type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, concurrentReqs int) (*GeminiService, error) {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	if apiKey == "" {
		log.Println("WARNING: GEMINI_API_KEY not set, AI responses disabled")
		return &GeminiService{rateChan: rateChan}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(GenerationTemperature)
	model.SetMaxOutputTokens(GenerationMaxOutputTokens)

	return &GeminiService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

// Configured reports whether an API key was supplied.
func (s *GeminiService) Configured() bool {
	return s.model != nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Generate writes a piece about topic in the requested style.
func (s *GeminiService) Generate(ctx context.Context, topic string, style models.Style) (string, error) {
	if s.model == nil {
		return notConfiguredReply, nil
	}

	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(BuildWritingPrompt(topic, style)))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("Gemini returned empty text")
	}
	return text, nil
}

// BuildWritingPrompt renders the backend's creative-writing instruction.
func BuildWritingPrompt(topic string, style models.Style) string {
	desc := style.Description()

	var b strings.Builder
	b.WriteString("You are InkWise, a creative writing assistant.\n")
	b.WriteString(fmt.Sprintf("Write %s about: %s\n\n", desc, topic))
	b.WriteString("Guidelines:\n")
	b.WriteString(fmt.Sprintf("1. Follow the conventions of %s\n", desc))
	b.WriteString("2. Be creative, vivid, and engaging\n")
	b.WriteString("3. Appropriate length for the style\n")
	b.WriteString("4. No meta-commentary, just the writing itself\n")
	return b.String()
}

// TitleFromTopic shortens the first message of a chat into its title.
func TitleFromTopic(topic string) string {
	words := strings.Fields(topic)
	if len(words) == 0 {
		return models.DefaultChatTitle
	}
	if len(words) > titleWords {
		return strings.Join(words[:titleWords], " ") + "..."
	}
	return strings.Join(words, " ")
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
