package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"inkwise/internal/models"
)

const (
	DefaultGenerationEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent"

	GenerationTemperature     = 0.7
	GenerationMaxOutputTokens = 1000
)

var (
	ErrMissingCredential       = errors.New("API key not found. Please check your .env file and make sure it contains API_KEY")
	ErrUnexpectedResponseShape = errors.New("unexpected API response format")
)

// GenerationAPIError is a non-success reply from the generation endpoint.
type GenerationAPIError struct {
	Status  int
	Message string
}

func (e *GenerationAPIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// CredentialSource supplies the generation API key at call time.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed API key.
type StaticCredential string

func (c StaticCredential) Credential(context.Context) (string, error) { return string(c), nil }

// GenerationClient issues single-shot generateContent calls over REST.
type GenerationClient struct {
	Endpoint    string
	HTTPClient  *http.Client
	Credentials CredentialSource
}

func NewGenerationClient(endpoint string, creds CredentialSource) *GenerationClient {
	if endpoint == "" {
		endpoint = DefaultGenerationEndpoint
	}
	return &GenerationClient{
		Endpoint:    endpoint,
		HTTPClient:  &http.Client{Timeout: 2 * time.Minute},
		Credentials: creds,
	}
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StylePrompt appends the style instruction to the user's prompt.
func StylePrompt(prompt string, style models.Style) string {
	return fmt.Sprintf("%s\n\nRespond in the style of: %s", prompt, style)
}

// Generate sends one request and returns the first candidate's text.
func (c *GenerationClient) Generate(ctx context.Context, prompt string, style models.Style) (string, error) {
	var key string
	if c.Credentials != nil {
		k, err := c.Credentials.Credential(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load credential: %w", err)
		}
		key = k
	}
	if key == "" {
		return "", ErrMissingCredential
	}

	endpoint, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid generation endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", key)
	endpoint.RawQuery = q.Encode()

	payload, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: StylePrompt(prompt, style)}}}},
		GenerationConfig: generationConfig{
			Temperature:     GenerationTemperature,
			MaxOutputTokens: GenerationMaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	log.Printf("Sending prompt to generation API with style: %s", style)
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &GenerationAPIError{Status: resp.StatusCode, Message: statusMessage(resp)}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != nil && eb.Error.Message != "" {
			apiErr.Message = eb.Error.Message
		}
		log.Printf("Generation API error: %v", apiErr)
		return "", apiErr
	}

	text, err := parseGenerateResponse(body)
	if err != nil {
		log.Printf("Generation API returned an unexpected payload: %v", err)
		return "", err
	}
	return text, nil
}

func parseGenerateResponse(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedResponseShape, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrUnexpectedResponseShape
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == nil || *parts[0].Text == "" {
		return "", ErrUnexpectedResponseShape
	}
	return *parts[0].Text, nil
}

func statusMessage(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
