package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/postsmith/ghostwriter-backend/internal/config"
)

var (
	ErrTopicRequired    = errors.New("topic is required")
	ErrUpstreamFailure  = errors.New("generation API returned an error")
	ErrGenerationFailed = errors.New("failed to generate post")
)

// GenerationService wraps the hosted chat-completion endpoint behind a single
// request/response call. It is a thin proxy on purpose: one bounded call, one
// retry on a transport error, no streaming, no output validation.
type GenerationService struct {
	apiKey   string
	apiURL   string
	model    string
	appURL   string
	appTitle string
	client   *http.Client
}

func NewGenerationService(cfg *config.Config) *GenerationService {
	return &GenerationService{
		apiKey:   cfg.OpenRouterAPIKey,
		apiURL:   cfg.OpenRouterAPIURL,
		model:    cfg.OpenRouterModel,
		appURL:   cfg.AppURL,
		appTitle: cfg.AppTitle,
		client:   &http.Client{Timeout: cfg.AITimeout},
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPersona = "You are a professional LinkedIn ghostwriter who creates viral content for startup founders."

// Generate renders the ghostwriter prompt and issues one chat-completion
// call. An empty topic fails before any network traffic.
func (s *GenerationService) Generate(topic, tone, industry string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", ErrTopicRequired
	}

	reqBody := chatCompletionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: buildPrompt(topic, tone, industry)},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.post(jsonData)
	if err != nil {
		slog.Error("generation request failed", "error", err)
		return "", ErrGenerationFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("generation API error", "status", resp.StatusCode, "body", string(body))
		return "", ErrUpstreamFailure
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		slog.Error("generation response decode failed", "error", err)
		return "", ErrGenerationFailed
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrGenerationFailed
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// post sends the completion request, retrying once on a transport error.
// HTTP error statuses are not retried.
func (s *GenerationService) post(body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("HTTP-Referer", s.appURL)
		req.Header.Set("X-Title", s.appTitle)

		resp, err := s.client.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func buildPrompt(topic, tone, industry string) string {
	return fmt.Sprintf(`
Role: You're a $10,000/month LinkedIn ghostwriter.

Task: Write a viral post about %q in %s tone.

Rules:
- First line must shock or intrigue
- Share a personal failure lesson
- End with a philosophical question
- Format: Short paragraphs, no buzzwords
- Hashtag: %s

Example structure:
"[CONTROVERSIAL OPINION]. When I [FAILURE STORY], I learned [INSIGHT]. Was I wrong? [QUESTION] #StartupTruths"
`, topic, tone, industryHashtag(industry))
}

// industryHashtag builds the #<Industry>Life tag, keeping only characters
// that survive as a hashtag.
func industryHashtag(industry string) string {
	var b strings.Builder
	for _, r := range industry {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		cleaned = "Startup"
	}
	return "#" + cleaned + "Life"
}
