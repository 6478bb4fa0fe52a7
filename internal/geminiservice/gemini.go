package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"GearUpToFit/internal/config"
	"github.com/rs/zerolog"
)

// --- Gemini API Configuration ---
const (
	structuredMimeType = "application/json"
	maxErrorBodyBytes  = 512
	maxResponseBytes   = 4 << 20
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents         []GeminiContent   `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *GeminiSchema `json:"responseSchema,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Client is the structured inference client. It holds only read-only
// configuration and is safe for concurrent use. Every call issues exactly
// one request: no retry, no caching, no deduplication.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient fails with ErrMissingAPIKey when the credential is absent, so a
// misconfigured process never reaches the network.
func NewClient(cfg config.GeminiConfig, httpClient *http.Client, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("gemini base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "gemini").Str("model", cfg.Model).Logger(),
	}, nil
}

// Model returns the model identifier every request is sent to.
func (c *Client) Model() string { return c.model }

// generateContent performs the single HTTP round trip. A nil schema sends a
// free-text request; otherwise Gemini is constrained to JSON matching schema.
func (c *Client) generateContent(ctx context.Context, operation, prompt string, schema *GeminiSchema) (string, error) {
	payload := GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: prompt}}},
		},
	}
	if schema != nil {
		payload.GenerationConfig = &GenerationConfig{
			ResponseMimeType: structuredMimeType,
			ResponseSchema:   schema,
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	c.logger.Info().Str("operation", operation).Msg("Calling Gemini API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("operation", operation).Msg("Gemini request failed")
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	log := c.logger.With().
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Logger()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		tErr := &TransportError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBodyBytes)}
		log.Warn().Err(tErr).Msg("Gemini API returned non-success status")
		return "", tErr
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response envelope: %w", err)}
	}

	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		return "", &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("prompt blocked: %s", geminiResp.PromptFeedback.BlockReason),
		}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: errors.New("no content found in Gemini response")}
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	log.Info().Str("finish_reason", geminiResp.Candidates[0].FinishReason).Msg("Gemini API call succeeded")
	return text.String(), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
