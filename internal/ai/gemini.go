package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// GeminiConfig configures the Gemini REST client.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
}

// GeminiClient implements Completer against the Gemini generateContent
// REST API.
type GeminiClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxAttempts int
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(cfg GeminiConfig, logger *slog.Logger) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxAttempts: cfg.MaxAttempts,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompts and returns the concatenated candidate
// text. Transient failures are retried with exponential backoff, up to
// the configured attempt limit.
func (c *GeminiClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: API key not configured")
	}

	// Centralized timeout: callers without a deadline get one wide
	// enough for every attempt plus the backoffs between them.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.retryBudget())
		defer cancel()
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.4,
			ResponseMimeType: "application/json",
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(1<<uint(attempt-2)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("gemini: %w (last error: %v)", ctx.Err(), lastErr)
			}
		}

		text, retryable, err := c.doRequest(ctx, url, jsonData)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		c.logger.WarnContext(ctx, "gemini request failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}

	return "", fmt.Errorf("gemini: max attempts exceeded: %w", lastErr)
}

// retryBudget is the worst-case wall time Complete can spend: every
// attempt running to the per-request timeout, plus the exponential
// backoffs between attempts.
func (c *GeminiClient) retryBudget() time.Duration {
	budget := time.Duration(c.maxAttempts) * c.httpClient.Timeout
	for attempt := 2; attempt <= c.maxAttempts; attempt++ {
		budget += time.Duration(1<<uint(attempt-2)) * time.Second
	}
	return budget
}

func (c *GeminiClient) doRequest(ctx context.Context, url string, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("gemini: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, respBody)
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("gemini: failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("gemini: API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("gemini: no completion returned")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), false, nil
}
