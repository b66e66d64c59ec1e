// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const defaultMaxTokensPerCall = 8192

// Claude calls the Claude Messages API. It implements Client with the model
// identifier fixed at construction time.
type Claude struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewClaude constructs a Claude client bound to one model. A nil httpClient
// falls back to http.DefaultClient.
func NewClaude(cfg types.AIConfig, httpClient *http.Client) *Claude {
	maxTokens := cfg.MaxTokensPerCall
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokensPerCall
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Claude{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: maxTokens,
		client:    httpClient,
	}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Usage   claudeUsage     `json:"usage"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// claudeUsage is the token accounting block in the Claude API response.
type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// GenerateText sends prompt as a single user message and returns the text
// of the first text content block.
func (c *Claude) GenerateText(ctx context.Context, prompt string) (TextResult, error) {
	text, usage, err := c.call(ctx, prompt)
	if err != nil {
		return TextResult{}, err
	}
	return TextResult{Text: text, Usage: usage}, nil
}

// GenerateStructured sends prompt and unmarshals the response text into out.
// The response may wrap the JSON object in surrounding prose; everything
// outside the outermost braces is ignored.
func (c *Claude) GenerateStructured(ctx context.Context, prompt string, out any) (types.TokenUsage, error) {
	text, usage, err := c.call(ctx, prompt)
	if err != nil {
		return usage, err
	}
	if err := json.Unmarshal([]byte(extractJSONObject(text)), out); err != nil {
		return usage, fmt.Errorf("parsing structured response: %w", err)
	}
	return usage, nil
}

// call performs one Messages API round trip.
func (c *Claude) call(ctx context.Context, prompt string) (string, types.TokenUsage, error) {
	reqBody := claudeRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", types.TokenUsage{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", types.TokenUsage{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", types.TokenUsage{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", types.TokenUsage{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", types.TokenUsage{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	usage := types.TokenUsage{
		InputTokens:  cResp.Usage.InputTokens,
		OutputTokens: cResp.Usage.OutputTokens,
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, usage, nil
		}
	}

	return "", usage, fmt.Errorf("no text content in Claude API response")
}

// extractJSONObject trims text to its outermost JSON object. When no braces
// are present the text is returned unchanged so json.Unmarshal reports the
// real parse error.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
