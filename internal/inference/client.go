// Package inference calls the AI inference service that searches for
// half-staff proclamations and answers with a structured JSON record.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the inference surface the updater depends on.
type Client interface {
	SearchProclamations(ctx context.Context) (*Response, error)
}

// ToolDefinition describes a tool offered to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ContentBlock is one element of the model's answer.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage reports token consumption for a call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the parsed Messages API answer.
type Response struct {
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// TextBlocks returns the text of every text block in order.
func (r *Response) TextBlocks() []string {
	var blocks []string
	for _, b := range r.Content {
		if b.Type == "text" {
			blocks = append(blocks, b.Text)
		}
	}
	return blocks
}

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	apiBase    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewAnthropicClient creates a client. Empty base, model, maxTokens and
// timeout fall back to working defaults.
func NewAnthropicClient(apiKey, apiBase, model string, maxTokens int, timeout time.Duration) *AnthropicClient {
	if apiBase == "" {
		apiBase = "https://api.anthropic.com"
	}
	if model == "" {
		model = "claude-3-sonnet-20240229"
	}
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AnthropicClient{
		apiKey:    apiKey,
		apiBase:   strings.TrimSuffix(apiBase, "/"),
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SearchProclamations sends the proclamation search prompt with the
// web_search tool attached and returns the raw structured answer.
func (c *AnthropicClient) SearchProclamations(ctx context.Context) (*Response, error) {
	if c.apiKey == "" {
		return nil, &Error{Message: "missing API key", Hint: "set inference.apiKey in config.json or export ANTHROPIC_API_KEY"}
	}

	body := map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": searchPrompt},
		},
		"tools": []ToolDefinition{webSearchTool()},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
			Hint:       hintFor(resp.StatusCode),
		}
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &apiResp, nil
}

func webSearchTool() ToolDefinition {
	return ToolDefinition{
		Name:        "web_search",
		Description: "Search the web for information",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "Search query"},
			},
			"required": []string{"query"},
		},
	}
}
