package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/loqalabs/loqa-dictate/internal/rolling"
)

// openAICorrector talks to any OpenAI-compatible /v1/chat/completions endpoint
// (Ollama, LM Studio, vLLM, hosted APIs).
type openAICorrector struct {
	opts    Options
	prompts PromptBuilder
	client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAICorrector(opts Options, client *http.Client) Corrector {
	if client == nil {
		client = http.DefaultClient
	}
	return &openAICorrector{opts: opts, prompts: NewPromptBuilder(opts.Language), client: client}
}

func (c *openAICorrector) Correct(ctx context.Context, raw string, snap rolling.Snapshot) (string, error) {
	system, user := c.prompts.Chat(raw, snap)
	payload := chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:      false,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrNetwork, err)
	}

	url := strings.TrimRight(c.opts.Endpoint, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(c.opts.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: endpoint returned %s: %s", ErrNetwork, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if ctx.Err() != nil {
			return "", transportError(ctx, err)
		}
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	text := cleanReply(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
