package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/loqalabs/loqa-dictate/internal/rolling"
)

// ollamaCorrector uses the native /api/generate endpoint with the flat prompt
// and accumulates the streamed response.
type ollamaCorrector struct {
	opts    Options
	prompts PromptBuilder
	client  *http.Client
}

func NewOllamaCorrector(opts Options, client *http.Client) Corrector {
	if client == nil {
		client = http.DefaultClient
	}
	return &ollamaCorrector{opts: opts, prompts: NewPromptBuilder(opts.Language), client: client}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaStreamResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (c *ollamaCorrector) Correct(ctx context.Context, raw string, snap rolling.Snapshot) (string, error) {
	payload := ollamaRequest{
		Model:  c.opts.Model,
		Prompt: c.prompts.Flat(raw, snap),
		Stream: true,
		Options: ollamaOptions{
			Temperature: c.opts.Temperature,
			NumPredict:  c.opts.MaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrNetwork, err)
	}

	url := strings.TrimRight(c.opts.Endpoint, "/") + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: ollama returned status %s", ErrNetwork, resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	var accumulated strings.Builder
	done := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var chunk ollamaStreamResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNetwork, chunk.Error)
		}
		accumulated.WriteString(chunk.Response)
		if chunk.Done {
			done = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", transportError(ctx, err)
	}
	if !done {
		return "", fmt.Errorf("%w: stream ended before done", ErrMalformedResponse)
	}

	text := cleanReply(accumulated.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
