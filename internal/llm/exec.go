package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/loqalabs/loqa-dictate/internal/rolling"
	"github.com/mattn/go-shellwords"
)

// execCorrector pipes a JSON request into a local command and reads
// {"content": "..."} from its stdout.
type execCorrector struct {
	cmd     []string
	opts    Options
	prompts PromptBuilder
	mu      sync.Mutex
}

type execRequest struct {
	System      string  `json:"system"`
	Prompt      string  `json:"prompt"`
	Raw         string  `json:"raw"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type execResponse struct {
	Content string `json:"content"`
}

func NewExecCorrector(command string, opts Options) (Corrector, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse llm command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("llm command empty")
	}
	return &execCorrector{cmd: args, opts: opts, prompts: NewPromptBuilder(opts.Language)}, nil
}

func (c *execCorrector) Correct(ctx context.Context, raw string, snap rolling.Snapshot) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	system, user := c.prompts.Chat(raw, snap)
	input, err := json.Marshal(execRequest{
		System:      system,
		Prompt:      user,
		Raw:         raw,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrNetwork, err)
	}

	cmd := exec.CommandContext(ctx, c.cmd[0], c.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", transportError(ctx, err)
		}
		return "", fmt.Errorf("%w: llm exec command failed: %v: %s", ErrNetwork, err, strings.TrimSpace(stderr.String()))
	}

	var resp execResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", fmt.Errorf("%w: decode llm exec response: %v", ErrMalformedResponse, err)
	}
	text := cleanReply(resp.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
