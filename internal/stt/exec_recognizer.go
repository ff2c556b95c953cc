package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/mattn/go-shellwords"
)

// execRecognizer runs an external transcriber (typically a whisper.cpp
// wrapper) once per utterance. The process receives --audio <wav> plus the
// configured --model and --language, and prints {"text": "..."} on stdout.
type execRecognizer struct {
	cmd []string
	cfg config.STTConfig
	mu  sync.Mutex
}

type execResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

func NewExecRecognizer(cfg config.STTConfig) (Recognizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	return &execRecognizer{cmd: args, cfg: cfg}, nil
}

func (r *execRecognizer) Transcribe(ctx context.Context, samples []float32, sampleRate int) (TranscriptResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.ModelPath != "" {
		if _, err := os.Stat(r.cfg.ModelPath); err != nil {
			return TranscriptResult{}, fmt.Errorf("%w: %s", ErrModelUnavailable, r.cfg.ModelPath)
		}
	}

	path, err := writeTempWAV(samples, sampleRate)
	if err != nil {
		return TranscriptResult{}, err
	}
	defer os.Remove(path)

	cmdArgs := append([]string{}, r.cmd[1:]...)
	cmdArgs = append(cmdArgs, "--audio", path)
	if r.cfg.ModelPath != "" {
		cmdArgs = append(cmdArgs, "--model", r.cfg.ModelPath)
	}
	if r.cfg.Language != "" {
		cmdArgs = append(cmdArgs, "--language", r.cfg.Language)
	}

	command := exec.CommandContext(ctx, r.cmd[0], cmdArgs...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return TranscriptResult{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		if ctx.Err() != nil {
			return TranscriptResult{}, fmt.Errorf("%w: %v", ErrInternal, ctx.Err())
		}
		return TranscriptResult{}, fmt.Errorf("%w: stt command failed: %v: %s", ErrInternal, err, strings.TrimSpace(stderr.String()))
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return TranscriptResult{}, fmt.Errorf("%w: decode stt response: %v", ErrInternal, err)
	}
	return TranscriptResult{Text: resp.Text, Confidence: resp.Confidence, Language: resp.Language}, nil
}
