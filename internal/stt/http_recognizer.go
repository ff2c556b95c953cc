package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/loqalabs/loqa-dictate/internal/config"
)

// httpRecognizer uploads the clip to an OpenAI-compatible
// /v1/audio/transcriptions endpoint (whisper.cpp server, faster-whisper,
// hosted APIs).
type httpRecognizer struct {
	endpoint string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

type httpTranscription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func NewHTTPRecognizer(cfg config.STTConfig, client *http.Client) Recognizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpRecognizer{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		language: cfg.Language,
		client:   client,
	}
}

func (r *httpRecognizer) Transcribe(ctx context.Context, samples []float32, sampleRate int) (TranscriptResult, error) {
	var wav seekBuffer
	if err := encodeWAV(&wav, samples, sampleRate); err != nil {
		return TranscriptResult{}, err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return TranscriptResult{}, err
	}
	if _, err := part.Write(wav.Bytes()); err != nil {
		return TranscriptResult{}, err
	}
	fields := map[string]string{"model": r.model, "language": r.language, "response_format": "json"}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := form.WriteField(k, v); err != nil {
			return TranscriptResult{}, err
		}
	}
	if err := form.Close(); err != nil {
		return TranscriptResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/v1/audio/transcriptions", &body)
	if err != nil {
		return TranscriptResult{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return TranscriptResult{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return TranscriptResult{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return TranscriptResult{}, fmt.Errorf("%w: %s returned 404", ErrModelUnavailable, req.URL.Path)
	}
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return TranscriptResult{}, fmt.Errorf("%w: status %d: %s", ErrInternal, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out httpTranscription
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return TranscriptResult{}, fmt.Errorf("%w: decode response: %v", ErrInternal, err)
	}
	return TranscriptResult{Text: out.Text, Language: out.Language}, nil
}

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + len(p)
	if end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	copy(s.buf[s.pos:], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(s.pos) + offset
	case io.SeekEnd:
		next = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative position %d", next)
	}
	s.pos = int(next)
	return next, nil
}

func (s *seekBuffer) Bytes() []byte { return s.buf }
