package stt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-audio/wav"
	"github.com/loqalabs/loqa-dictate/internal/config"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	t.Parallel()
	var buf seekBuffer
	samples := []float32{0, 0.5, -0.5, 1, -1, 2}
	if err := encodeWAV(&buf, samples, 16000); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Fatalf("missing RIFF header")
	}
	dec := wav.NewDecoder(bytes.NewReader(buf.Bytes()))
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pcm.Format.SampleRate != 16000 || pcm.Format.NumChannels != 1 {
		t.Fatalf("unexpected format %+v", pcm.Format)
	}
	want := []int{0, 16384, -16384, 32767, -32767, 32767}
	if len(pcm.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(pcm.Data))
	}
	for i := range want {
		if pcm.Data[i] != want[i] {
			t.Fatalf("sample %d: got %d want %d", i, pcm.Data[i], want[i])
		}
	}
}

func TestHTTPRecognizer(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("language") != "th" || r.FormValue("model") != "whisper-1" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if !bytes.HasPrefix(data, []byte("RIFF")) {
				t.Errorf("expected wav upload")
			}
		}
		_, _ = w.Write([]byte(`{"text":"สวัสดีครับ"}`))
	}))
	defer srv.Close()

	rec := NewHTTPRecognizer(config.STTConfig{Endpoint: srv.URL + "/", APIKey: "key", Model: "whisper-1", Language: "th"}, srv.Client())
	res, err := rec.Transcribe(context.Background(), seconds(1), 16000)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Text != "สวัสดีครับ" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestHTTPRecognizerErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "missing endpoint", status: http.StatusNotFound, want: ErrModelUnavailable},
		{name: "server error", status: http.StatusInternalServerError, want: ErrInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()
			rec := NewHTTPRecognizer(config.STTConfig{Endpoint: srv.URL}, srv.Client())
			if _, err := rec.Transcribe(context.Background(), seconds(1), 16000); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestExecRecognizer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script recognizer")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "stt.sh")
	body := "#!/bin/sh\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  if [ \"$1\" = \"--audio\" ] && [ -s \"$2\" ]; then found=1; fi\n" +
		"  shift\n" +
		"done\n" +
		"[ \"$found\" = 1 ] || exit 3\n" +
		"echo '{\"text\":\"ok\",\"confidence\":0.9}'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	rec, err := NewExecRecognizer(config.STTConfig{Command: script, Language: "th"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := rec.Transcribe(context.Background(), seconds(0.5), 16000)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Text != "ok" || res.Confidence != 0.9 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExecRecognizerModelUnavailable(t *testing.T) {
	t.Parallel()
	rec, err := NewExecRecognizer(config.STTConfig{Command: "stt", ModelPath: filepath.Join(t.TempDir(), "missing.bin")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := rec.Transcribe(context.Background(), seconds(1), 16000); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}

	rec, err = NewExecRecognizer(config.STTConfig{Command: "loqa-dictate-no-such-binary"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := rec.Transcribe(context.Background(), seconds(1), 16000); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected model unavailable for missing binary, got %v", err)
	}
}

func TestNewExecRecognizerRejectsEmptyCommand(t *testing.T) {
	t.Parallel()
	if _, err := NewExecRecognizer(config.STTConfig{Command: "  "}); err == nil {
		t.Fatalf("expected error for empty command")
	}
}
