package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "loqa-dictate.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "loqa-dictate",
	Short: "Push-to-talk dictation with LLM correction",
	Long: `loqa-dictate records while the push-to-talk key is held, transcribes the
clip, optionally corrects it with a language model and pastes the result
into the focused application.

Modes:
  fast      transcript only
  standard  transcript + correction
  context   transcript + correction conditioned on recent sentences`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+defaultConfigFile+" when present)")
}

// configPath is the file to load and watch, or "" for built-in defaults.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

func loadConfig() (config.Config, string, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, err
	}
	return cfg, path, nil
}

// newLogger builds the JSON logger. With toFile set, output goes to
// telemetry.log_file so it does not tear the TUI.
func newLogger(cfg config.Config, toFile bool) (*slog.Logger, io.Closer, error) {
	level := parseLevel(cfg.Telemetry.LogLevel)
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if toFile {
		if cfg.Telemetry.LogFile == "" {
			return nil, nil, errors.New("telemetry.log_file must be set when the TUI is on")
		}
		if dir := filepath.Dir(cfg.Telemetry.LogFile); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.Telemetry.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	return logger.With(slog.String("runtime", cfg.RuntimeName)), closer, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// quietLogger is for one-shot commands whose output is the result itself.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
