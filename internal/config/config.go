package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level" toml:"log_level"`
	LogFile      string `yaml:"log_file" toml:"log_file"`
	OTLPEndpoint string `yaml:"otlp_endpoint" toml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure" toml:"otlp_insecure"`
	Traces       bool   `yaml:"traces" toml:"traces"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Bind    string `yaml:"bind" toml:"bind"`
	Port    int    `yaml:"port" toml:"port"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name" toml:"runtime_name"`
	Environment string           `yaml:"environment" toml:"environment"`
	HTTP        HTTPConfig       `yaml:"http" toml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry" toml:"telemetry"`
	Bus         BusConfig        `yaml:"bus" toml:"bus"`
	EventStore  EventStoreConfig `yaml:"event_store" toml:"event_store"`
	Pipeline    PipelineConfig   `yaml:"pipeline" toml:"pipeline"`
	Audio       AudioConfig      `yaml:"audio" toml:"audio"`
	STT         STTConfig        `yaml:"stt" toml:"stt"`
	LLM         LLMConfig        `yaml:"llm" toml:"llm"`
	Context     ContextConfig    `yaml:"context" toml:"context"`
	Inject      InjectConfig     `yaml:"inject" toml:"inject"`
	Hotkey      HotkeyConfig     `yaml:"hotkey" toml:"hotkey"`
	UI          UIConfig         `yaml:"ui" toml:"ui"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled" toml:"enabled"`
	Embedded       bool     `yaml:"embedded" toml:"embedded"`
	Host           string   `yaml:"host" toml:"host"`
	Port           int      `yaml:"port" toml:"port"`
	Servers        []string `yaml:"servers" toml:"servers"`
	Username       string   `yaml:"username" toml:"username"`
	Password       string   `yaml:"password" toml:"password"`
	Token          string   `yaml:"token" toml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure" toml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms" toml:"connect_timeout_ms"`
	SubjectPrefix  string   `yaml:"subject_prefix" toml:"subject_prefix"`
	// Presence heartbeats, in milliseconds.
	HeartbeatInterval int `yaml:"heartbeat_interval_ms" toml:"heartbeat_interval_ms"`
	HeartbeatTimeout  int `yaml:"heartbeat_timeout_ms" toml:"heartbeat_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path" toml:"path"`
	RetentionMode string `yaml:"retention_mode" toml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days" toml:"retention_days"`
	MaxUtterances int    `yaml:"max_utterances" toml:"max_utterances"`
	VacuumOnStart bool   `yaml:"vacuum_on_start" toml:"vacuum_on_start"`
	StoreText     bool   `yaml:"store_text" toml:"store_text"`
}

type PipelineConfig struct {
	Mode      string `yaml:"mode" toml:"mode"`
	QueueSize int    `yaml:"queue_size" toml:"queue_size"`
}

type AudioConfig struct {
	Enabled          bool    `yaml:"enabled" toml:"enabled"`
	Device           string  `yaml:"device" toml:"device"`
	SampleRate       int     `yaml:"sample_rate" toml:"sample_rate"`
	FramesPerBuffer  int     `yaml:"frames_per_buffer" toml:"frames_per_buffer"`
	MinRecordingSecs float64 `yaml:"min_recording_secs" toml:"min_recording_secs"`
	MaxRecordingSecs float64 `yaml:"max_recording_secs" toml:"max_recording_secs"`
	TrimSilence      bool    `yaml:"trim_silence" toml:"trim_silence"`
	VADMode          int     `yaml:"vad_mode" toml:"vad_mode"`
	QuietThreshold   float64 `yaml:"quiet_threshold" toml:"quiet_threshold"`
}

type STTConfig struct {
	Mode      string `yaml:"mode" toml:"mode"` // exec, http, mock
	Command   string `yaml:"command" toml:"command"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	APIKey    string `yaml:"api_key" toml:"api_key"`
	Model     string `yaml:"model" toml:"model"`
	ModelPath string `yaml:"model_path" toml:"model_path"`
	Language  string `yaml:"language" toml:"language"`
	TimeoutMS int    `yaml:"timeout_ms" toml:"timeout_ms"`
	MockText  string `yaml:"mock_text" toml:"mock_text"`
}

type LLMConfig struct {
	Enabled     bool    `yaml:"enabled" toml:"enabled"`
	Mode        string  `yaml:"mode" toml:"mode"` // openai, ollama, exec, mock
	Endpoint    string  `yaml:"endpoint" toml:"endpoint"`
	APIKey      string  `yaml:"api_key" toml:"api_key"`
	Command     string  `yaml:"command" toml:"command"`
	Model       string  `yaml:"model" toml:"model"`
	Language    string  `yaml:"language" toml:"language"`
	MaxTokens   int     `yaml:"max_tokens" toml:"max_tokens"`
	Temperature float64 `yaml:"temperature" toml:"temperature"`
	TimeoutMS   int     `yaml:"timeout_ms" toml:"timeout_ms"`
}

type ContextConfig struct {
	WindowSize       int `yaml:"window_size" toml:"window_size"`
	ResetSilenceSecs int `yaml:"reset_silence_secs" toml:"reset_silence_secs"`
	VocabularyTopK   int `yaml:"vocabulary_top_k" toml:"vocabulary_top_k"`
}

type InjectConfig struct {
	Enabled          bool   `yaml:"enabled" toml:"enabled"`
	AutoPaste        bool   `yaml:"auto_paste" toml:"auto_paste"`
	PasteCommand     string `yaml:"paste_command" toml:"paste_command"`
	FocusCommand     string `yaml:"focus_command" toml:"focus_command"`
	PasteDelayMS     int    `yaml:"paste_delay_ms" toml:"paste_delay_ms"`
	RestoreDelayMS   int    `yaml:"restore_delay_ms" toml:"restore_delay_ms"`
	RestoreClipboard bool   `yaml:"restore_clipboard" toml:"restore_clipboard"`
	RequireThai      bool   `yaml:"require_thai" toml:"require_thai"`
}

type HotkeyConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled"`
	PushToTalk string `yaml:"push_to_talk" toml:"push_to_talk"`
	Cancel     string `yaml:"cancel" toml:"cancel"`
}

type UIConfig struct {
	TUI         bool `yaml:"tui" toml:"tui"`
	ShowRawText bool `yaml:"show_raw_text" toml:"show_raw_text"`
}

func Default() Config {
	return Config{
		RuntimeName: "loqa-dictate",
		Environment: "development",
		HTTP: HTTPConfig{
			Enabled: true,
			Bind:    "127.0.0.1",
			Port:    8089,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			LogFile:      "./data/loqa-dictate.log",
			OTLPEndpoint: "",
			OTLPInsecure: true,
			Traces:       false,
		},
		Bus: BusConfig{
			Enabled:        true,
			Embedded:       true,
			Host:           "127.0.0.1",
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
			SubjectPrefix:  "dictation",

			HeartbeatInterval: 5000,
			HeartbeatTimeout:  15000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/loqa-dictate.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxUtterances: 5000,
			StoreText:     true,
		},
		Pipeline: PipelineConfig{
			Mode:      "standard",
			QueueSize: 32,
		},
		Audio: AudioConfig{
			Enabled:          true,
			SampleRate:       16000,
			FramesPerBuffer:  512,
			MinRecordingSecs: 0.5,
			MaxRecordingSecs: 60,
			TrimSilence:      true,
			VADMode:          2,
			QuietThreshold:   0.01,
		},
		STT: STTConfig{
			Mode:      "mock",
			Language:  "th",
			TimeoutMS: 30000,
			MockText:  "สวัสดี",
		},
		LLM: LLMConfig{
			Enabled:     true,
			Mode:        "openai",
			Endpoint:    "http://localhost:11434",
			Model:       "qwen2.5:3b",
			Language:    "th",
			MaxTokens:   256,
			Temperature: 0.3,
			TimeoutMS:   10000,
		},
		Context: ContextConfig{
			WindowSize:       3,
			ResetSilenceSecs: 120,
			VocabularyTopK:   5,
		},
		Inject: InjectConfig{
			Enabled:          true,
			AutoPaste:        true,
			PasteCommand:     defaultPasteCommand(),
			PasteDelayMS:     50,
			RestoreDelayMS:   100,
			RestoreClipboard: true,
		},
		Hotkey: HotkeyConfig{
			Enabled:    true,
			PushToTalk: "F9",
		},
		UI: UIConfig{
			TUI:         false,
			ShowRawText: true,
		},
	}
}

// defaultPasteCommand is empty where the built-in key simulator sends the
// paste chord itself.
func defaultPasteCommand() string {
	if goruntime.GOOS == "darwin" {
		return `osascript -e 'tell application "System Events" to keystroke "v" using command down'`
	}
	return ""
}

// Load reads path (yaml, or toml when the extension is .toml) over the
// defaults, applies LOQA_* environment overrides and validates the result.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "LOQA_RUNTIME_NAME")
	overrideString(&cfg.Environment, "LOQA_RUNTIME_ENVIRONMENT")
	overrideBool(&cfg.HTTP.Enabled, "LOQA_HTTP_ENABLED")
	overrideString(&cfg.HTTP.Bind, "LOQA_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "LOQA_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "LOQA_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.LogFile, "LOQA_TELEMETRY_LOG_FILE")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "LOQA_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "LOQA_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Telemetry.Traces, "LOQA_TELEMETRY_TRACES")
	overrideBool(&cfg.Bus.Enabled, "LOQA_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "LOQA_BUS_EMBEDDED")
	overrideString(&cfg.Bus.Host, "LOQA_BUS_HOST")
	overrideInt(&cfg.Bus.Port, "LOQA_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "LOQA_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "LOQA_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "LOQA_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "LOQA_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "LOQA_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "LOQA_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Bus.SubjectPrefix, "LOQA_BUS_SUBJECT_PREFIX")
	overrideInt(&cfg.Bus.HeartbeatInterval, "LOQA_BUS_HEARTBEAT_INTERVAL_MS")
	overrideInt(&cfg.Bus.HeartbeatTimeout, "LOQA_BUS_HEARTBEAT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "LOQA_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "LOQA_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "LOQA_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxUtterances, "LOQA_EVENT_STORE_MAX_UTTERANCES")
	overrideBool(&cfg.EventStore.VacuumOnStart, "LOQA_EVENT_STORE_VACUUM_ON_START")
	overrideBool(&cfg.EventStore.StoreText, "LOQA_EVENT_STORE_STORE_TEXT")
	overrideString(&cfg.Pipeline.Mode, "LOQA_PIPELINE_MODE")
	overrideInt(&cfg.Pipeline.QueueSize, "LOQA_PIPELINE_QUEUE_SIZE")
	overrideBool(&cfg.Audio.Enabled, "LOQA_AUDIO_ENABLED")
	overrideString(&cfg.Audio.Device, "LOQA_AUDIO_DEVICE")
	overrideInt(&cfg.Audio.SampleRate, "LOQA_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.FramesPerBuffer, "LOQA_AUDIO_FRAMES_PER_BUFFER")
	overrideFloat(&cfg.Audio.MinRecordingSecs, "LOQA_AUDIO_MIN_RECORDING_SECS")
	overrideFloat(&cfg.Audio.MaxRecordingSecs, "LOQA_AUDIO_MAX_RECORDING_SECS")
	overrideBool(&cfg.Audio.TrimSilence, "LOQA_AUDIO_TRIM_SILENCE")
	overrideInt(&cfg.Audio.VADMode, "LOQA_AUDIO_VAD_MODE")
	overrideFloat(&cfg.Audio.QuietThreshold, "LOQA_AUDIO_QUIET_THRESHOLD")
	overrideString(&cfg.STT.Mode, "LOQA_STT_MODE")
	overrideString(&cfg.STT.Command, "LOQA_STT_COMMAND")
	overrideString(&cfg.STT.Endpoint, "LOQA_STT_ENDPOINT")
	overrideString(&cfg.STT.APIKey, "LOQA_STT_API_KEY")
	overrideString(&cfg.STT.Model, "LOQA_STT_MODEL")
	overrideString(&cfg.STT.ModelPath, "LOQA_STT_MODEL_PATH")
	overrideString(&cfg.STT.Language, "LOQA_STT_LANGUAGE")
	overrideInt(&cfg.STT.TimeoutMS, "LOQA_STT_TIMEOUT_MS")
	overrideString(&cfg.STT.MockText, "LOQA_STT_MOCK_TEXT")
	overrideBool(&cfg.LLM.Enabled, "LOQA_LLM_ENABLED")
	overrideString(&cfg.LLM.Mode, "LOQA_LLM_MODE")
	overrideString(&cfg.LLM.Endpoint, "LOQA_LLM_ENDPOINT")
	overrideString(&cfg.LLM.APIKey, "LOQA_LLM_API_KEY")
	overrideString(&cfg.LLM.Command, "LOQA_LLM_COMMAND")
	overrideString(&cfg.LLM.Model, "LOQA_LLM_MODEL")
	overrideString(&cfg.LLM.Language, "LOQA_LLM_LANGUAGE")
	overrideInt(&cfg.LLM.MaxTokens, "LOQA_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "LOQA_LLM_TEMPERATURE")
	overrideInt(&cfg.LLM.TimeoutMS, "LOQA_LLM_TIMEOUT_MS")
	overrideInt(&cfg.Context.WindowSize, "LOQA_CONTEXT_WINDOW_SIZE")
	overrideInt(&cfg.Context.ResetSilenceSecs, "LOQA_CONTEXT_RESET_SILENCE_SECS")
	overrideInt(&cfg.Context.VocabularyTopK, "LOQA_CONTEXT_VOCABULARY_TOP_K")
	overrideBool(&cfg.Inject.Enabled, "LOQA_INJECT_ENABLED")
	overrideBool(&cfg.Inject.AutoPaste, "LOQA_INJECT_AUTO_PASTE")
	overrideString(&cfg.Inject.PasteCommand, "LOQA_INJECT_PASTE_COMMAND")
	overrideString(&cfg.Inject.FocusCommand, "LOQA_INJECT_FOCUS_COMMAND")
	overrideInt(&cfg.Inject.PasteDelayMS, "LOQA_INJECT_PASTE_DELAY_MS")
	overrideInt(&cfg.Inject.RestoreDelayMS, "LOQA_INJECT_RESTORE_DELAY_MS")
	overrideBool(&cfg.Inject.RestoreClipboard, "LOQA_INJECT_RESTORE_CLIPBOARD")
	overrideBool(&cfg.Inject.RequireThai, "LOQA_INJECT_REQUIRE_THAI")
	overrideBool(&cfg.Hotkey.Enabled, "LOQA_HOTKEY_ENABLED")
	overrideString(&cfg.Hotkey.PushToTalk, "LOQA_HOTKEY_PUSH_TO_TALK")
	overrideString(&cfg.Hotkey.Cancel, "LOQA_HOTKEY_CANCEL")
	overrideBool(&cfg.UI.TUI, "LOQA_UI_TUI")
	overrideBool(&cfg.UI.ShowRawText, "LOQA_UI_SHOW_RAW_TEXT")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

// Validate reports the first invalid setting.
func Validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Enabled && (cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535) {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
		if strings.TrimSpace(cfg.Bus.SubjectPrefix) == "" {
			return errors.New("bus.subject_prefix must not be empty")
		}
		if cfg.Bus.HeartbeatInterval <= 0 {
			return errors.New("bus.heartbeat_interval_ms must be positive")
		}
		if cfg.Bus.HeartbeatTimeout < cfg.Bus.HeartbeatInterval {
			return errors.New("bus.heartbeat_timeout_ms must be at least heartbeat_interval_ms")
		}
	}
	if cfg.EventStore.Path == "" && cfg.EventStore.RetentionMode != "ephemeral" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	switch strings.ToLower(cfg.Pipeline.Mode) {
	case "fast", "standard", "context":
	default:
		return errors.New("pipeline.mode must be one of fast|standard|context")
	}
	if cfg.Pipeline.QueueSize <= 0 {
		return errors.New("pipeline.queue_size must be positive")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.MinRecordingSecs < 0 {
		return errors.New("audio.min_recording_secs must be >= 0")
	}
	if cfg.Audio.MaxRecordingSecs <= cfg.Audio.MinRecordingSecs {
		return errors.New("audio.max_recording_secs must be greater than audio.min_recording_secs")
	}
	if cfg.Audio.VADMode < 0 || cfg.Audio.VADMode > 3 {
		return errors.New("audio.vad_mode must be between 0 and 3")
	}
	if cfg.Audio.TrimSilence {
		switch cfg.Audio.SampleRate {
		case 8000, 16000, 32000, 48000:
		default:
			return errors.New("audio.trim_silence requires sample_rate of 8000, 16000, 32000 or 48000")
		}
	}
	switch cfg.STT.Mode {
	case "mock":
	case "exec":
		if cfg.STT.Command == "" {
			return errors.New("stt.command must be set when mode=exec")
		}
	case "http":
		if cfg.STT.Endpoint == "" {
			return errors.New("stt.endpoint must be set when mode=http")
		}
	default:
		return errors.New("stt.mode must be one of exec|http|mock")
	}
	if cfg.STT.TimeoutMS < 0 {
		return errors.New("stt.timeout_ms must be >= 0")
	}
	if cfg.LLM.Enabled {
		switch cfg.LLM.Mode {
		case "openai", "ollama":
			if cfg.LLM.Endpoint == "" {
				return fmt.Errorf("llm.endpoint must be set when mode=%s", cfg.LLM.Mode)
			}
		case "exec":
			if cfg.LLM.Command == "" {
				return errors.New("llm.command must be set when mode=exec")
			}
		case "mock":
		default:
			return errors.New("llm.mode must be one of openai|ollama|exec|mock")
		}
		if cfg.LLM.MaxTokens < 0 {
			return errors.New("llm.max_tokens must be >= 0")
		}
		if cfg.LLM.TimeoutMS <= 0 {
			return errors.New("llm.timeout_ms must be positive")
		}
	}
	if cfg.Context.WindowSize <= 0 {
		return errors.New("context.window_size must be positive")
	}
	if cfg.Context.ResetSilenceSecs <= 0 {
		return errors.New("context.reset_silence_secs must be positive")
	}
	if cfg.Context.VocabularyTopK < 0 {
		return errors.New("context.vocabulary_top_k must be >= 0")
	}
	if cfg.Inject.PasteDelayMS < 0 || cfg.Inject.RestoreDelayMS < 0 {
		return errors.New("inject delays must be >= 0")
	}
	if cfg.Hotkey.Enabled && strings.TrimSpace(cfg.Hotkey.PushToTalk) == "" {
		return errors.New("hotkey.push_to_talk must be set when hotkeys are enabled")
	}
	return nil
}

// MaxSamples is the audio buffer capacity implied by the recording cap.
func (c AudioConfig) MaxSamples() int {
	return int(c.MaxRecordingSecs * float64(c.SampleRate))
}

func (c STTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c ContextConfig) SilenceReset() time.Duration {
	return time.Duration(c.ResetSilenceSecs) * time.Second
}
