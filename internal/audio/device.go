package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/loqalabs/loqa-dictate/internal/config"
)

// Device is an open portaudio input stream feeding a Source. The stream runs
// for the life of the process; recording is gated by arming the Source, so a
// push-to-talk press does not pay device start-up latency.
type Device struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	name   string
	logger *slog.Logger
}

// DeviceInfo describes an input device for listing.
type DeviceInfo struct {
	Name       string
	Channels   int
	SampleRate float64
	Default    bool
}

func OpenDevice(cfg config.AudioConfig, src *Source, logger *slog.Logger) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	logger = logger.With(slog.String("component", "audio"))

	callback := func(in []float32) {
		src.Push(in)
	}

	var (
		stream *portaudio.Stream
		name   = "default"
		err    error
	)
	if cfg.Device != "" && cfg.Device != "default" {
		dev, findErr := findInputDevice(cfg.Device)
		if findErr != nil {
			logger.Warn("input device not found; using default", slog.String("device", cfg.Device))
		} else {
			name = dev.Name
			params := portaudio.LowLatencyParameters(dev, nil)
			params.Input.Channels = 1
			params.SampleRate = float64(cfg.SampleRate)
			params.FramesPerBuffer = cfg.FramesPerBuffer
			stream, err = portaudio.OpenStream(params, callback)
		}
	}
	if stream == nil && err == nil {
		stream, err = portaudio.OpenDefaultStream(1, 0, float64(cfg.SampleRate), cfg.FramesPerBuffer, callback)
	}
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start audio stream: %w", err)
	}
	logger.Info("audio input started",
		slog.String("device", name),
		slog.Int("sample_rate", cfg.SampleRate),
		slog.Int("frames_per_buffer", cfg.FramesPerBuffer))
	return &Device{stream: stream, name: name, logger: logger}, nil
}

func (d *Device) Name() string { return d.name }

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return nil
	}
	if err := d.stream.Stop(); err != nil {
		d.logger.Warn("stop audio stream", slog.String("error", err.Error()))
	}
	err := d.stream.Close()
	d.stream = nil
	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	return err
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", name)
}

// ListInputDevices enumerates devices that can record.
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}
	var out []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		out = append(out, DeviceInfo{
			Name:       dev.Name,
			Channels:   dev.MaxInputChannels,
			SampleRate: dev.DefaultSampleRate,
			Default:    dev.Name == defaultName,
		})
	}
	return out, nil
}

// NewTrimmer picks the silence trimmer for cfg, or nil when trimming is off.
func NewTrimmer(cfg config.AudioConfig, logger *slog.Logger) Trimmer {
	if !cfg.TrimSilence {
		return nil
	}
	vad, err := NewVADTrimmer(cfg.SampleRate, cfg.VADMode)
	if err == nil {
		return vad
	}
	logger.Warn("webrtc vad unavailable; using energy trimmer",
		slog.String("component", "audio"),
		slog.String("error", err.Error()))
	return EnergyTrimmer{Threshold: cfg.QuietThreshold, FrameSize: cfg.SampleRate * 30 / 1000}
}
