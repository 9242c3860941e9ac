package beep

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/samber/lo"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// resampleQuality is passed to beep.Resample when a file's rate differs
// from the device rate.
const resampleQuality = 4

// source is the decoded file currently handed to the device.
type source struct {
	path   string
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	gain   *effects.Volume
	done   *atomic.Bool
}

// Sink implements ports.AudioSink on the beep speaker.
//
// The chain handed to the device is
// decoder -> resampler -> Ctrl (pause) -> Volume -> Seq(..., Callback).
// Fields read by the speaker goroutine are only mutated under the device lock.
//
// Thread-safety: This implementation is thread-safe.
type Sink struct {
	logger *slog.Logger
	device device

	initialized bool
	sampleRate  beep.SampleRate

	current *source
	level   float64

	mu sync.Mutex
}

// NewSink creates a sink bound to the system speaker.
func NewSink(logger *slog.Logger) *Sink {
	return newSink(logger, speakerDevice{})
}

func newSink(logger *slog.Logger, dev device) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		logger: logger.With(slog.String("adapter", "beep")),
		device: dev,
		level:  1.0,
	}
}

// Initialize opens the output device.
func (s *Sink) Initialize(sampleRate int, buffer time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return domain.ErrAlreadyInitialized
	}
	if sampleRate <= 0 {
		return domain.NewValidationError("sampleRate", sampleRate, "must be positive")
	}

	sr := beep.SampleRate(sampleRate)
	if err := s.device.Init(sr, sr.N(buffer)); err != nil {
		return domain.NewAudioError("init", "", err)
	}

	s.sampleRate = sr
	s.initialized = true
	s.logger.Info("audio device opened",
		slog.Int("sample_rate", sampleRate),
		slog.Duration("buffer", buffer))
	return nil
}

// Shutdown releases the active source and closes the device.
func (s *Sink) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return domain.ErrNotInitialized
	}

	s.clearLocked()
	s.device.Close()
	s.initialized = false
	s.logger.Info("audio device closed")
	return nil
}

// IsInitialized returns true if the device is open.
func (s *Sink) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Load decodes path and hands it to the device, paused.
func (s *Sink) Load(path string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return 0, domain.ErrNotInitialized
	}

	stream, format, err := decodeFile(path)
	if err != nil {
		return 0, err
	}

	s.clearLocked()

	src := &source{
		path:   path,
		stream: stream,
		format: format,
		done:   new(atomic.Bool),
	}
	s.queueLocked(src, true)
	s.current = src

	duration := format.SampleRate.D(stream.Len())
	s.logger.Debug("source loaded",
		slog.String("path", path),
		slog.Duration("duration", duration),
		slog.Int("sample_rate", int(format.SampleRate)))
	return duration, nil
}

// queueLocked builds the playback chain for src and plays it on the device.
func (s *Sink) queueLocked(src *source, paused bool) {
	var streamer beep.Streamer = src.stream
	if src.format.SampleRate != s.sampleRate {
		streamer = beep.Resample(resampleQuality, src.format.SampleRate, s.sampleRate, streamer)
	}

	src.ctrl = &beep.Ctrl{Streamer: streamer, Paused: paused}
	src.gain = &effects.Volume{Streamer: src.ctrl, Base: 2}
	applyGain(src.gain, s.level)
	src.done.Store(false)

	done := src.done
	s.device.Play(beep.Seq(src.gain, beep.Callback(func() {
		done.Store(true)
	})))
}

// Clear stops and releases the active source.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Sink) clearLocked() {
	if s.current == nil {
		return
	}

	s.device.Clear()
	if err := s.current.stream.Close(); err != nil {
		s.logger.Warn("failed to close source",
			slog.String("path", s.current.path),
			slog.Any("error", err))
	}
	s.current = nil
}

// Empty returns true if nothing is loaded or the source ran out.
func (s *Sink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == nil || s.current.done.Load()
}

// Play resumes the active source.
func (s *Sink) Play() {
	s.setPaused(false)
}

// Pause pauses the active source.
func (s *Sink) Pause() {
	s.setPaused(true)
}

func (s *Sink) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.device.Lock()
	s.current.ctrl.Paused = paused
	s.device.Unlock()
}

// IsPaused returns true if the active source is paused.
func (s *Sink) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}
	s.device.Lock()
	defer s.device.Unlock()
	return s.current.ctrl.Paused
}

// Position returns the elapsed time of the active source.
func (s *Sink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0
	}
	s.device.Lock()
	pos := s.current.stream.Position()
	s.device.Unlock()
	return s.current.format.SampleRate.D(pos)
}

// Seek moves the active source to position.
// Seeking a finished source queues it on the device again.
func (s *Sink) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.current
	if src == nil {
		return domain.ErrNoTrackLoaded
	}

	length := src.stream.Len()
	sample := src.format.SampleRate.N(position)
	if position < 0 || sample > length {
		return domain.NewAudioError("seek", src.path,
			fmt.Errorf("%w: %v", domain.ErrInvalidPosition, position))
	}

	s.device.Lock()
	err := src.stream.Seek(sample)
	paused := src.ctrl.Paused
	s.device.Unlock()
	if err != nil {
		return domain.NewAudioError("seek", src.path, fmt.Errorf("%w: %v", domain.ErrSeekUnsupported, err))
	}

	if src.done.Load() && sample < length {
		s.queueLocked(src, paused)
	}
	return nil
}

// SetVolume sets the linear gain; values are clamped to 0..1.
func (s *Sink) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = lo.Clamp(volume, 0, 1)
	if s.current == nil {
		return
	}
	s.device.Lock()
	applyGain(s.current.gain, s.level)
	s.device.Unlock()
}

// Volume returns the linear gain.
func (s *Sink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// applyGain maps a linear level onto effects.Volume, which works in powers of Base.
func applyGain(gain *effects.Volume, level float64) {
	if level <= 0 {
		gain.Silent = true
		gain.Volume = 0
		return
	}
	gain.Silent = false
	gain.Volume = math.Log2(level)
}

// Verify that Sink implements the AudioSink interface
var _ ports.AudioSink = (*Sink)(nil)
