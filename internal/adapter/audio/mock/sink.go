// Package mock provides in-memory implementations of the audio ports.
// These are used for testing services without opening a real output device.
package mock

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// DefaultDuration is the simulated length of every loaded file unless
// overridden with SetDuration.
const DefaultDuration = 3 * time.Minute

// Sink is a mock implementation of the AudioSink interface.
// It simulates a single active source in memory without actually playing audio.
//
// Thread-safety: This implementation is thread-safe.
type Sink struct {
	// Dependencies
	logger *slog.Logger

	// Configuration
	initialized bool
	sampleRate  int
	buffer      time.Duration

	// Source state
	path     string
	loaded   bool
	finished bool
	paused   bool
	position time.Duration
	duration time.Duration
	volume   float64

	// Per-path behaviour
	durations map[string]time.Duration
	failing   map[string]bool

	// Counters (for assertions in tests)
	loads  int
	clears int

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failSeek       bool

	mu sync.RWMutex
}

// NewSink creates a new mock sink.
func NewSink() *Sink {
	return &Sink{
		volume:    1.0,
		durations: make(map[string]time.Duration),
		failing:   make(map[string]bool),
	}
}

// SetLogger sets the logger for this sink.
func (m *Sink) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Sink) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad makes Load fail for the given path (for testing).
func (m *Sink) SetFailLoad(path string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[path] = fail
}

// SetFailSeek configures the mock to reject every seek (for testing).
func (m *Sink) SetFailSeek(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSeek = fail
}

// SetDuration overrides the simulated duration of path.
func (m *Sink) SetDuration(path string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[path] = d
}

// Initialize opens the mock device.
func (m *Sink) Initialize(sampleRate int, buffer time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioError("init", "", fmt.Errorf("mock initialization failed"))
	}
	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.sampleRate = sampleRate
	m.buffer = buffer
	return nil
}

// Shutdown closes the mock device and drops the active source.
func (m *Sink) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.resetLocked()
	return nil
}

// IsInitialized returns true if the device is open.
func (m *Sink) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Load makes path the active source. The source starts paused.
func (m *Sink) Load(path string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return 0, domain.ErrNotInitialized
	}
	if path == "" {
		return 0, domain.ErrInvalidFilePath
	}
	if m.failing[path] {
		return 0, domain.NewAudioError("decode", path, domain.ErrUnsupportedFormat)
	}

	m.resetLocked()
	m.loads++
	m.path = path
	m.loaded = true
	m.paused = true
	m.duration = DefaultDuration
	if d, ok := m.durations[path]; ok {
		m.duration = d
	}
	return m.duration, nil
}

// Clear drops the active source.
func (m *Sink) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.resetLocked()
}

func (m *Sink) resetLocked() {
	m.path = ""
	m.loaded = false
	m.finished = false
	m.paused = false
	m.position = 0
	m.duration = 0
}

// Empty returns true if nothing is loaded or the source has finished.
func (m *Sink) Empty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.loaded || m.finished
}

// Play resumes the active source.
func (m *Sink) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		m.paused = false
	}
}

// Pause pauses the active source.
func (m *Sink) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		m.paused = true
	}
}

// IsPaused returns true if the active source is paused.
func (m *Sink) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Position returns the simulated elapsed time.
func (m *Sink) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// Seek sets the simulated elapsed time.
func (m *Sink) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	if m.failSeek {
		return domain.NewAudioError("seek", m.path, domain.ErrSeekUnsupported)
	}
	if position < 0 || position > m.duration {
		return domain.ErrInvalidPosition
	}

	m.position = position
	m.finished = false
	return nil
}

// SetVolume sets the linear gain.
func (m *Sink) SetVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
}

// Volume returns the linear gain.
func (m *Sink) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// LoadedPath returns the path of the active source (for testing).
func (m *Sink) LoadedPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Loads returns how many sources have been loaded (for testing).
func (m *Sink) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// Clears returns how many times Clear was called (for testing).
func (m *Sink) Clears() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clears
}

// SimulateProgress advances the position of a playing source (for testing).
// Reaching the duration marks the source as finished.
func (m *Sink) SimulateProgress(delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return domain.ErrNoTrackLoaded
	}
	if m.paused {
		return fmt.Errorf("source is paused")
	}

	m.position += delta
	if m.position >= m.duration {
		m.position = m.duration
		m.finished = true
	}
	return nil
}

// Finish marks the active source as exhausted (for testing).
func (m *Sink) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		m.position = m.duration
		m.finished = true
	}
}

// Verify that Sink implements the AudioSink interface
var _ ports.AudioSink = (*Sink)(nil)
