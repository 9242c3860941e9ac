// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/chasetripleseven/attention/internal/domain"
)

// AudioSink is the audio output device together with its single active source.
// This abstracts the underlying audio library (beep) and allows for testing with mocks.
//
// A sink holds at most one decoded source at a time. Loading a new source
// replaces the previous one.
type AudioSink interface {
	// Lifecycle methods

	// Initialize opens the output device.
	// sampleRate: Output sample rate in Hz (e.g., 44100 for CD quality)
	// buffer: Length of the device buffer
	//
	// Return an error if the device cannot be opened.
	Initialize(sampleRate int, buffer time.Duration) error

	// Shutdown releases the output device.
	Shutdown() error

	// IsInitialized returns true if the device has been successfully opened.
	IsInitialized() bool

	// Source methods

	// Load opens and decodes the file at path and makes it the active source.
	// The previous source, if any, is released. The new source starts paused.
	//
	// Returns the decoded duration, or an error if the file cannot be decoded.
	Load(path string) (time.Duration, error)

	// Clear stops and releases the active source.
	Clear()

	// Empty returns true when there is no source or the source has been played to its end.
	Empty() bool

	// Transport methods

	// Play resumes the active source.
	Play()

	// Pause pauses the active source. The position is preserved.
	Pause()

	// IsPaused returns true when the active source is paused.
	IsPaused() bool

	// Position returns the elapsed time of the active source.
	Position() time.Duration

	// Seek moves the active source to the given offset.
	//
	// Returns an error if there is no source or the offset is out of range.
	Seek(position time.Duration) error

	// Volume methods

	// SetVolume sets the linear output gain, from 0.0 (silent) to 1.0 (full volume).
	SetVolume(volume float64)

	// Volume returns the current linear output gain.
	Volume() float64
}

// TrackLoader builds track descriptors from files.
type TrackLoader interface {
	// LoadTrack reads tags and container metadata of the file at path.
	//
	// Returns an error if the file cannot be parsed as audio at all.
	LoadTrack(path string) (*domain.Track, error)
}
