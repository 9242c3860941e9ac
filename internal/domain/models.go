// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the attention music player.
package domain

import (
	"path/filepath"
	"time"
)

// UnknownArtist is used when a file carries no artist tag.
const UnknownArtist = "unknown"

// Track describes a single audio file in the library.
// A Track is immutable once the loader has built it.
type Track struct {
	// Path is the filesystem location of the file; it is the identity key
	Path string

	// Title is the tag title, or the file name when the tag is missing
	Title string

	// Artist is the tag artist, or UnknownArtist
	Artist string

	// Album is the tag album (informational)
	Album string

	// Duration is the total length reported by the decoder
	Duration time.Duration

	// Bitrate is the overall bit rate in kbps, 0 if unknown (informational)
	Bitrate int
}

// FileName returns the base name of the track's path.
func (t Track) FileName() string {
	return filepath.Base(t.Path)
}

// DisplayName returns "Artist - Title", falling back to the title alone.
func (t Track) DisplayName() string {
	if t.Artist == "" || t.Artist == UnknownArtist {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// PlaybackStatus is the explicit state of the playback controller.
type PlaybackStatus int

const (
	// StatusIdle means nothing is playing: the queue is empty, nothing was
	// ever played, or the last track finished.
	StatusIdle PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates a track is loaded but paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// PlayerState is a read-only snapshot of the controller, taken once per frame
// by the presentation layer.
type PlayerState struct {
	// Track is the track at the current index (nil when the queue is empty)
	Track *Track

	// Index is the current queue index, -1 when the queue is empty
	Index int

	// QueueLength is the number of tracks in the queue
	QueueLength int

	// Status is the explicit playback state
	Status PlaybackStatus

	// Playhead is the last known position inside the current track
	Playhead time.Duration

	// Duration is the length of the current track
	Duration time.Duration

	// Volume is the controller's volume level (0.0 to 1.0)
	Volume float64

	// CanNext reports whether Next would stay in bounds
	CanNext bool

	// CanPrev reports whether Prev would stay in bounds
	CanPrev bool
}

// Playing is a shorthand for Status == StatusPlaying.
func (s PlayerState) Playing() bool {
	return s.Status == StatusPlaying
}

// Settings is the persisted user configuration record.
type Settings struct {
	// LibraryPath is the last opened library directory, empty when none
	LibraryPath string `validate:"omitempty,dir"`

	// PresenceEnabled controls "now listening" reporting
	PresenceEnabled bool
}

// HasLibrary reports whether a library directory has been chosen.
func (s Settings) HasLibrary() bool {
	return s.LibraryPath != ""
}

// ScanResult summarises one directory scan.
type ScanResult struct {
	// Path is the scanned directory
	Path string

	// Entries is the number of directory entries inspected
	Entries int

	// Skipped is the number of entries the loader rejected
	Skipped int

	// Tracks are the accepted descriptors, in directory listing order
	Tracks []Track
}
