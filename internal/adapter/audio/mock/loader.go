package mock

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// Loader is a mock implementation of the TrackLoader interface.
// Titles are derived from file names; durations come from the paired Sink
// when one is given.
type Loader struct {
	sink     *Sink
	rejected map[string]bool
	mu       sync.RWMutex
}

// NewLoader creates a mock loader. sink may be nil.
func NewLoader(sink *Sink) *Loader {
	return &Loader{
		sink:     sink,
		rejected: make(map[string]bool),
	}
}

// Reject makes LoadTrack fail for the given path (for testing).
func (l *Loader) Reject(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejected[path] = true
}

// LoadTrack builds a descriptor for path.
// Files whose name starts with "artist - " get that artist.
func (l *Loader) LoadTrack(path string) (*domain.Track, error) {
	if path == "" {
		return nil, domain.ErrInvalidFilePath
	}

	l.mu.RLock()
	rejected := l.rejected[path]
	l.mu.RUnlock()
	if rejected {
		return nil, domain.NewAudioError("decode", path, domain.ErrUnsupportedFormat)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	artist, title := domain.UnknownArtist, name
	if a, t, ok := strings.Cut(name, " - "); ok {
		artist, title = a, t
	}

	duration := DefaultDuration
	if l.sink != nil {
		l.sink.mu.RLock()
		if d, ok := l.sink.durations[path]; ok {
			duration = d
		}
		l.sink.mu.RUnlock()
	}

	return &domain.Track{
		Path:     path,
		Title:    title,
		Artist:   artist,
		Duration: duration,
		Bitrate:  320,
	}, nil
}

// Verify that Loader implements the TrackLoader interface
var _ ports.TrackLoader = (*Loader)(nil)
