package beep

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// Loader implements ports.TrackLoader.
// Tags come from dhowden/tag; the duration comes from decoding the container.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a track loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("adapter", "beep-loader"))}
}

// LoadTrack builds the descriptor for path.
// A file that cannot be decoded is rejected; missing tags are not an error.
func (l *Loader) LoadTrack(path string) (*domain.Track, error) {
	stream, format, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	duration := format.SampleRate.D(stream.Len())
	if err := stream.Close(); err != nil {
		l.logger.Debug("failed to close probe stream", slog.String("path", path), slog.Any("error", err))
	}

	track := &domain.Track{
		Path:     path,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Artist:   domain.UnknownArtist,
		Duration: duration,
	}

	l.readTags(track)

	if info, err := os.Stat(path); err == nil {
		track.Bitrate = bitrate(info.Size(), duration)
	}
	return track, nil
}

// readTags fills title, artist and album from the file's tags, if any.
func (l *Loader) readTags(track *domain.Track) {
	file, err := os.Open(track.Path)
	if err != nil {
		return
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		l.logger.Debug("no tags", slog.String("path", track.Path), slog.Any("error", err))
		return
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		track.Title = title
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		track.Artist = artist
	}
	if album := strings.TrimSpace(metadata.Album()); album != "" {
		track.Album = album
	}
}

// bitrate returns the average bitrate in kbps.
func bitrate(size int64, duration time.Duration) int {
	if size <= 0 || duration <= 0 {
		return 0
	}
	return int(float64(size*8) / duration.Seconds() / 1000)
}

// Verify that Loader implements the TrackLoader interface
var _ ports.TrackLoader = (*Loader)(nil)
