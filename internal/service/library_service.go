// Package service provides business logic for the attention player.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// LibraryService turns directories and files into track descriptors.
// Scans are synchronous and non-recursive.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	loader ports.TrackLoader
	bus    ports.EventBus

	// State
	scanning bool

	// Concurrency control
	mu sync.Mutex
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	logger *slog.Logger,
	loader ports.TrackLoader,
	bus ports.EventBus,
) *LibraryService {
	return &LibraryService{
		logger: logger.With(slog.String("service", "library")),
		loader: loader,
		bus:    bus,
	}
}

// Scan reads the immediate entries of dir and loads each regular entry as a track.
// Entries the loader rejects are logged and skipped. Sub-directories are ignored.
// The tracks keep directory listing order.
func (s *LibraryService) Scan(dir string) (domain.ScanResult, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return domain.ScanResult{}, domain.NewServiceError("LibraryService", "Scan", "scan already in progress", nil)
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	entries, err := readLibraryDir(dir)
	if err != nil {
		s.logger.Warn("cannot read library directory", slog.String("path", dir), slog.Any("error", err))
		return domain.ScanResult{}, domain.NewServiceError("LibraryService", "Scan", "cannot read "+dir, err)
	}

	s.bus.Publish(domain.NewScanStartedEvent(dir))

	files := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir()
	})

	result := domain.ScanResult{
		Path:    dir,
		Entries: len(entries),
		Tracks:  make([]domain.Track, 0, len(files)),
	}
	for _, entry := range files {
		path := filepath.Join(dir, entry.Name())
		track, err := s.loader.LoadTrack(path)
		if err != nil {
			result.Skipped++
			s.logger.Warn("skipping entry", slog.String("path", path), slog.Any("error", err))
			continue
		}
		result.Tracks = append(result.Tracks, *track)
	}

	s.logger.Info("library scanned",
		slog.String("path", dir),
		slog.Int("entries", result.Entries),
		slog.Int("tracks", len(result.Tracks)),
		slog.Int("skipped", result.Skipped))

	s.bus.Publish(domain.NewScanCompletedEvent(result))
	return result, nil
}

// LoadFile loads a single track descriptor.
func (s *LibraryService) LoadFile(path string) (*domain.Track, error) {
	track, err := s.loader.LoadTrack(path)
	if err != nil {
		s.logger.Warn("cannot load file", slog.String("path", path), slog.Any("error", err))
		return nil, domain.NewServiceError("LibraryService", "LoadFile", "cannot load "+path, err)
	}
	return track, nil
}

func readLibraryDir(dir string) ([]os.DirEntry, error) {
	if dir == "" {
		return nil, domain.ErrInvalidFilePath
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotADirectory, dir)
	}

	return os.ReadDir(dir)
}
