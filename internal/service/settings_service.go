package service

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// SettingsService owns the persisted settings record and the saved volume level.
// Every change is written through to the repositories immediately.
// All operations are thread-safe via sync.RWMutex.
type SettingsService struct {
	// Dependencies (injected)
	logger      *slog.Logger
	settings    ports.SettingsRepository
	preferences ports.PreferencesRepository
	bus         ports.EventBus

	// Cached values
	current domain.Settings
	volume  float64

	// Concurrency control
	mu sync.RWMutex
}

// NewSettingsService creates a settings service and loads the stored values.
// Load failures are logged; the service then starts from the values the
// repositories returned. A library directory that is currently missing is
// kept so that later saves do not forget it.
func NewSettingsService(
	logger *slog.Logger,
	settings ports.SettingsRepository,
	preferences ports.PreferencesRepository,
	bus ports.EventBus,
) *SettingsService {
	s := &SettingsService{
		logger:      logger.With(slog.String("service", "settings")),
		settings:    settings,
		preferences: preferences,
		bus:         bus,
		volume:      1.0,
	}

	current, err := settings.Load()
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &invalid):
		s.logger.Warn("saved library is unavailable",
			slog.String("library_path", current.LibraryPath),
			slog.Any("error", err))
	case err != nil:
		s.logger.Warn("using fallback settings",
			slog.String("location", settings.Location()),
			slog.Any("error", err))
	}
	s.current = current

	if vol, err := preferences.LoadVolume(); err == nil {
		s.volume = vol
	} else {
		s.logger.Warn("failed to load volume", slog.Any("error", err))
	}

	s.logger.Debug("settings loaded",
		slog.String("library_path", current.LibraryPath),
		slog.Bool("presence_enabled", current.PresenceEnabled),
		slog.Float64("volume", s.volume))
	return s
}

// Settings returns a copy of the current record.
func (s *SettingsService) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetLibraryPath records a new library directory and saves the record.
// The in-memory value is updated even when saving fails.
func (s *SettingsService) SetLibraryPath(path string) error {
	return s.update(func(st *domain.Settings) { st.LibraryPath = path })
}

// SetPresenceEnabled toggles presence reporting and saves the record.
// The in-memory value is updated even when saving fails.
func (s *SettingsService) SetPresenceEnabled(enabled bool) error {
	return s.update(func(st *domain.Settings) { st.PresenceEnabled = enabled })
}

func (s *SettingsService) update(change func(*domain.Settings)) error {
	s.mu.Lock()
	next := s.current
	change(&next)
	if next == s.current {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	s.mu.Unlock()

	s.bus.Publish(domain.NewSettingsChangedEvent(next))

	if err := s.settings.Save(next); err != nil {
		return domain.NewServiceError("SettingsService", "Save", "failed to write settings", err)
	}
	return nil
}

// Volume returns the saved volume level.
func (s *SettingsService) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// SetVolume stores the volume level (clamped to 0..1).
func (s *SettingsService) SetVolume(volume float64) error {
	volume = lo.Clamp(volume, 0, 1)

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	return s.preferences.SaveVolume(volume)
}

// Location describes where the settings record is stored.
func (s *SettingsService) Location() string {
	return s.settings.Location()
}
