// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/chasetripleseven/attention/internal/domain"
)

// SettingsRepository handles the persistence of the settings record.
//
// Thread-safety: Implementations must be thread-safe.
type SettingsRepository interface {
	// Load reads the settings record.
	// A missing or malformed store yields the default record together with an error
	// describing why the defaults were used (nil for a missing store).
	Load() (domain.Settings, error)

	// Save writes the whole record, replacing what was stored before.
	//
	// Returns an error if saving fails.
	Save(settings domain.Settings) error

	// Location describes where the record lives (a file path for file stores).
	Location() string
}

// PreferencesRepository handles the persistence of lightweight UI preferences.
// This abstracts the Fyne preferences storage.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveVolume persists the volume level.
	//
	// Returns an error if saving fails.
	SaveVolume(volume float64) error

	// LoadVolume retrieves the saved volume level.
	// If no volume was saved, returns 1.0 (full volume) as default.
	//
	// Returns the volume or an error if loading fails.
	LoadVolume() (float64, error)

	// Clear removes all saved preferences.
	//
	// Returns an error if clearing fails.
	Clear() error
}
