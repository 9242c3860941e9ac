// Package file provides repositories backed by files on disk.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

const repoType = "settings"

// record is the on-disk shape of the settings file.
type record struct {
	LibraryPath     *string `json:"library_path"`
	DiscordPresence bool    `json:"discord_presence" default:"true"`
}

// DefaultPath returns <user config dir>/<app>/<app>.json.
func DefaultPath(appName string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, appName, appName+".json"), nil
}

// DefaultSettings returns the record used when nothing valid is stored.
func DefaultSettings() domain.Settings {
	var rec record
	// defaults.Set only fails for non-pointer arguments.
	_ = defaults.Set(&rec)
	return rec.toDomain()
}

func (r record) toDomain() domain.Settings {
	s := domain.Settings{PresenceEnabled: r.DiscordPresence}
	if r.LibraryPath != nil {
		s.LibraryPath = *r.LibraryPath
	}
	return s
}

func fromDomain(s domain.Settings) record {
	rec := record{DiscordPresence: s.PresenceEnabled}
	if s.LibraryPath != "" {
		path := s.LibraryPath
		rec.LibraryPath = &path
	}
	return rec
}

// SettingsRepository implements ports.SettingsRepository as a single JSON document.
// The whole document is rewritten on every save.
//
// Thread-safe: All operations protected by sync.Mutex.
type SettingsRepository struct {
	path     string
	validate *validator.Validate
	mu       sync.Mutex
}

// NewSettingsRepository creates a repository for the file at path.
// An empty path gives a repository that loads defaults and refuses to save.
func NewSettingsRepository(path string) *SettingsRepository {
	return &SettingsRepository{
		path:     path,
		validate: validator.New(),
	}
}

// Location returns the file path.
func (r *SettingsRepository) Location() string {
	return r.path
}

// Load reads the file.
// A missing file yields defaults and no error. An unreadable or malformed file
// yields defaults and an error. A library directory that no longer exists is
// kept as stored and reported with a *domain.ValidationError.
func (r *SettingsRepository) Load() (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), domain.NewRepositoryError("load", repoType, "failed to read "+r.path, err)
	}

	var rec record
	if err := defaults.Set(&rec); err != nil {
		return DefaultSettings(), domain.NewRepositoryError("load", repoType, "failed to set defaults", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return DefaultSettings(), domain.NewRepositoryError("load", repoType, "malformed "+r.path, err)
	}

	settings := rec.toDomain()
	if err := r.validate.Struct(settings); err != nil {
		return settings, domain.NewValidationError("library_path", settings.LibraryPath, "not an existing directory")
	}
	return settings, nil
}

// Save writes the whole record, creating the parent directory if needed.
func (r *SettingsRepository) Save(settings domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return domain.NewRepositoryError("save", repoType, "no config location", domain.ErrInvalidFilePath)
	}

	data, err := json.MarshalIndent(fromDomain(settings), "", "  ")
	if err != nil {
		return domain.NewRepositoryError("save", repoType, "failed to encode settings", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return domain.NewRepositoryError("save", repoType, "failed to create config dir", err)
	}
	if err := os.WriteFile(r.path, append(data, '\n'), 0o644); err != nil {
		return domain.NewRepositoryError("save", repoType, "failed to write "+r.path, err)
	}
	return nil
}

// Verify interface implementation
var _ ports.SettingsRepository = (*SettingsRepository)(nil)
