// Package discord provides a rich-presence reporter backed by the local Discord client.
package discord

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hugolgst/rich-go/client"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
)

// Defaults for the attention Discord application.
const (
	DefaultAppID = "1396555007951638770"
	ButtonLabel  = "attention music player"
	ButtonURL    = "https://github.com/chasetripleseven/attention"
)

// Reporter implements ports.PresenceReporter over Discord IPC.
//
// Thread-safety: This implementation is thread-safe.
type Reporter struct {
	appID  string
	logger *slog.Logger

	// IPC entry points, replaced in tests.
	login       func(appID string) error
	setActivity func(activity client.Activity) error
	logout      func()
	now         func() time.Time

	connected bool
	mu        sync.Mutex
}

// NewReporter creates a reporter for appID. It does not connect.
func NewReporter(appID string, logger *slog.Logger) *Reporter {
	if appID == "" {
		appID = DefaultAppID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		appID:       appID,
		logger:      logger.With(slog.String("adapter", "discord")),
		login:       client.Login,
		setActivity: client.SetActivity,
		logout:      client.Logout,
		now:         time.Now,
	}
}

// Connect opens the IPC connection to the Discord client.
// It returns domain.ErrPresenceUnavailable when Discord is not reachable.
func (r *Reporter) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return nil
	}
	if err := r.login(r.appID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPresenceUnavailable, err)
	}

	r.connected = true
	r.logger.Info("connected to discord", slog.String("app_id", r.appID))
	return nil
}

// Connected returns true once Connect has succeeded and Close has not been called.
func (r *Reporter) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// Report shows artist and title as the current activity.
func (r *Reporter) Report(artist, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return domain.ErrPresenceUnavailable
	}

	start := r.now()
	err := r.setActivity(client.Activity{
		Details:    artist,
		State:      title,
		Timestamps: &client.Timestamps{Start: &start},
		Buttons: []*client.Button{
			{Label: ButtonLabel, Url: ButtonURL},
		},
	})
	if err != nil {
		return fmt.Errorf("set activity: %w", err)
	}

	r.logger.Debug("presence updated", slog.String("artist", artist), slog.String("title", title))
	return nil
}

// Clear replaces the activity with an empty one.
func (r *Reporter) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return nil
	}
	if err := r.setActivity(client.Activity{}); err != nil {
		return fmt.Errorf("clear activity: %w", err)
	}
	return nil
}

// Close logs out if a connection was opened.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return nil
	}
	r.logout()
	r.connected = false
	r.logger.Info("disconnected from discord")
	return nil
}

// Verify that Reporter implements the PresenceReporter interface
var _ ports.PresenceReporter = (*Reporter)(nil)
