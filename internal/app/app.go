// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/chasetripleseven/attention/internal/adapter/audio/beep"
	"github.com/chasetripleseven/attention/internal/adapter/audio/mock"
	"github.com/chasetripleseven/attention/internal/adapter/eventbus"
	"github.com/chasetripleseven/attention/internal/adapter/presence/discord"
	"github.com/chasetripleseven/attention/internal/adapter/repository/file"
	"github.com/chasetripleseven/attention/internal/adapter/repository/memory"
	fyneui "github.com/chasetripleseven/attention/internal/adapter/ui/fyne"
	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/logger"
	"github.com/chasetripleseven/attention/internal/ports"
	"github.com/chasetripleseven/attention/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	config Config

	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	sink     ports.AudioSink
	presence ports.PresenceReporter

	// Services
	playbackService *service.PlaybackService
	libraryService  *service.LibraryService
	settingsService *service.SettingsService

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	presenceOn   bool
	presenceMu   sync.Mutex
	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name, also used for the config directory
	AppName string

	// SampleRate is the output device sample rate
	SampleRate int

	// BufferDuration is the output device buffer length
	BufferDuration time.Duration

	// TickInterval is how often the UI advances the controller
	TickInterval time.Duration

	// UseMockAudio determines whether to use a mock audio sink (for testing)
	UseMockAudio bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// LogFormat is "text" or "json"
	LogFormat string

	// ConfigPath overrides the settings file location ("" for the default)
	ConfigPath string

	// PresenceAppID is the Discord application id
	PresenceAppID string

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:          "com.chasetripleseven.attention",
		AppName:        "attention",
		SampleRate:     44100,
		BufferDuration: 100 * time.Millisecond,
		TickInterval:   fyneui.DefaultTickInterval,
		UseMockAudio:   false,
		LogLevel:       loggerCfg.Level,
		LogFormat:      loggerCfg.Format,
		PresenceAppID:  discord.DefaultAppID,
	}
}

// connectPresence opens a presence connection. Replaced in tests.
var connectPresence = func(appID string, logger *slog.Logger) (ports.PresenceReporter, error) {
	reporter := discord.NewReporter(appID, logger)
	if err := reporter.Connect(); err != nil {
		return nil, err
	}
	return reporter, nil
}

// NewApplication creates a new application with all dependencies wired.
// It fails only when the audio output cannot be opened.
func NewApplication(config Config) (*Application, error) {
	app := &Application{config: config}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 4: Open the audio output
	var loader ports.TrackLoader
	if config.UseMockAudio {
		sink := mock.NewSink()
		sink.SetLogger(app.logger.With(slog.String("adapter", "mock")))
		app.sink = sink
		loader = mock.NewLoader(sink)
	} else {
		app.sink = beep.NewSink(app.logger)
		loader = beep.NewLoader(app.logger)
	}
	if err := app.sink.Initialize(config.SampleRate, config.BufferDuration); err != nil {
		_ = app.eventBus.Close()
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}

	// Step 5: Create repositories
	settingsRepo := file.NewSettingsRepository(app.settingsPath())
	prefsRepo := memory.NewPreferencesRepository(app.fyneApp.Preferences())

	// Step 6: Create services (with dependency injection)
	app.libraryService = service.NewLibraryService(app.logger, loader, app.eventBus)
	app.playbackService = service.NewPlaybackService(app.logger, app.sink, app.libraryService, app.eventBus, nil)
	app.settingsService = service.NewSettingsService(app.logger, settingsRepo, prefsRepo, app.eventBus)

	// Step 7: Presence follows the setting
	app.applyPresence(app.settingsService.Settings().PresenceEnabled)
	eventbus.On(app.eventBus, domain.EventSettingsChanged, func(e domain.SettingsChangedEvent) {
		app.applyPresence(e.Settings.PresenceEnabled)
	})

	// Step 8: Restore the previous session
	app.restoreState()

	// Step 9: Create UI and presenter
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, GetVersionInfo().Title(), app.logger)
	app.presenter = fyneui.NewPresenter(
		app.logger,
		app.playbackService,
		app.settingsService,
		app.eventBus,
		app.mainWindow,
		config.TickInterval,
	)
	app.mainWindow.SetPresenter(app.presenter)
	app.mainWindow.SetOnClosed(app.presenter.Shutdown)

	return app, nil
}

// settingsPath resolves the settings file. Without a config directory the
// settings live in memory only.
func (a *Application) settingsPath() string {
	if a.config.ConfigPath != "" {
		return a.config.ConfigPath
	}
	path, err := file.DefaultPath(a.config.AppName)
	if err != nil {
		a.logger.Warn("no config directory, settings will not be saved", slog.Any("error", err))
		return ""
	}
	return path
}

// restoreState applies the saved volume and reopens the saved library.
func (a *Application) restoreState() {
	a.playbackService.SetVolume(a.settingsService.Volume())

	settings := a.settingsService.Settings()
	if !settings.HasLibrary() {
		return
	}
	if _, err := a.playbackService.LoadDirectory(settings.LibraryPath); err != nil {
		a.logger.Warn("failed to reopen library",
			slog.String("path", settings.LibraryPath),
			slog.Any("error", err))
	}
}

// applyPresence connects or disconnects the presence reporter.
// A failed connection leaves reporting off until the setting is toggled again.
func (a *Application) applyPresence(enabled bool) {
	a.presenceMu.Lock()
	defer a.presenceMu.Unlock()

	if a.presence != nil && enabled == a.presenceOn {
		return
	}

	var reporter ports.PresenceReporter = discord.Noop{}
	if enabled {
		connected, err := connectPresence(a.config.PresenceAppID, a.logger)
		if err != nil {
			a.logger.Warn("presence unavailable", slog.Any("error", err))
		} else {
			reporter = connected
		}
	}

	a.playbackService.SetPresenceReporter(reporter)
	a.closePresenceLocked()
	a.presence = reporter
	a.presenceOn = enabled
}

func (a *Application) closePresenceLocked() {
	if a.presence == nil {
		return
	}
	if err := a.presence.Close(); err != nil {
		a.logger.Warn("failed to close presence", slog.Any("error", err))
	}
	a.presence = nil
}

// Run shows the main window and blocks until it is closed.
func (a *Application) Run() error {
	a.logger.Info("attention started")
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	var err error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		if err := a.playbackService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown playback service", slog.Any("error", err))
		}

		a.presenceMu.Lock()
		a.closePresenceLocked()
		a.presenceMu.Unlock()

		if shutdownErr := a.sink.Shutdown(); shutdownErr != nil {
			a.logger.Warn("failed to close audio output", slog.Any("error", shutdownErr))
			err = shutdownErr
		}

		_ = a.eventBus.Close()
		a.logger.Info("application shutdown complete")
	})
	return err
}

// GetServices returns the application services.
func (a *Application) GetServices() (*service.PlaybackService, *service.LibraryService, *service.SettingsService) {
	return a.playbackService, a.libraryService, a.settingsService
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}
