// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/chasetripleseven/attention/internal/adapter/eventbus"
	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/ports"
	"github.com/chasetripleseven/attention/internal/service"
)

// DefaultTickInterval is how often the presenter ticks the controller and redraws.
const DefaultTickInterval = 100 * time.Millisecond

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
// All methods are called on the UI goroutine.
type UIView interface {
	// Transport
	SetPlayState(playing bool)
	SetNavigation(canPrev, canNext bool)
	SetVolume(volume float64)

	// Current track
	SetTrackInfo(artist, title string)
	SetProgress(playhead, duration time.Duration)

	// Library and queue
	SetLibraryPath(path string)
	SetQueue(tracks []domain.Track)
	SelectQueueIndex(index int)

	// Settings
	SetPresenceEnabled(enabled bool)

	// Notifications
	ShowNotification(title, message string)
}

// Presenter implements the Presenter pattern (MVP architecture).
// Every tick it advances the playback controller and renders its state
// snapshot; queue changes arrive through the event bus.
//
// Thread-safety: Tick and the On* handlers run on the UI goroutine.
// Shutdown may be called from any goroutine.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	playback *service.PlaybackService
	settings *service.SettingsService

	bus  ports.EventBus
	view UIView

	subscriptions []domain.SubscriptionID

	// Ticker lifecycle
	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}

	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter, syncs the view with the current
// state and starts ticking every interval. An interval <= 0 disables the
// ticker; Tick must then be called by the owner.
func NewPresenter(
	logger *slog.Logger,
	playback *service.PlaybackService,
	settings *service.SettingsService,
	bus ports.EventBus,
	view UIView,
	interval time.Duration,
) *Presenter {
	p := &Presenter{
		logger:   logger.With(slog.String("component", "presenter")),
		playback: playback,
		settings: settings,
		bus:      bus,
		view:     view,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	p.subscribeToEvents()
	p.syncInitialState()

	if interval > 0 {
		p.startTicker(interval)
	} else {
		close(p.done)
	}
	return p
}

func (p *Presenter) subscribeToEvents() {
	p.subscriptions = append(p.subscriptions,
		eventbus.On(p.bus, domain.EventQueueChanged, p.onQueueChanged),
		eventbus.On(p.bus, domain.EventTrackStarted, p.onTrackStarted),
		eventbus.On(p.bus, domain.EventTrackError, p.onTrackError),
		eventbus.On(p.bus, domain.EventScanCompleted, p.onScanCompleted),
	)
}

// syncInitialState pushes everything that is not redrawn on every tick.
func (p *Presenter) syncInitialState() {
	settings := p.settings.Settings()
	p.view.SetPresenceEnabled(settings.PresenceEnabled)
	p.view.SetVolume(p.playback.Volume())
	p.view.SetLibraryPath(p.playback.LibraryPath())
	p.view.SetQueue(p.playback.Queue())
	p.view.SelectQueueIndex(p.playback.Index())

	p.render(p.playback.State())
}

func (p *Presenter) startTicker(interval time.Duration) {
	p.ticker = time.NewTicker(interval)

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.ticker.C:
				fyne.Do(p.Tick)
			case <-p.stop:
				return
			}
		}
	}()
}

// Tick advances the controller by one frame and redraws.
func (p *Presenter) Tick() {
	p.playback.Tick()
	p.render(p.playback.State())
}

func (p *Presenter) render(state domain.PlayerState) {
	p.view.SetPlayState(state.Playing())
	p.view.SetNavigation(state.CanPrev, state.CanNext)
	p.view.SetProgress(state.Playhead, state.Duration)

	if state.Track != nil {
		p.view.SetTrackInfo(state.Track.Artist, state.Track.Title)
	} else {
		p.view.SetTrackInfo("", "")
	}
}

// Event handlers

func (p *Presenter) onQueueChanged(e domain.QueueChangedEvent) {
	p.view.SetLibraryPath(e.Path)
	p.view.SetQueue(e.Queue)
	p.view.SelectQueueIndex(p.playback.Index())
}

func (p *Presenter) onTrackStarted(e domain.TrackStartedEvent) {
	p.view.SelectQueueIndex(e.Index)
}

func (p *Presenter) onTrackError(e domain.TrackErrorEvent) {
	p.view.ShowNotification("Playback Error",
		fmt.Sprintf("Cannot play %s: %v", e.Track.FileName(), e.Error))
}

func (p *Presenter) onScanCompleted(e domain.ScanCompletedEvent) {
	message := fmt.Sprintf("Found %d tracks", len(e.Result.Tracks))
	if e.Result.Skipped > 0 {
		message += fmt.Sprintf(", skipped %d files", e.Result.Skipped)
	}
	p.view.ShowNotification("Library Loaded", message)
}

// UI Command handlers (called by UI)

// OnPlayClicked toggles between playing and paused.
func (p *Presenter) OnPlayClicked() {
	if err := p.playback.TogglePlay(); err != nil {
		if errors.Is(err, domain.ErrQueueEmpty) {
			p.logger.Debug("nothing to play")
			return
		}
		p.logger.Warn("play/pause failed", slog.Any("error", err))
	}
	p.render(p.playback.State())
}

// OnNextClicked plays the following track.
func (p *Presenter) OnNextClicked() {
	if err := p.playback.Next(); err != nil {
		p.logger.Warn("next track failed", slog.Any("error", err))
	}
	p.render(p.playback.State())
}

// OnPreviousClicked plays the preceding track.
func (p *Presenter) OnPreviousClicked() {
	if err := p.playback.Prev(); err != nil {
		p.logger.Warn("previous track failed", slog.Any("error", err))
	}
	p.render(p.playback.State())
}

// OnTrackSelected plays the queue entry at index.
func (p *Presenter) OnTrackSelected(index int) {
	if err := p.playback.PlayTrack(index); err != nil {
		p.logger.Warn("track selection failed", slog.Int("index", index), slog.Any("error", err))
	}
	p.render(p.playback.State())
}

// OnSeekRequested handles seek requests from the progress slider.
func (p *Presenter) OnSeekRequested(seconds float64) {
	position := time.Duration(seconds * float64(time.Second))
	if err := p.playback.Seek(position); err != nil {
		p.logger.Warn("seek failed", slog.Duration("position", position), slog.Any("error", err))
	}
	p.render(p.playback.State())
}

// OnVolumeChanged handles volume slider changes (0.0 to 1.0).
func (p *Presenter) OnVolumeChanged(volume float64) {
	p.playback.SetVolume(volume)
	if err := p.settings.SetVolume(volume); err != nil {
		p.logger.Warn("failed to save volume", slog.Any("error", err))
	}
}

// OnLibraryChosen replaces the queue with the contents of dir and remembers it.
func (p *Presenter) OnLibraryChosen(dir string) {
	n, err := p.playback.LoadDirectory(dir)
	if err != nil {
		p.logger.Warn("failed to open library", slog.String("path", dir), slog.Any("error", err))
		p.view.ShowNotification("Library Error", fmt.Sprintf("Cannot open %s", dir))
		p.render(p.playback.State())
		return
	}

	p.logger.Info("library opened", slog.String("path", dir), slog.Int("tracks", n))
	if err := p.settings.SetLibraryPath(dir); err != nil {
		p.logger.Warn("failed to save library path", slog.Any("error", err))
	}
	p.render(p.playback.State())
}

// OnFilesAdded appends single files to the end of the queue.
func (p *Presenter) OnFilesAdded(paths []string) {
	for _, path := range paths {
		if err := p.playback.Enqueue(path); err != nil {
			p.logger.Warn("failed to enqueue file", slog.String("path", path), slog.Any("error", err))
		}
	}
	p.render(p.playback.State())
}

// OnPresenceToggled enables or disables presence reporting.
// The reporter itself is swapped by whoever listens for settings changes.
func (p *Presenter) OnPresenceToggled(enabled bool) {
	if err := p.settings.SetPresenceEnabled(enabled); err != nil {
		p.logger.Warn("failed to save presence setting", slog.Any("error", err))
	}
}

// Shutdown stops the ticker and drops the event subscriptions.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		if p.ticker != nil {
			p.ticker.Stop()
		}
		close(p.stop)
		<-p.done

		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}
		p.subscriptions = nil
	})
}
