package fyne

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/samber/lo"

	"github.com/chasetripleseven/attention/internal/adapter/ui/fyne/widgets"
	"github.com/chasetripleseven/attention/internal/domain"
)

// Window geometry.
const (
	WIDTH  = 960
	HEIGHT = 540
)

const noLibrary = "No library selected"

// MainWindow is the main UI window implementing the UIView interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger

	// UI components
	libraryButton  *widget.Button
	libraryPath    *widget.Label
	presenceCheck  *widget.Check
	prevButton     *widget.Button
	playButton     *widget.Button
	nextButton     *widget.Button
	artistLabel    *widget.Label
	titleLabel     *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	queueList      *widget.List

	// View state
	queue   []domain.Track
	current int
	library string
	seeking bool
	playing bool

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window titled title.
func NewMainWindow(app fyneapp.App, title string, logger *slog.Logger) *MainWindow {
	w := &MainWindow{
		app:     app,
		logger:  logger.With(slog.String("component", "main_window")),
		current: -1,
	}

	w.window = app.NewWindow(title)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(WIDTH, HEIGHT))

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	// Library row
	w.libraryButton = widget.NewButtonWithIcon("Library", theme.FolderOpenIcon(), nil)
	w.libraryPath = widget.NewLabel(noLibrary)
	w.libraryPath.Truncation = fyneapp.TextTruncateEllipsis
	w.presenceCheck = widget.NewCheck("Discord presence", nil)
	libraryRow := container.NewBorder(nil, nil, w.libraryButton, w.presenceCheck, w.libraryPath)

	// Control buttons
	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	w.prevButton.Disable()
	w.nextButton.Disable()

	// Track info
	w.artistLabel = widget.NewLabel("")
	w.artistLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.titleLabel = widget.NewLabel("")
	w.titleLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.titleLabel.TextStyle = fyneapp.TextStyle{Bold: true}
	trackInfo := container.NewVBox(w.titleLabel, w.artistLabel)

	// Volume slider
	w.volumeSlider = widget.NewSlider(0, 1)
	w.volumeSlider.Step = 0.01
	w.volumeSlider.Value = 1
	volumeHolder := container.NewBorder(nil, nil, widget.NewIcon(theme.VolumeUpIcon()), nil, w.volumeSlider)

	buttons := container.NewHBox(w.prevButton, w.playButton, w.nextButton)
	transport := container.NewBorder(nil, nil, buttons, container.NewGridWrap(fyneapp.NewSize(180, 36), volumeHolder), trackInfo)

	// Progress slider
	w.progressSlider = widget.NewSlider(0, 1)
	w.currentTime = widget.NewLabel(formatTime(0))
	w.endTime = widget.NewLabel(formatTime(0))
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	// Queue
	w.queueList = widget.NewList(
		func() int { return len(w.queue) },
		func() fyneapp.CanvasObject {
			return widgets.NewTrackLabel(func(index int) {
				if w.presenter != nil {
					w.presenter.OnTrackSelected(index)
				}
			})
		},
		func(id widget.ListItemID, item fyneapp.CanvasObject) {
			if id < 0 || id >= len(w.queue) {
				return
			}
			item.(*widgets.TrackLabel).Bind(id, w.queue[id].DisplayName(), id == w.current)
		},
	)

	// Main layout
	top := container.NewVBox(libraryRow, widget.NewSeparator())
	controls := container.NewVBox(widget.NewSeparator(), transport, sliderHolder)
	w.window.SetContent(container.NewPadded(container.NewBorder(top, controls, nil, nil, w.queueList)))

	// Menu
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayClicked
	w.nextButton.OnTapped = w.presenter.OnNextClicked
	w.prevButton.OnTapped = w.presenter.OnPreviousClicked
	w.libraryButton.OnTapped = w.handleChooseLibrary

	w.presenceCheck.OnChanged = w.presenter.OnPresenceToggled

	w.volumeSlider.OnChanged = w.presenter.OnVolumeChanged

	// Seeking: hold off redraws while the user drags, seek on release
	w.progressSlider.OnChanged = func(float64) {
		w.seeking = true
	}
	w.progressSlider.OnChangeEnded = func(value float64) {
		w.seeking = false
		w.presenter.OnSeekRequested(value)
	}

	w.window.SetOnDropped(func(_ fyneapp.Position, uris []fyneapp.URI) {
		paths := lo.FilterMap(uris, func(u fyneapp.URI, _ int) (string, bool) {
			return u.Path(), u.Scheme() == "file"
		})
		w.presenter.OnFilesAdded(paths)
	})
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	chooseLibrary := fyneapp.NewMenuItem("Choose Library...", w.handleChooseLibrary)
	addFile := fyneapp.NewMenuItem("Add File...", w.handleAddFile)
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})

	fileMenu := fyneapp.NewMenu("File", chooseLibrary, addFile, fyneapp.NewMenuItemSeparator(), exitMenu)
	helpMenu := fyneapp.NewMenu("Help", fyneapp.NewMenuItem("About", w.showAbout))
	return []*fyneapp.Menu{fileMenu, helpMenu}
}

// handleChooseLibrary opens the library directory picker.
func (w *MainWindow) handleChooseLibrary() {
	if w.presenter == nil {
		return
	}
	NewFolderDialog(w.window, w.library, w.presenter.OnLibraryChosen, w.logger).Show()
}

// handleAddFile opens the single file picker.
func (w *MainWindow) handleAddFile() {
	if w.presenter == nil {
		return
	}
	NewFileDialog(w.window, w.library, func(path string) {
		w.presenter.OnFilesAdded([]string{path})
	}, w.logger).Show()
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	w.addAltShortcut(fyneapp.KeyUp, func() { w.nudgeVolume(0.05) })
	w.addAltShortcut(fyneapp.KeyDown, func() { w.nudgeVolume(-0.05) })
	w.addAltShortcut(fyneapp.KeyRight, w.presenter.OnNextClicked)
	w.addAltShortcut(fyneapp.KeyLeft, w.presenter.OnPreviousClicked)
	w.addAltShortcut(fyneapp.KeySpace, w.presenter.OnPlayClicked)
}

func (w *MainWindow) addAltShortcut(key fyneapp.KeyName, action func()) {
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  key,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		action()
	})
}

func (w *MainWindow) nudgeVolume(delta float64) {
	// SetValue fires OnChanged, which forwards to the presenter
	w.volumeSlider.SetValue(lo.Clamp(w.volumeSlider.Value+delta, 0, 1))
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// SetOnClosed registers a callback run when the window closes.
func (w *MainWindow) SetOnClosed(callback func()) {
	w.window.SetOnClosed(callback)
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation

// SetPlayState updates the play/pause button icon.
func (w *MainWindow) SetPlayState(playing bool) {
	if playing == w.playing {
		return
	}
	w.playing = playing
	if playing {
		w.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		w.playButton.SetIcon(theme.MediaPlayIcon())
	}
}

// SetNavigation enables prev/next according to the queue position.
func (w *MainWindow) SetNavigation(canPrev, canNext bool) {
	setEnabled(w.prevButton, canPrev)
	setEnabled(w.nextButton, canNext)
}

func setEnabled(button *widget.Button, enabled bool) {
	switch {
	case enabled && button.Disabled():
		button.Enable()
	case !enabled && !button.Disabled():
		button.Disable()
	}
}

// SetVolume moves the volume slider without notifying the presenter.
func (w *MainWindow) SetVolume(volume float64) {
	w.volumeSlider.Value = volume
	w.volumeSlider.Refresh()
}

// SetTrackInfo updates the artist and title labels.
func (w *MainWindow) SetTrackInfo(artist, title string) {
	setText(w.artistLabel, artist)
	setText(w.titleLabel, title)
}

func setText(label *widget.Label, text string) {
	if label.Text != text {
		label.SetText(text)
	}
}

// SetProgress updates the seek slider and the elapsed/total labels.
func (w *MainWindow) SetProgress(playhead, duration time.Duration) {
	setText(w.currentTime, formatTime(playhead))
	setText(w.endTime, formatTime(duration))

	if w.seeking {
		return
	}
	w.progressSlider.Max = max(duration.Seconds(), 1)
	w.progressSlider.Value = playhead.Seconds()
	w.progressSlider.Refresh()
}

// SetLibraryPath shows the current library directory.
func (w *MainWindow) SetLibraryPath(path string) {
	w.library = path
	if path == "" {
		path = noLibrary
	}
	setText(w.libraryPath, path)
}

// SetQueue replaces the queue list contents.
func (w *MainWindow) SetQueue(tracks []domain.Track) {
	w.queue = tracks
	w.current = -1
	w.queueList.Refresh()
}

// SelectQueueIndex highlights the current track and scrolls to it.
func (w *MainWindow) SelectQueueIndex(index int) {
	w.current = index
	w.queueList.Refresh()
	if index >= 0 && index < len(w.queue) {
		w.queueList.ScrollTo(index)
	}
}

// SetPresenceEnabled ticks the presence box without notifying the presenter.
func (w *MainWindow) SetPresenceEnabled(enabled bool) {
	w.presenceCheck.Checked = enabled
	w.presenceCheck.Refresh()
}

// ShowNotification displays a system notification.
func (w *MainWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

// formatTime renders d as mm:ss.
func formatTime(d time.Duration) string {
	seconds := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%.2d:%.2d", seconds/60, seconds%60)
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
