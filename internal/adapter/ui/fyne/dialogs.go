package fyne

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// audioExtensions limits the file picker; directory scans do not filter.
var audioExtensions = []string{".mp3", ".flac", ".wav", ".ogg", ".oga"}

// FileDialog is a helper for picking single audio files to append to the queue.
type FileDialog struct {
	window   fyne.Window
	start    string
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog opening in start (may be empty).
func NewFileDialog(window fyne.Window, start string, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		start:    start,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	picker := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Warn("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)

	picker.SetFilter(storage.NewExtensionFileFilter(audioExtensions))
	if location := listable(d.start, d.logger); location != nil {
		picker.SetLocation(location)
	}
	picker.Show()
}

// FolderDialog is the library directory picker.
type FolderDialog struct {
	window   fyne.Window
	start    string
	callback func(string)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder dialog opening in start (may be empty).
func NewFolderDialog(window fyne.Window, start string, callback func(string), logger *slog.Logger) *FolderDialog {
	return &FolderDialog{
		window:   window,
		start:    start,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	picker := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			d.logger.Warn("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // User cancelled
		}

		if d.callback != nil {
			d.callback(uri.Path())
		}
	}, d.window)

	if location := listable(d.start, d.logger); location != nil {
		picker.SetLocation(location)
	}
	picker.Show()
}

// listable turns a directory path into a dialog start location, nil if unusable.
func listable(dir string, logger *slog.Logger) fyne.ListableURI {
	if dir == "" {
		return nil
	}
	uri, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		logger.Debug("cannot start dialog in directory", slog.String("path", dir), slog.Any("error", err))
		return nil
	}
	return uri
}
