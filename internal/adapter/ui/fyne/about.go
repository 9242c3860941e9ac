package fyne

import (
	"net/url"

	"fyne.io/fyne/v2/widget"
	xdialog "fyne.io/x/fyne/dialog"
)

const projectURL = "https://github.com/chasetripleseven/attention"

// aboutContent is the Markdown shown in the About dialog.
const aboutContent = `A small music player for a folder of local files.

**Usage:**
- Pick a library folder; its files are queued in listing order
- Click a queue entry to play it
- Drop files on the window to append them to the queue

**Shortcuts:**
- Alt+Space play/pause
- Alt+Left / Alt+Right previous / next
- Alt+Up / Alt+Down volume
`

// showAbout opens the About dialog.
func (w *MainWindow) showAbout() {
	var links []*widget.Hyperlink
	if u, err := url.Parse(projectURL); err == nil {
		links = append(links, widget.NewHyperlink("Source", u))
	}
	xdialog.ShowAbout(aboutContent, links, w.app, w.window)
}
