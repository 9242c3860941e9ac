// Package widgets holds the custom Fyne widgets used by the main window.
package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// Ensure TrackLabel implements the Tappable interface
var _ fyne.Tappable = (*TrackLabel)(nil)

// TrackLabel is a queue list row. Tapping it reports its index;
// the current track is drawn in bold.
type TrackLabel struct {
	widget.Label
	tapped func(index int)
	index  int
}

// NewTrackLabel creates a label that calls tapped with its index when tapped.
func NewTrackLabel(tapped func(index int)) *TrackLabel {
	label := &TrackLabel{
		tapped: tapped,
		index:  -1,
	}
	label.Truncation = fyne.TextTruncateEllipsis
	label.ExtendBaseWidget(label)
	return label
}

// Tapped implements the fyne.Tappable interface.
func (l *TrackLabel) Tapped(_ *fyne.PointEvent) {
	if l.tapped != nil && l.index >= 0 {
		l.tapped(l.index)
	}
}

// Bind points the label at a queue entry.
func (l *TrackLabel) Bind(index int, text string, current bool) {
	l.index = index
	l.TextStyle = fyne.TextStyle{Bold: current}
	l.Importance = widget.MediumImportance
	if current {
		l.Importance = widget.HighImportance
	}
	l.SetText(text)
}

// Index returns the queue index the label is bound to, -1 when unbound.
func (l *TrackLabel) Index() int {
	return l.index
}
