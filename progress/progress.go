// Package progress renders a single live status line during a run.
package progress

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/mdvault/mailmd/stats"
)

// Line shows the current folder, the remaining-message countdown, the number
// of archived messages and the date of the message just scanned. It stays
// silent unless Start succeeded, so non-interactive runs lose nothing.
type Line struct {
	area    *pterm.AreaPrinter
	enabled bool
	found   int
}

func New(enabled bool) *Line {
	return &Line{enabled: enabled}
}

func (l *Line) Start() {
	if !l.enabled {
		return
	}
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		l.enabled = false
		return
	}
	l.area = area
}

// Update redraws the status line from a walker event.
func (l *Line) Update(evt stats.Event) {
	if evt.Type == stats.EventTypeAccepted {
		l.found++
	}
	if l.area == nil {
		return
	}

	date := evt.Date
	if date == "" {
		date = "----------"
	}
	l.area.Update(fmt.Sprintf("Folder: %s | Remaining: %d | Archived: %d | Date: %s",
		evt.Folder, evt.Countdown, l.found, date))
}

func (l *Line) Stop() {
	if l.area == nil {
		return
	}
	_ = l.area.Stop()
	l.area = nil
}
