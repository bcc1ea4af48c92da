// Package scope provides a Fyne widget that renders the live rig stream as
// strip-chart traces: stabilized force, calibrated distance and line
// pressure over a sliding time window.
package scope

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/softrobo/musclerig/pkg/device"
)

// DefaultWindow is the time span kept for display.
const DefaultWindow = 30 * time.Second

// ScopeWidget is a custom Fyne widget displaying the reading traces.
type ScopeWidget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu       sync.RWMutex
	readings []device.Reading
	window   time.Duration

	// Display buffer (reused for downsampling)
	display []device.Reading

	maxDisplayPoints int
}

// New creates a scope widget with the default time window.
func New() *ScopeWidget {
	s := &ScopeWidget{
		window:           DefaultWindow,
		display:          make([]device.Reading, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// Append adds one reading and drops readings older than the display window.
// Call from the UI goroutine via fyne.Do.
func (s *ScopeWidget) Append(r device.Reading) {
	s.mu.Lock()

	s.readings = append(s.readings, r)

	cutoff := r.Timestamp.Add(-s.window)
	drop := 0
	for drop < len(s.readings) && s.readings[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		s.readings = s.readings[drop:]
	}

	s.display = downsample(s.display, s.readings, s.maxDisplayPoints)

	s.mu.Unlock()

	// Refresh outside the lock to avoid a deadlock with the renderer.
	s.Refresh()
}

// Clear drops all readings.
func (s *ScopeWidget) Clear() {
	s.mu.Lock()
	s.readings = s.readings[:0]
	s.display = s.display[:0]
	s.mu.Unlock()
	s.Refresh()
}

// Latest returns the most recent reading and whether one exists.
func (s *ScopeWidget) Latest() (device.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.readings) == 0 {
		return device.Reading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

// CreateRenderer creates the Fyne renderer for the widget.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	return newRenderer(s)
}
