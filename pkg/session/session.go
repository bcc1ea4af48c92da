// Package session implements the measurement workflow around the rig stream:
// distance-offset calibration, contraction-rate computation, and recording of
// (force, contraction) series grouped by target pressure.
package session

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/softrobo/musclerig/pkg/device"
	"github.com/softrobo/musclerig/pkg/rig"
)

// Calibration maps sensor distances onto true specimen lengths.
type Calibration struct {
	InitialLength float64 // measured true initial length (mm)
	Offset        float64 // added to every sensor distance (mm)
}

// Calibrate averages n valid distance readings from the stream and derives
// the offset that makes the sensor agree with the measured initial length.
// Sentinel readings (no distance data yet) are skipped.
func Calibrate(ctx context.Context, readings <-chan device.Reading, n int, initialLength float64) (Calibration, error) {
	if initialLength <= 0 {
		return Calibration{}, fmt.Errorf("initial length must be positive, got %v", initialLength)
	}
	if n <= 0 {
		n = 1
	}

	var sum float64
	got := 0
	for got < n {
		select {
		case <-ctx.Done():
			return Calibration{}, fmt.Errorf("calibration interrupted: %w", ctx.Err())
		case r, ok := <-readings:
			if !ok {
				return Calibration{}, fmt.Errorf("reading stream closed after %d of %d samples", got, n)
			}
			if r.Distance == rig.NoDistance {
				continue
			}
			sum += r.Distance
			got++
		}
	}

	measured := sum / float64(n)
	return Calibration{
		InitialLength: initialLength,
		Offset:        initialLength - measured,
	}, nil
}

// Contraction converts a sensor distance into a contraction rate in percent
// of the initial length. Positive values mean the specimen got shorter.
func (c Calibration) Contraction(distance float64) float64 {
	calibrated := distance + c.Offset
	return -((calibrated - c.InitialLength) / c.InitialLength) * 100.0
}

// Point is one observation within a session.
type Point struct {
	Force       float64 // N
	Contraction float64 // percent of initial length
}

// Session holds the points recorded at one target pressure.
type Session struct {
	TargetPressure float64 // MPa
	Points         []Point
}

// Recorder accumulates sessions keyed by target pressure. Safe for use from
// the reader goroutine and the UI at the same time.
type Recorder struct {
	mu       sync.Mutex
	sessions map[float64]*Session
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{sessions: make(map[float64]*Session)}
}

// Record appends one point to the session for the given target pressure,
// creating the session on first use.
func (r *Recorder) Record(targetPressure float64, p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[targetPressure]
	if !ok {
		s = &Session{TargetPressure: targetPressure}
		r.sessions[targetPressure] = s
	}
	s.Points = append(s.Points, p)
}

// Sessions returns a copy of all sessions ordered by target pressure.
func (r *Recorder) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		cp := Session{TargetPressure: s.TargetPressure}
		cp.Points = append(cp.Points, s.Points...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TargetPressure < out[j].TargetPressure
	})
	return out
}

// Len returns the number of recorded sessions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// WriteCSV writes all sessions as side-by-side column pairs, one pair per
// target pressure, shorter sessions padded with empty cells. The layout
// matches the spreadsheets the downstream force-contraction analysis
// expects.
func (r *Recorder) WriteCSV(w io.Writer) error {
	sessions := r.Sessions()
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions recorded")
	}

	cw := csv.NewWriter(w)

	title := make([]string, 0, len(sessions)*2)
	header := make([]string, 0, len(sessions)*2)
	rows := 0
	for _, s := range sessions {
		title = append(title, fmt.Sprintf("pressure %g MPa", s.TargetPressure), "")
		header = append(header, "force_n", "contraction_pct")
		if len(s.Points) > rows {
			rows = len(s.Points)
		}
	}
	if err := cw.Write(title); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(sessions)*2)
	for i := 0; i < rows; i++ {
		for j, s := range sessions {
			if i < len(s.Points) {
				record[j*2] = strconv.FormatFloat(s.Points[i].Force, 'f', 2, 64)
				record[j*2+1] = strconv.FormatFloat(s.Points[i].Contraction, 'f', 2, 64)
			} else {
				record[j*2] = ""
				record[j*2+1] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
