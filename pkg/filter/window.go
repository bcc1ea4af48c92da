package filter

// DefaultWindowSize is the history length used by the rig channels.
const DefaultWindowSize = 20

// Window is a fixed-capacity circular history producing a moving mean.
//
// Mean always averages over the entire backing buffer. Until the window has
// seen capacity pushes the unwritten slots count as zeros, so the early mean
// is biased toward zero. That matches the deployed firmware and the readings
// recorded with it, so it is kept as-is; the output scheduler hides the
// warm-up period from the host anyway.
type Window struct {
	buf   []float64
	pos   int
	count int
	full  bool
}

// NewWindow creates a window holding capacity samples. Capacity must be at
// least 1.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

// Push inserts v, overwriting the oldest slot once the buffer has wrapped.
func (w *Window) Push(v float64) {
	w.buf[w.pos] = v
	w.pos = (w.pos + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
		if w.count == len(w.buf) {
			w.full = true
		}
	}
}

// Mean returns the arithmetic mean over the whole backing buffer.
func (w *Window) Mean() float64 {
	var sum float64
	for _, v := range w.buf {
		sum += v
	}
	return sum / float64(len(w.buf))
}

// Count returns the number of pushes observed, saturated at capacity.
func (w *Window) Count() int {
	return w.count
}

// Full reports whether capacity pushes have occurred. Once set it never
// clears.
func (w *Window) Full() bool {
	return w.full
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}
