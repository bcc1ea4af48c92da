package rig

import "github.com/softrobo/musclerig/pkg/filter"

// Channel conditions one signal: a Kalman filter smooths each sample, a
// sliding window averages the filtered history. Each signal needs its own
// Channel; the filter covariance is per-signal state.
type Channel struct {
	kalman *filter.Kalman
	window *filter.Window
}

// NewChannel creates a channel with the filter and window parameters from
// cfg.
func NewChannel(cfg Config) *Channel {
	return &Channel{
		kalman: filter.NewKalman(cfg.ProcessNoise, cfg.MeasurementNoise, cfg.InitialCovariance),
		window: filter.NewWindow(cfg.WindowSize),
	}
}

// Update feeds one physical-unit sample through the filter into the window
// and returns the new stabilized reading.
func (c *Channel) Update(v float64) float64 {
	c.window.Push(c.kalman.Update(v))
	return c.window.Mean()
}

// Mean returns the current window mean.
func (c *Channel) Mean() float64 {
	return c.window.Mean()
}

// Count returns the number of samples the window has seen, saturated at its
// capacity.
func (c *Channel) Count() int {
	return c.window.Count()
}
