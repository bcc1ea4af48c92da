// Package rig implements the firmware control loop of the muscle test rig:
// two analog channels (force, pneumatic pressure), one serial-framed distance
// sensor, per-sample Kalman smoothing, sliding-window averaging and the
// fixed-cadence output scheduler.
//
// The package is hardware-free. The TinyGo entry point under firmware/ wires
// machine.ADC and machine.UART into the interfaces below; tests and the host
// mock device drive the same loop with simulated collaborators.
package rig

import (
	"fmt"
	"io"

	"github.com/softrobo/musclerig/pkg/filter"
	"github.com/softrobo/musclerig/pkg/tof"
)

// ReadyMessage is the handshake line emitted once at startup. The host side
// waits for this exact text before it starts parsing data lines, so it must
// not change.
const ReadyMessage = "Arduino is Ready"

// NoDistance is reported until the distance sensor has produced its first
// valid frame.
const NoDistance = -1.0

// AnalogReader is a single ADC channel. machine.ADC satisfies it.
type AnalogReader interface {
	Get() uint16
}

// ByteSource is a non-blocking byte stream. machine.UART satisfies it.
type ByteSource interface {
	Buffered() int
	ReadByte() (byte, error)
}

// Config holds the loop parameters. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	RawMax      uint16  // full-scale ADC reading
	ForceMax    float64 // force at full scale (N)
	PressureMax float64 // pressure at full scale (MPa)

	WindowSize        int
	ProcessNoise      float64 // Kalman Q
	MeasurementNoise  float64 // Kalman R, must be > 0
	InitialCovariance float64 // Kalman P at startup

	OutputIntervalMillis int64
}

// DefaultConfig matches the deployed rig: 10-bit ADC, 0-200 N force range,
// 0-1 MPa pressure range, 20-sample windows, 100 ms output cadence.
func DefaultConfig() Config {
	return Config{
		RawMax:               1023,
		ForceMax:             200,
		PressureMax:          1.0,
		WindowSize:           filter.DefaultWindowSize,
		ProcessNoise:         1.0,
		MeasurementNoise:     1.0,
		InitialCovariance:    1.0,
		OutputIntervalMillis: 100,
	}
}

// Rig owns all loop state. It is single-threaded: Tick must only be called
// from one goroutine (the firmware main loop or a test harness).
type Rig struct {
	cfg Config

	force    *Channel
	distance *Channel
	dec      tof.Decoder

	// Latest stabilized readings. Distance keeps its last good value when
	// the sensor stream stalls.
	forceValue    float64
	distanceValue float64

	forceADC    AnalogReader
	pressureADC AnalogReader
	distSource  ByteSource
	out         io.Writer

	streaming bool
	lastEmit  int64
}

// New creates a rig bound to its collaborators. out receives the readiness
// line and the data lines.
func New(cfg Config, forceADC, pressureADC AnalogReader, distSource ByteSource, out io.Writer) *Rig {
	return &Rig{
		cfg:           cfg,
		force:         NewChannel(cfg),
		distance:      NewChannel(cfg),
		forceADC:      forceADC,
		pressureADC:   pressureADC,
		distSource:    distSource,
		out:           out,
		distanceValue: NoDistance,
	}
}

// Start emits the one-time readiness line.
func (r *Rig) Start() {
	fmt.Fprintf(r.out, "%s\n", ReadyMessage)
}

// Tick runs one loop iteration: poll at most one distance byte, sample the
// force channel, and emit an output line if the 100 ms cadence is due and
// the windows are warm. now is a monotonic millisecond clock.
func (r *Rig) Tick(now int64) {
	r.pollDistance()
	r.sampleForce()
	r.schedule(now)
}

// Streaming reports whether the scheduler has left the buffering state.
func (r *Rig) Streaming() bool {
	return r.streaming
}

// Force returns the current stabilized force reading.
func (r *Rig) Force() float64 {
	return r.forceValue
}

// Distance returns the current stabilized distance, or NoDistance before the
// first valid frame.
func (r *Rig) Distance() float64 {
	return r.distanceValue
}

func (r *Rig) pollDistance() {
	if r.distSource.Buffered() == 0 {
		return
	}
	b, err := r.distSource.ReadByte()
	if err != nil {
		return
	}
	if v, ok := r.dec.Feed(b); ok {
		r.distanceValue = r.distance.Update(v)
	}
}

func (r *Rig) sampleForce() {
	raw := r.forceADC.Get()
	r.forceValue = r.force.Update(rescale(raw, r.cfg.RawMax, r.cfg.ForceMax))
}

func (r *Rig) schedule(now int64) {
	if now-r.lastEmit < r.cfg.OutputIntervalMillis {
		return
	}
	r.lastEmit = now

	if !r.streaming {
		// Hold output until either window is one push short of full. The
		// transition tick itself stays silent; streaming is terminal.
		if r.force.Count() >= r.cfg.WindowSize-1 || r.distance.Count() >= r.cfg.WindowSize-1 {
			r.streaming = true
		}
		return
	}

	// Pressure is sampled fresh at output time, no smoothing.
	pressure := rescale(r.pressureADC.Get(), r.cfg.RawMax, r.cfg.PressureMax)
	fmt.Fprintf(r.out, "%.2f,%.2f,%.3f\n", r.forceValue, r.distanceValue, pressure)
}

// rescale maps a raw ADC value onto [0, outMax]. Out-of-range raw values are
// not clamped; they pass straight through the pipeline.
func rescale(raw uint16, rawMax uint16, outMax float64) float64 {
	return float64(raw) / float64(rawMax) * outMax
}
