package device

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/softrobo/musclerig/pkg/config"
	"github.com/softrobo/musclerig/pkg/rig"
	"github.com/softrobo/musclerig/pkg/tof"
)

// Mock simulates a rig for testing and development. It is not a canned data
// generator: it runs the real firmware loop (pkg/rig) against simulated
// sensors and feeds the emitted lines back through the same parser the
// serial device uses.
type Mock struct {
	cfg *config.Config

	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	rnd *rand.Rand
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:      cfg,
		readings: make(chan Reading, DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Connect starts the simulated firmware loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true

	go m.run()

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.readings)

	return nil
}

// Readings returns the channel delivering simulated records.
func (m *Mock) Readings() <-chan Reading {
	return m.readings
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// run drives a rig.Rig the way the firmware main loop does, with simulated
// ADCs and a simulated distance sensor stream.
func (m *Mock) run() {
	defer func() {
		// Close may win the race against a line emitted mid-tick; a send on
		// the closed channel must not take the process down.
		if r := recover(); r != nil {
			log.Printf("Panic in mock loop: %v", r)
		}
	}()

	rigCfg := rig.DefaultConfig()
	rigCfg.WindowSize = m.cfg.Filter.WindowSize
	rigCfg.ProcessNoise = m.cfg.Filter.ProcessNoise
	rigCfg.MeasurementNoise = m.cfg.Filter.MeasurementNoise
	rigCfg.InitialCovariance = m.cfg.Filter.InitialCovariance

	force := &noisyADC{
		level:  m.cfg.Mock.ForceN,
		noise:  m.cfg.Mock.ForceNoise,
		scale:  rigCfg.ForceMax,
		rawMax: float64(rigCfg.RawMax),
		rnd:    m.rnd,
	}
	pressure := &noisyADC{
		level:  m.cfg.Mock.PressureMPa,
		noise:  0.002,
		scale:  rigCfg.PressureMax,
		rawMax: float64(rigCfg.RawMax),
		rnd:    m.rnd,
	}
	sensor := &frameStream{}

	r := rig.New(rigCfg, force, pressure, sensor, &lineSink{mock: m})
	r.Start()

	ticker := time.NewTicker(m.cfg.Mock.SampleInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			// Refill the sensor stream one frame at a time; the loop
			// drains it a byte per iteration like the real UART.
			if sensor.Buffered() == 0 {
				mm := m.cfg.Mock.DistanceMM + (m.rnd.Float64()*2-1)*m.cfg.Mock.DistanceNoise
				if mm < 0 {
					mm = 0
				}
				sensor.data = tof.AppendFrame(sensor.data, uint32(mm*100))
			}
			r.Tick(time.Since(start).Milliseconds())
		}
	}
}

// deliver routes one emitted line to the readings channel.
func (m *Mock) deliver(line string) {
	if line == rig.ReadyMessage {
		return
	}

	reading, err := ParseLine(line)
	if err != nil {
		log.Printf("Mock produced unparsable line '%s': %v", line, err)
		return
	}

	select {
	case m.readings <- reading:
	case <-m.ctx.Done():
	default:
		log.Printf("Readings channel full, dropping reading")
	}
}

// noisyADC simulates an analog sensor channel: a steady physical level plus
// uniform noise, converted to raw counts. The physical ADC saturates at its
// rails, so raw values are clamped here, not in the loop.
type noisyADC struct {
	level  float64
	noise  float64
	scale  float64 // physical value at full scale
	rawMax float64
	rnd    *rand.Rand
}

func (a *noisyADC) Get() uint16 {
	v := a.level + (a.rnd.Float64()*2-1)*a.noise
	raw := v / a.scale * a.rawMax
	if raw < 0 {
		raw = 0
	}
	if raw > a.rawMax {
		raw = a.rawMax
	}
	return uint16(raw)
}

// frameStream is an in-memory distance sensor byte stream. Only the mock
// goroutine touches it.
type frameStream struct {
	data []byte
}

func (s *frameStream) Buffered() int { return len(s.data) }

func (s *frameStream) ReadByte() (byte, error) {
	if len(s.data) == 0 {
		return 0, fmt.Errorf("no data")
	}
	b := s.data[0]
	s.data = s.data[1:]
	return b, nil
}

// lineSink receives the rig's serial output and hands complete lines to the
// mock.
type lineSink struct {
	mock *Mock
	buf  strings.Builder
}

func (s *lineSink) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			s.mock.deliver(strings.TrimSpace(s.buf.String()))
			s.buf.Reset()
			continue
		}
		s.buf.WriteByte(b)
	}
	return len(p), nil
}
