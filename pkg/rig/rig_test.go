package rig

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softrobo/musclerig/pkg/filter"
	"github.com/softrobo/musclerig/pkg/tof"
)

// constADC always reads the same raw value.
type constADC uint16

func (a constADC) Get() uint16 { return uint16(a) }

// byteQueue is a scripted distance-sensor stream.
type byteQueue struct {
	data []byte
}

func (q *byteQueue) Buffered() int { return len(q.data) }

func (q *byteQueue) ReadByte() (byte, error) {
	if len(q.data) == 0 {
		return 0, errors.New("empty")
	}
	b := q.data[0]
	q.data = q.data[1:]
	return b, nil
}

// failingSource reports bytes available but errors on read.
type failingSource struct{}

func (failingSource) Buffered() int           { return 1 }
func (failingSource) ReadByte() (byte, error) { return 0, errors.New("bus error") }

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimSuffix(buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestRig_StartEmitsReadyLine(t *testing.T) {
	var out bytes.Buffer
	r := New(DefaultConfig(), constADC(0), constADC(0), &byteQueue{}, &out)

	r.Start()
	assert.Equal(t, "Arduino is Ready\n", out.String())
}

func TestRig_SilentUntilWindowNearlyFull(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultConfig()
	r := New(cfg, constADC(512), constADC(100), &byteQueue{}, &out)

	// Every tick is also a scheduler tick: the clock advances a full
	// interval each iteration.
	for i := 1; i <= 19; i++ {
		r.Tick(int64(i) * 100)
	}
	// Tick 19 reaches capacity-1 force pushes: the scheduler transitions
	// but the transition tick stays silent.
	assert.True(t, r.Streaming())
	assert.Empty(t, lines(&out))

	r.Tick(2000)
	assert.Len(t, lines(&out), 1)

	// From here on, exactly one line per tick.
	for i := 21; i <= 30; i++ {
		r.Tick(int64(i) * 100)
	}
	assert.Len(t, lines(&out), 11)
}

func TestRig_NoOutputBetweenScheduledTicks(t *testing.T) {
	var out bytes.Buffer
	r := New(DefaultConfig(), constADC(512), constADC(100), &byteQueue{}, &out)

	for i := 1; i <= 20; i++ {
		r.Tick(int64(i) * 100)
	}
	n := len(lines(&out))

	// Loop iterations inside the same 100 ms interval must not emit.
	r.Tick(2001)
	r.Tick(2050)
	r.Tick(2099)
	assert.Len(t, lines(&out), n)

	r.Tick(2100)
	assert.Len(t, lines(&out), n+1)
}

var lineRe = regexp.MustCompile(`^-?\d+\.\d{2},-?\d+\.\d{2},\d+\.\d{3}$`)

func TestRig_OutputFormat(t *testing.T) {
	var out bytes.Buffer
	r := New(DefaultConfig(), constADC(512), constADC(512), &byteQueue{}, &out)

	for i := 1; i <= 25; i++ {
		r.Tick(int64(i) * 100)
	}

	got := lines(&out)
	require.NotEmpty(t, got)
	for _, line := range got {
		assert.Regexp(t, lineRe, line)
	}

	// No distance frame ever arrived: the sentinel is reported.
	fields := strings.Split(got[0], ",")
	require.Len(t, fields, 3)
	assert.Equal(t, "-1.00", fields[1])

	// Pressure is the fresh rescaled raw value: 512/1023 to three decimals.
	p, err := strconv.ParseFloat(fields[2], 64)
	require.NoError(t, err)
	assert.InDelta(t, 512.0/1023.0, p, 0.0005)
}

func TestRig_ForceConvergesToConstantInput(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.RawMax = 1024 // raw 512 maps exactly to 100.0 N

	r := New(cfg, constADC(512), constADC(0), &byteQueue{}, &out)

	for i := 1; i <= 25; i++ {
		r.Tick(int64(i) * 100)
	}

	got := lines(&out)
	require.GreaterOrEqual(t, len(got), 5)

	// The 21st sample onward the window holds only near-converged
	// estimates; the force field must sit tight around 100.00.
	last := got[len(got)-1]
	fields := strings.Split(last, ",")
	require.Len(t, fields, 3)

	f, err := strconv.ParseFloat(fields[0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 100.00, f, 0.25)
	assert.Regexp(t, `^\d+\.\d{2}$`, fields[0])

	// Warm-up bias: earlier lines must not overshoot the target.
	first, err := strconv.ParseFloat(strings.Split(got[0], ",")[0], 64)
	require.NoError(t, err)
	assert.Less(t, first, f+0.01)
}

func TestRig_DistanceFedByDecoder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowSize = 1 // isolate the filter from the window bias

	stream := &byteQueue{data: tof.AppendFrame(nil, 10000)} // 100.00
	r := New(cfg, constADC(0), constADC(0), stream, &bytes.Buffer{})

	// One byte per tick; the frame is 10 bytes long.
	for i := 0; i < 9; i++ {
		r.Tick(0)
		assert.Equal(t, NoDistance, r.Distance())
	}
	r.Tick(0)

	want := filter.NewKalman(cfg.ProcessNoise, cfg.MeasurementNoise, cfg.InitialCovariance).Update(100.0)
	assert.InDelta(t, want, r.Distance(), 1e-9)
}

func TestRig_DistanceFreezesOnBadFrames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowSize = 1

	stream := &byteQueue{data: tof.AppendFrame(nil, 5000)}
	r := New(cfg, constADC(0), constADC(0), stream, &bytes.Buffer{})
	for i := 0; i < 10; i++ {
		r.Tick(0)
	}
	frozen := r.Distance()
	require.NotEqual(t, NoDistance, frozen)

	// A frame with a zero busy flag must not disturb the reading.
	bad := tof.AppendFrame(nil, 9999)
	bad[7] = 0x00
	stream.data = bad
	for i := 0; i < 10; i++ {
		r.Tick(0)
	}
	assert.Equal(t, frozen, r.Distance())
}

func TestRig_ConsumesOneDistanceBytePerTick(t *testing.T) {
	stream := &byteQueue{data: make([]byte, 50)}
	r := New(DefaultConfig(), constADC(0), constADC(0), stream, &bytes.Buffer{})

	r.Tick(0)
	assert.Equal(t, 49, stream.Buffered())
	r.Tick(1)
	assert.Equal(t, 48, stream.Buffered())
}

func TestRig_SurvivesReadErrors(t *testing.T) {
	var out bytes.Buffer
	r := New(DefaultConfig(), constADC(512), constADC(0), failingSource{}, &out)

	for i := 1; i <= 25; i++ {
		r.Tick(int64(i) * 100)
	}

	// The force channel keeps running and streaming starts regardless.
	assert.True(t, r.Streaming())
	assert.NotEmpty(t, lines(&out))
	assert.Equal(t, NoDistance, r.Distance())
}
