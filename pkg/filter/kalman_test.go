package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKalman_ConvergesToConstantInput(t *testing.T) {
	f := NewKalman(1.0, 1.0, 1.0)

	const target = 100.0
	prevErr := math.Abs(target - f.Estimate())

	for i := 0; i < 50; i++ {
		est := f.Update(target)
		err := math.Abs(target - est)
		assert.LessOrEqual(t, err, prevErr, "error must not grow on step %d", i)
		prevErr = err
	}

	assert.InDelta(t, target, f.Estimate(), 1e-6)
}

func TestKalman_GainStaysInUnitInterval(t *testing.T) {
	// Q=0 keeps the covariance from inflating, the gain must still be a
	// valid blend factor on every step.
	f := NewKalman(0, 0.5, 2.0)

	for i := 0; i < 100; i++ {
		f.Update(float64(i % 7))
		g := f.Gain()
		assert.GreaterOrEqual(t, g, 0.0)
		assert.LessOrEqual(t, g, 1.0)
	}
}

func TestKalman_InstancesAreIndependent(t *testing.T) {
	a := NewKalman(1.0, 1.0, 1.0)
	b := NewKalman(1.0, 1.0, 1.0)

	for i := 0; i < 30; i++ {
		a.Update(10.0)
		b.Update(-10.0)
	}

	assert.InDelta(t, 10.0, a.Estimate(), 0.01)
	assert.InDelta(t, -10.0, b.Estimate(), 0.01)
}

func TestKalman_StartsAtZero(t *testing.T) {
	f := NewKalman(0.5, 2.0, 1.0)
	assert.Equal(t, 0.0, f.Estimate())
	assert.Equal(t, 0.0, f.Gain())

	// First update moves the estimate a gain-sized fraction toward the
	// measurement: P=1.5, K=1.5/3.5.
	est := f.Update(7.0)
	assert.InDelta(t, 7.0*1.5/3.5, est, 1e-12)
}
