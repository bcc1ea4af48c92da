package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow_MeanIncludesUnwrittenSlots(t *testing.T) {
	w := NewWindow(20)
	w.Push(40.0)

	// 19 implicit zeros remain in the buffer.
	assert.InDelta(t, 2.0, w.Mean(), 1e-12)
	assert.Equal(t, 1, w.Count())
	assert.False(t, w.Full())
}

func TestWindow_MeanAfterExactlyCapacityPushes(t *testing.T) {
	w := NewWindow(5)
	values := []float64{1, 2, 3, 4, 5}
	for _, v := range values {
		w.Push(v)
	}

	assert.True(t, w.Full())
	assert.InDelta(t, 3.0, w.Mean(), 1e-12)
}

func TestWindow_OverwriteIsEviction(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 10} {
		w.Push(v)
	}

	// 1 was overwritten; buffer now holds 10, 2, 3.
	assert.InDelta(t, 5.0, w.Mean(), 1e-12)
}

func TestWindow_FullLatchNeverClears(t *testing.T) {
	w := NewWindow(2)
	w.Push(1)
	w.Push(1)
	assert.True(t, w.Full())

	for i := 0; i < 10; i++ {
		w.Push(float64(i))
		assert.True(t, w.Full())
		assert.Equal(t, 2, w.Count())
	}
}

func TestWindow_CountSaturatesAtCapacity(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 3; i++ {
		w.Push(1)
	}
	assert.Equal(t, 3, w.Count())
	assert.False(t, w.Full())

	w.Push(1)
	w.Push(1)
	assert.Equal(t, 4, w.Count())
}
