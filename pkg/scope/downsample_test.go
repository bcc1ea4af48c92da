package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softrobo/musclerig/pkg/device"
)

func TestDownsample_NoDownsampling(t *testing.T) {
	now := time.Now()
	readings := []device.Reading{
		{Timestamp: now, Force: 1.0, Distance: 180.0, Pressure: 0.3},
		{Timestamp: now.Add(100 * time.Millisecond), Force: 1.1, Distance: 180.0, Pressure: 0.3},
		{Timestamp: now.Add(200 * time.Millisecond), Force: 1.2, Distance: 180.0, Pressure: 0.3},
	}

	// Test with nil dst
	result := downsample(nil, readings, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, readings[0], result[0])
	assert.Equal(t, readings[1], result[1])
	assert.Equal(t, readings[2], result[2])

	// Test with sufficient capacity dst
	dst := make([]device.Reading, 0, 10)
	result = downsample(dst, readings, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, readings[0], result[0])
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_WithDownsampling(t *testing.T) {
	now := time.Now()
	readings := make([]device.Reading, 100)
	for i := 0; i < 100; i++ {
		readings[i] = device.Reading{
			Timestamp: now.Add(time.Duration(i) * 10 * time.Millisecond),
			Force:     float64(i) * 0.01,
			Distance:  180.0,
			Pressure:  0.3,
		}
	}

	dst := make([]device.Reading, 0, 20)
	result := downsample(dst, readings, 10)
	require.Equal(t, 10, len(result))

	// Always includes the first reading
	assert.Equal(t, readings[0], result[0])

	// Last point should come from the tail of the range
	assert.GreaterOrEqual(t, result[len(result)-1].Force, 0.8)
}

func TestDownsample_DestinationReuse(t *testing.T) {
	now := time.Now()
	readings1 := []device.Reading{
		{Timestamp: now, Force: 1.0},
		{Timestamp: now.Add(100 * time.Millisecond), Force: 1.1},
	}
	readings2 := []device.Reading{
		{Timestamp: now, Force: 2.0},
		{Timestamp: now.Add(100 * time.Millisecond), Force: 2.1},
		{Timestamp: now.Add(200 * time.Millisecond), Force: 2.2},
	}

	dst := make([]device.Reading, 0, 10)
	result1 := downsample(dst, readings1, 10)
	require.Equal(t, 2, len(result1))

	result2 := downsample(result1, readings2, 10)
	require.Equal(t, 3, len(result2))

	// Same underlying array is reused
	assert.Equal(t, cap(result1), cap(result2))
}

func TestDownsample_EmptyInput(t *testing.T) {
	result := downsample(nil, []device.Reading{}, 10)
	require.Equal(t, 0, len(result))
}

func TestDownsample_ExactMaxPoints(t *testing.T) {
	now := time.Now()
	readings := make([]device.Reading, 10)
	for i := 0; i < 10; i++ {
		readings[i] = device.Reading{
			Timestamp: now.Add(time.Duration(i) * 10 * time.Millisecond),
			Force:     float64(i) * 0.01,
		}
	}

	result := downsample(nil, readings, 10)
	require.Equal(t, 10, len(result))
	for i := 0; i < 10; i++ {
		assert.Equal(t, readings[i], result[i])
	}
}
