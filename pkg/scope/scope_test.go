package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softrobo/musclerig/pkg/device"
)

func TestNew(t *testing.T) {
	s := New()

	assert.NotNil(t, s)
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestAppend_Latest(t *testing.T) {
	s := New()
	now := time.Now()

	r1 := device.Reading{Timestamp: now, Force: 10.0, Distance: 180.0, Pressure: 0.3}
	r2 := device.Reading{Timestamp: now.Add(100 * time.Millisecond), Force: 11.0, Distance: 179.5, Pressure: 0.31}

	s.Append(r1)
	s.Append(r2)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, r2, latest)
}

func TestAppend_WindowTrim(t *testing.T) {
	s := New()
	now := time.Now()

	old := device.Reading{Timestamp: now, Force: 1.0}
	s.Append(old)

	// A reading far past the window evicts everything older.
	fresh := device.Reading{Timestamp: now.Add(DefaultWindow + time.Second), Force: 2.0}
	s.Append(fresh)

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.readings, 1)
	assert.Equal(t, fresh, s.readings[0])
}

func TestClear(t *testing.T) {
	s := New()
	s.Append(device.Reading{Timestamp: time.Now(), Force: 5.0})

	s.Clear()

	_, ok := s.Latest()
	assert.False(t, ok)
}
