package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Reading
		wantErr bool
	}{
		{
			name: "valid line",
			line: "82.15,178.40,0.305",
			want: Reading{Force: 82.15, Distance: 178.40, Pressure: 0.305},
		},
		{
			name: "distance sentinel before first frame",
			line: "12.00,-1.00,0.100",
			want: Reading{Force: 12.00, Distance: -1.00, Pressure: 0.100},
		},
		{
			name: "zero readings",
			line: "0.00,0.00,0.000",
			want: Reading{},
		},
		{
			name:    "too few fields",
			line:    "82.15,178.40",
			wantErr: true,
		},
		{
			name:    "too many fields",
			line:    "82.15,178.40,0.305,1",
			wantErr: true,
		},
		{
			name:    "non-numeric force",
			line:    "abc,178.40,0.305",
			wantErr: true,
		},
		{
			name:    "non-numeric distance",
			line:    "82.15,x,0.305",
			wantErr: true,
		},
		{
			name:    "non-numeric pressure",
			line:    "82.15,178.40,",
			wantErr: true,
		},
		{
			name:    "handshake line is not a data line",
			line:    "Arduino is Ready",
			wantErr: true,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Force, got.Force)
			assert.Equal(t, tt.want.Distance, got.Distance)
			assert.Equal(t, tt.want.Pressure, got.Pressure)
			assert.False(t, got.Timestamp.IsZero())
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	d := New("/dev/ttyACM0", 0, 0)

	assert.Equal(t, DefaultBaudRate, d.baudRate)
	assert.Equal(t, DefaultBufferSize, d.bufSize)
	assert.False(t, d.IsConnected())
}
