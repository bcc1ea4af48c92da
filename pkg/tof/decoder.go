// Package tof decodes the serial frame protocol of the infrared
// time-of-flight distance sensor.
//
// The sensor emits a continuous byte stream of fixed frames:
//
//	0xAC 0xCA | b0 b1 b2 b3 b4 b5 0xDC 0xCD
//
// Two sync bytes followed by an 8-byte payload. payload[1..4] is the
// distance as a big-endian uint32 in hundredths of a unit, payload[5] is a
// busy flag that reads zero while the sensor has no valid measurement, and
// payload[6..7] is a fixed trailer. A frame with a zero busy flag or a wrong
// trailer carries no usable distance and is dropped without notice.
package tof

import "encoding/binary"

const (
	sync1    = 0xAC
	sync2    = 0xCA
	trailer1 = 0xDC
	trailer2 = 0xCD

	payloadLen = 8
)

type state uint8

const (
	seekSync1 state = iota
	seekSync2
	readPayload
)

// Decoder is a byte-oriented state machine. Feed it one byte at a time; it
// never blocks and never buffers more than one payload.
type Decoder struct {
	state   state
	payload [payloadLen]byte
	idx     int
}

// Feed consumes a single byte from the sensor stream. When the byte
// completes a valid frame it returns the decoded distance and true.
//
// A byte is examined in exactly one state: sync bytes that happen to appear
// inside a payload do not restart the sync search until the payload window
// closes.
func (d *Decoder) Feed(b byte) (float64, bool) {
	switch d.state {
	case seekSync1:
		if b == sync1 {
			d.state = seekSync2
		}
	case seekSync2:
		if b == sync2 {
			d.state = readPayload
			d.idx = 0
		} else {
			d.state = seekSync1
			d.idx = 0
		}
	case readPayload:
		d.payload[d.idx] = b
		d.idx++
		if d.idx < payloadLen {
			break
		}
		d.state = seekSync1
		if d.payload[5] == 0x00 || d.payload[6] != trailer1 || d.payload[7] != trailer2 {
			break
		}
		raw := binary.BigEndian.Uint32(d.payload[1:5])
		return float64(raw) / 100.0, true
	}
	return 0, false
}

// Reset returns the decoder to sync search, dropping any partial payload.
func (d *Decoder) Reset() {
	d.state = seekSync1
	d.idx = 0
}

// AppendFrame appends one encoded frame carrying the given distance (in
// hundredths of a unit) to dst and returns the extended slice. Used by the
// mock device and tests; the real sensor is the only producer in the field.
func AppendFrame(dst []byte, centiunits uint32) []byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], centiunits)
	return append(dst,
		sync1, sync2,
		0x00, raw[0], raw[1], raw[2], raw[3],
		0x01, // busy flag: measurement valid
		trailer1, trailer2,
	)
}
