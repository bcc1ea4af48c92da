//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300   // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12     // ADC resolution in bits
	ADC_FULL_SCALE   = 0xFFFF // machine.ADC.Get full-scale value (16-bit left-aligned)

	// Sensor pins
	PIN_FORCE    = machine.A0 // force sensor amplifier output
	PIN_PRESSURE = machine.A1 // pneumatic pressure transducer output

	// Serial configuration
	// Host line budget: "force,distance,pressure\n" is ~22 bytes worst case,
	// 10 lines/sec = 220 bytes/sec. 9600 baud 8N1 moves 960 bytes/sec,
	// >4x headroom, and matches the deployed logger scripts.
	HOST_BAUD_RATE = 9600
	// The distance sensor streams 10-byte frames at its own fixed rate.
	TOF_BAUD_RATE = 115200

	// Main loop idle delay between iterations
	LOOP_IDLE_DELAY = 100 * time.Microsecond
)
