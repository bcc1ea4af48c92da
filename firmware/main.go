//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/softrobo/musclerig/pkg/rig"
)

var (
	adcForce    machine.ADC
	adcPressure machine.ADC

	uartHost = machine.UART0 // USB serial to the logging host
	uartTOF  = machine.UART1 // IR time-of-flight distance sensor
)

func main() {
	// Configure ADC pins for the force and pressure sensors
	PIN_FORCE.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_PRESSURE.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcForce = machine.ADC{Pin: PIN_FORCE}
	adcPressure = machine.ADC{Pin: PIN_PRESSURE}

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	adcForce.Configure(adcConfig)
	adcPressure.Configure(adcConfig)

	// Host link carries the readiness handshake and the data lines
	uartHost.Configure(machine.UARTConfig{
		BaudRate: HOST_BAUD_RATE,
	})

	// Distance sensor streams binary frames continuously
	uartTOF.Configure(machine.UARTConfig{
		BaudRate: TOF_BAUD_RATE,
	})

	cfg := rig.DefaultConfig()
	// machine.ADC.Get returns readings left-aligned to 16 bits regardless
	// of the configured resolution
	cfg.RawMax = ADC_FULL_SCALE

	r := rig.New(cfg, adcForce, adcPressure, uartTOF, uartHost)
	r.Start()

	start := time.Now()
	for {
		r.Tick(time.Since(start).Milliseconds())

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(LOOP_IDLE_DELAY)
	}
}
