// Command logger runs an interactive measurement series against the rig:
// offset calibration, then one capture session per pneumatic pressure
// setpoint, exported as CSV at the end.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/softrobo/musclerig/pkg/config"
	"github.com/softrobo/musclerig/pkg/device"
	"github.com/softrobo/musclerig/pkg/session"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		outFlag    = flag.String("o", "", "Output CSV path (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *outFlag != "" {
		cfg.Measurement.OutputFile = *outFlag
	}

	var dev device.Device
	if *mockFlag {
		dev = device.NewMock(cfg)
		fmt.Println("Using mocked device")
	} else {
		dev = device.New(cfg.Serial.Port, cfg.Serial.BaudRate, device.DefaultBufferSize)
		fmt.Printf("Connecting to %s...\n", cfg.Serial.Port)
	}

	if err := dev.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer dev.Close()

	fmt.Println("Waiting for rig handshake and first readings...")

	// Stdin lines are read by one goroutine so prompts and live displays can
	// select on them alongside the reading stream.
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	// Ctrl+C ends the series and still writes the CSV.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	recorder := session.NewRecorder()
	defer saveRecorder(recorder, cfg)

	cal, ok := calibrate(dev, cfg, lines, interrupt)
	if !ok {
		return
	}

	for {
		target, ok := promptTarget(cfg, lines, interrupt)
		if !ok {
			return
		}

		if !waitAtPressure(dev, target, lines, interrupt) {
			return
		}

		fmt.Println(">>> Capturing... press [Enter] to end this session.")
		if !capture(dev, recorder, cal, target, lines, interrupt) {
			return
		}
		fmt.Println("\n--- Session complete ---")
	}
}

// calibrate prompts for the true initial length and averages distance
// readings into an offset.
func calibrate(dev device.Device, cfg *config.Config, lines <-chan string, interrupt <-chan os.Signal) (session.Calibration, bool) {
	fmt.Println("\n--- Step 1: length calibration ---")

	var length float64
	for length <= 0 {
		fmt.Print("Enter the measured initial specimen length (mm), then press [Enter]: ")
		select {
		case line, ok := <-lines:
			if !ok {
				return session.Calibration{}, false
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
			if err != nil || v <= 0 {
				fmt.Println("Invalid input.")
				continue
			}
			length = v
		case <-interrupt:
			return session.Calibration{}, false
		}
	}

	fmt.Printf("Initial length set to %.2f mm.\n", length)
	fmt.Print("Place the specimen at its initial position, then press [Enter] to sample the sensor... ")
	select {
	case _, ok := <-lines:
		if !ok {
			return session.Calibration{}, false
		}
	case <-interrupt:
		return session.Calibration{}, false
	}

	drain(dev.Readings())

	fmt.Println("Sampling sensor readings...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cal, err := session.Calibrate(ctx, dev.Readings(), cfg.Measurement.CalibrationSamples, length)
	if err != nil {
		log.Printf("Calibration failed: %v", err)
		return session.Calibration{}, false
	}

	fmt.Printf("Calibration complete. Offset: %.2f mm\n", cal.Offset)
	return cal, true
}

// promptTarget asks for the next pressure setpoint; 'q' ends the series.
func promptTarget(cfg *config.Config, lines <-chan string, interrupt <-chan os.Signal) (float64, bool) {
	suggestions := make([]string, len(cfg.Measurement.TargetPressures))
	for i, p := range cfg.Measurement.TargetPressures {
		suggestions[i] = fmt.Sprintf("%g", p)
	}

	for {
		fmt.Printf("\nEnter the target pressure for this session (suggested: %s),\nor 'q' to finish and save: ", strings.Join(suggestions, ", "))
		select {
		case line, ok := <-lines:
			if !ok {
				return 0, false
			}
			line = strings.TrimSpace(line)
			if strings.EqualFold(line, "q") {
				return 0, false
			}
			target, err := strconv.ParseFloat(line, 64)
			if err != nil {
				fmt.Println("Invalid input, enter a number.")
				continue
			}
			return target, true
		case <-interrupt:
			return 0, false
		}
	}
}

// waitAtPressure shows the live pressure while the operator adjusts the
// regulator, until Enter confirms the setpoint is reached.
func waitAtPressure(dev device.Device, target float64, lines <-chan string, interrupt <-chan os.Signal) bool {
	fmt.Printf("Adjust the line pressure to %g MPa, then press [Enter] to start capturing.\n", target)

	for {
		select {
		case r, ok := <-dev.Readings():
			if !ok {
				return false
			}
			fmt.Printf("\rCurrent pressure: %.3f MPa   ", r.Pressure)
		case _, ok := <-lines:
			fmt.Println()
			return ok
		case <-interrupt:
			fmt.Println()
			return false
		}
	}
}

// capture records (force, contraction) points until Enter is pressed.
func capture(dev device.Device, recorder *session.Recorder, cal session.Calibration, target float64, lines <-chan string, interrupt <-chan os.Signal) bool {
	drain(dev.Readings())

	for {
		select {
		case r, ok := <-dev.Readings():
			if !ok {
				return false
			}
			contraction := cal.Contraction(r.Distance)
			fmt.Printf("\rforce %6.2f N | contraction %6.2f %% | pressure %5.3f MPa   ", r.Force, contraction, r.Pressure)
			recorder.Record(target, session.Point{Force: r.Force, Contraction: contraction})
		case _, ok := <-lines:
			return ok
		case <-interrupt:
			return false
		}
	}
}

// saveRecorder writes the recorded sessions to the configured CSV path.
func saveRecorder(recorder *session.Recorder, cfg *config.Config) {
	if recorder.Len() == 0 {
		fmt.Println("\nNo sessions recorded, nothing to save.")
		return
	}

	path := cfg.Measurement.OutputFile
	if path == "" {
		path = fmt.Sprintf("sessions_%d.csv", time.Now().Unix())
	}

	f, err := os.Create(path)
	if err != nil {
		log.Printf("Failed to create %s: %v", path, err)
		return
	}
	defer f.Close()

	if err := recorder.WriteCSV(f); err != nil {
		log.Printf("Failed to write %s: %v", path, err)
		return
	}
	fmt.Printf("\nSaved %d session(s) to %s\n", recorder.Len(), path)
}

// drain discards any buffered readings so the next phase starts fresh.
func drain(readings <-chan device.Reading) {
	for {
		select {
		case <-readings:
		default:
			return
		}
	}
}
