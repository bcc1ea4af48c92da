// Command bridge reads rig samples from the serial port (or the mocked
// device) and publishes each one as JSON to an MQTT topic, so other tools
// on the network can consume the live stream.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/softrobo/musclerig/pkg/config"
	"github.com/softrobo/musclerig/pkg/device"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		brokerFlag = flag.String("broker", "", "MQTT broker URL override (e.g., tcp://localhost:1883)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *brokerFlag != "" {
		cfg.MQTT.Broker = *brokerFlag
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("Failed to connect to MQTT broker %s: %v", cfg.MQTT.Broker, token.Error())
	}
	log.Printf("bridge: connected to MQTT broker at %s", cfg.MQTT.Broker)
	defer client.Disconnect(250)

	var dev device.Device
	if *mockFlag {
		dev = device.NewMock(cfg)
		log.Println("bridge: using mocked device")
	} else {
		dev = device.New(cfg.Serial.Port, cfg.Serial.BaudRate, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		log.Fatalf("Failed to connect to device: %v", err)
	}
	defer dev.Close()
	log.Printf("bridge: publishing readings to %s", cfg.MQTT.Topic)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	published := 0
	for {
		select {
		case reading, ok := <-dev.Readings():
			if !ok {
				log.Println("bridge: reading stream closed")
				return
			}

			payload, err := json.Marshal(reading)
			if err != nil {
				log.Printf("bridge: JSON marshal error: %v", err)
				continue
			}

			token := client.Publish(cfg.MQTT.Topic, 0, true, payload)
			token.Wait()
			if token.Error() != nil {
				log.Printf("bridge: publish error: %v", token.Error())
				continue
			}

			published++
			if published%100 == 0 {
				log.Printf("bridge: published %d readings, latest force %.2f N, distance %.2f mm, pressure %.3f MPa",
					published, reading.Force, reading.Distance, reading.Pressure)
			}
		case <-sigCh:
			log.Printf("bridge: shutting down after %d readings", published)
			return
		}
	}
}
