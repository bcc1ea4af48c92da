// Command web subscribes to the bridge's MQTT topic and serves a small live
// dashboard: a JSON endpoint with the latest reading, a WebSocket stream,
// and static files.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/softrobo/musclerig/pkg/config"
	"github.com/softrobo/musclerig/pkg/device"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dashboard, any origin is fine
	},
}

// hub fans readings out to connected WebSocket clients and remembers the
// latest one for the JSON endpoint.
type hub struct {
	mu      sync.RWMutex
	last    device.Reading
	haveOne bool
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *hub) publish(r device.Reading) {
	h.mu.Lock()
	h.last = r
	h.haveOne = true
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.WriteJSON(r); err != nil {
			h.remove(c)
			c.Close()
		}
	}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *hub) latest() (device.Reading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.haveOne
}

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		listenFlag = flag.String("listen", "", "HTTP listen address override (e.g., :8080)")
		brokerFlag = flag.String("broker", "", "MQTT broker URL override (e.g., tcp://localhost:1883)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *listenFlag != "" {
		cfg.Web.Listen = *listenFlag
	}
	if *brokerFlag != "" {
		cfg.MQTT.Broker = *brokerFlag
	}

	h := newHub()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID + "-web")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("Failed to connect to MQTT broker %s: %v", cfg.MQTT.Broker, token.Error())
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTT.Broker)

	token := client.Subscribe(cfg.MQTT.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r device.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: payload unmarshal error: %v", err)
			return
		}
		h.publish(r)
	})
	token.Wait()
	if token.Error() != nil {
		log.Fatalf("Failed to subscribe to %s: %v", cfg.MQTT.Topic, token.Error())
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.MQTT.Topic)

	http.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		reading, ok := h.latest()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(reading); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		h.add(conn)

		// Reader loop only detects close; the hub does the writing.
		go func() {
			defer func() {
				h.remove(conn)
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	fs := http.FileServer(http.Dir(cfg.Web.StaticDir))
	http.Handle("/", fs)

	log.Printf("web: listening on %s", cfg.Web.Listen)
	if err := http.ListenAndServe(cfg.Web.Listen, nil); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
