package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/fieldtalks/iolink.go/pkg/bridge/mqtt"
)

//go-build: CGO_ENABLED=0

var (
	mqttURL = "mqtt://localhost:1883/iolink/"
)

func init() {
	if val := os.Getenv("IOLINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/event"):
			var rec mqtt.EventRecord
			if err := json.Unmarshal(payload, &rec); err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			log.Printf("%s: port %d event %s", topic, rec.Port, rec.Data)
		case strings.HasSuffix(topic, "/pd"):
			var rec mqtt.ReadingRecord
			if err := json.Unmarshal(payload, &rec); err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			log.Printf("%s: port %d %.1f C", topic, rec.Port, rec.Celsius)
		default:
			log.Printf("%s: %s", topic, string(payload))
		}
	}))
	<-(chan struct{})(nil)
}
