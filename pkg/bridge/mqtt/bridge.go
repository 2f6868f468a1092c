package mqtt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/fieldtalks/iolink.go/pkg/iolink/master"
)

// EventRecord is the JSON document published for each event.
type EventRecord struct {
	Port int    `json:"port"`
	Data string `json:"data"` // hex-encoded payload
	At   int64  `json:"at"`   // unix milliseconds
}

// ReadingRecord is the JSON document published for a process data
// sample.
type ReadingRecord struct {
	Port    int     `json:"port"`
	Celsius float64 `json:"celsius"`
	At      int64   `json:"at"`
}

// Bridge publishes master events to a Queue. Register it as the
// master's event callback via Attach.
type Bridge struct {
	Queue *Queue
}

// NewBridge creates a Bridge over a connected Queue.
func NewBridge(q *Queue) *Bridge {
	return &Bridge{Queue: q}
}

// Attach registers the bridge as the master's event subscriber,
// replacing any previous subscriber.
func (b *Bridge) Attach(m *master.Master) {
	m.RegisterEventCallback(b.HandleEvent)
}

// HandleEvent implements master.EventCallback.
func (b *Bridge) HandleEvent(port int, data []byte) {
	rec := EventRecord{
		Port: port,
		Data: hex.EncodeToString(data),
		At:   time.Now().UnixNano() / int64(time.Millisecond),
	}
	payload, err := json.Marshal(&rec)
	if err != nil {
		glog.Errorf("encode event: %v", err)
		return
	}
	if err := b.Queue.Pub(EventTopic(port), payload); err != nil {
		glog.Warningf("publish event: %v", err)
	}
}

// PublishReading publishes a process data sample.
func (b *Bridge) PublishReading(port int, celsius float64) {
	rec := ReadingRecord{
		Port:    port,
		Celsius: celsius,
		At:      time.Now().UnixNano() / int64(time.Millisecond),
	}
	payload, err := json.Marshal(&rec)
	if err != nil {
		glog.Errorf("encode reading: %v", err)
		return
	}
	if err := b.Queue.Pub(ReadingTopic(port), payload); err != nil {
		glog.Warningf("publish reading: %v", err)
	}
}

// EventTopic is the per-port event topic, relative to the prefix.
func EventTopic(port int) string {
	return fmt.Sprintf("port%d/event", port)
}

// ReadingTopic is the per-port process data topic, relative to the
// prefix.
func ReadingTopic(port int) string {
	return fmt.Sprintf("port%d/pd", port)
}
