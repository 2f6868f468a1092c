package master

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/device"
)

// ReadingFunc receives each decoded temperature sample collected by a
// Poller.
type ReadingFunc func(port int, celsius float64)

// Poller cycles process data exchanges over every discovered port and
// pumps pending events in between. Each port is polled no faster than
// its device's minimum cycle time.
type Poller struct {
	Master    *Master
	Interval  time.Duration
	OnReading ReadingFunc
}

// NewPoller creates a Poller over a configured master.
func NewPoller(m *Master) *Poller {
	return &Poller{Master: m, Interval: DefaultPollInterval}
}

// Run implements run.Runnable. It returns when ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	due := make(map[int]time.Time)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for port := 0; port < p.Master.NumPorts(); port++ {
				if now.Before(due[port]) {
					continue
				}
				dev := p.Master.GetDevice(port)
				due[port] = now.Add(p.cycleTime(dev))
				p.poll(ctx, port, dev)
			}
			p.Master.ProcessEvents()
		}
	}
}

func (p *Poller) cycleTime(dev iolink.Device) time.Duration {
	if cycle := dev.MinCycleTime(); cycle > p.Interval {
		return cycle
	}
	return p.Interval
}

func (p *Poller) poll(ctx context.Context, port int, dev iolink.Device) {
	if err := p.Master.SendMessage(port, iolink.MsgProcessData, nil); err != nil {
		glog.Warningf("port %d: send: %v", port, err)
		return
	}
	data, err := p.Master.ReceiveMessage(ctx, port, iolink.MsgProcessData, p.cycleTime(dev))
	if err != nil {
		glog.V(1).Infof("port %d: receive: %v", port, err)
		return
	}
	if err = dev.WriteProcessData(data); err != nil {
		glog.Warningf("port %d: bad process data: %v", port, err)
		return
	}
	if p.OnReading == nil {
		return
	}
	if sensor, ok := dev.(*device.TemperatureSensor); ok {
		if r, err := sensor.Reading(); err == nil {
			p.OnReading(port, r.Celsius())
		}
	}
}
