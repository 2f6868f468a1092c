package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/fieldtalks/iolink.go/pkg/bridge/mqtt"
	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/device"
	"github.com/fieldtalks/iolink.go/pkg/iolink/master"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport/serial"
	"github.com/fieldtalks/iolink.go/pkg/run"
	"github.com/fieldtalks/iolink.go/pkg/sim/thermo"
)

var (
	serialName = ""
	baudRate   = iolink.ModeCOM2.BaudRate()
	useSim     = false
	mqttURL    = ""
	interval   = master.DefaultPollInterval
	deviceID   = uint(1)
	vendorID   = uint(0x12345678)
	productID  = uint(0x87654321)
)

func init() {
	flag.StringVar(&serialName, "serial", serialName, "Serial port of the IO-Link transceiver.")
	flag.IntVar(&baudRate, "baud", baudRate, "Baud rate of the serial port.")
	flag.BoolVar(&useSim, "sim", useSim, "Use a simulated temperature device.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL, empty disables publishing.")
	flag.DurationVar(&interval, "interval", interval, "Process data poll interval.")
	flag.UintVar(&deviceID, "device-id", deviceID, "Device ID expected on the port.")
	flag.UintVar(&vendorID, "vendor-id", vendorID, "Vendor ID expected on the port.")
	flag.UintVar(&productID, "product-id", productID, "Product ID expected on the port.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	runner := run.NewRunner().HandleSignals()

	var conn transport.Transport
	if useSim {
		end, peer := transport.Pipe()
		runner.Go(run.NamedRun("sim", thermo.New(peer)))
		conn = end
	} else if serialName != "" {
		conn = serial.New(serialName)
	} else {
		glog.Exit("either -serial or -sim is required")
	}

	m := master.New(conn)
	m.Scanner = &master.StaticScanner{
		Identities: []iolink.Identity{{
			DeviceID:  uint8(deviceID),
			VendorID:  uint32(vendorID),
			ProductID: uint32(productID),
		}},
		NewDevice: func(id iolink.Identity) iolink.Device {
			return device.NewTemperatureSensor(id)
		},
	}
	if err := m.Configure(baudRate); err != nil {
		glog.Exitf("configure: %v", err)
	}
	defer m.Close()
	if err := m.ScanForDevices(context.Background()); err != nil {
		glog.Exitf("scan: %v", err)
	}
	glog.Infof("%d device(s) found", m.NumPorts())
	for port := 0; port < m.NumPorts(); port++ {
		if err := m.ActivatePort(port, iolink.ModeCOM2); err != nil {
			glog.Warningf("activate port %d: %v", port, err)
		}
	}

	p := master.NewPoller(m)
	p.Interval = interval
	if mqttURL != "" {
		q, err := mqtt.NewQueueFromURL(mqttURL)
		if err != nil {
			glog.Exitf("mqtt: %v", err)
		}
		if err = q.Connect(); err != nil {
			glog.Exitf("mqtt connect: %v", err)
		}
		defer q.Close()
		b := mqtt.NewBridge(q)
		b.Attach(m)
		p.OnReading = b.PublishReading
	} else {
		p.OnReading = func(port int, celsius float64) {
			glog.V(1).Infof("port %d: %.1f C", port, celsius)
		}
	}
	runner.Go(run.NamedRun("poller", p))

	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
