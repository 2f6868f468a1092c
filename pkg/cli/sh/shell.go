// Package sh provides the ishell backed interactive shell of the
// IO-Link master CLI.
package sh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/device"
	"github.com/fieldtalks/iolink.go/pkg/iolink/master"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport"
	"github.com/fieldtalks/iolink.go/pkg/iolink/transport/serial"
	"github.com/fieldtalks/iolink.go/pkg/sim/thermo"
)

// Shell provides the interactive session holding one open master.
type Shell struct {
	Interactive bool

	Shell  *ishell.Shell
	Master *master.Master

	cancelSim func()
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&ScanCmd,
		&DevicesCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps a command func that requires an open master.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Master == nil {
			c.Err(fmt.Errorf("no open port, use open first"))
			return
		}
		fn(c)
	}
}

// Open configures a master over the named serial port.
func (s *Shell) Open(name string, baud int) error {
	s.Close()
	m := master.New(serial.New(name))
	if err := m.Configure(baud); err != nil {
		return err
	}
	s.Master = m
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	return nil
}

// OpenSim configures a master against a simulated temperature device.
func (s *Shell) OpenSim() error {
	s.Close()
	end, peer := transport.Pipe()
	dev := thermo.New(peer)
	ctx, cancel := context.WithCancel(context.Background())
	go dev.Run(ctx)

	m := master.New(end)
	m.Scanner = &master.StaticScanner{
		Identities: []iolink.Identity{{DeviceID: 1, VendorID: 0x12345678, ProductID: 0x87654321}},
		NewDevice: func(id iolink.Identity) iolink.Device {
			return device.NewTemperatureSensor(id)
		},
	}
	if err := m.Configure(38400); err != nil {
		cancel()
		return err
	}
	s.Master = m
	s.cancelSim = cancel
	s.Shell.SetPrompt("sim > ")
	return nil
}

// Close closes the current master.
func (s *Shell) Close() {
	if s.Master != nil {
		s.Master.Close()
		s.Master = nil
	}
	if s.cancelSim != nil {
		s.cancelSim()
		s.cancelSim = nil
	}
	s.Shell.SetPrompt(closedPrompt)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParsePort parses a port number argument, reporting bad input on
// the shell context.
func ParsePort(c *ishell.Context, arg string) (int, bool) {
	port, err := strconv.Atoi(arg)
	if err != nil {
		c.Err(fmt.Errorf("bad port %q", arg))
		return 0, false
	}
	return port, true
}

var (
	// OpenCmd opens a serial port or the simulated device.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "PORT [BAUD] | -sim",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("port name or -sim expected"))
				return
			}
			if c.Args[0] == "-sim" {
				if err := s.OpenSim(); err != nil {
					c.Err(err)
				}
				return
			}
			baud := iolink.ModeCOM2.BaudRate()
			if len(c.Args) > 1 {
				var err error
				if baud, err = strconv.Atoi(c.Args[1]); err != nil {
					c.Err(fmt.Errorf("bad baud rate %q", c.Args[1]))
					return
				}
			}
			if err := s.Open(c.Args[0], baud); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current port.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// ScanCmd scans for devices.
	ScanCmd = ishell.Cmd{
		Name:    "scan",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			if err := s.Master.ScanForDevices(context.TODO()); err != nil {
				c.Err(err)
				return
			}
			c.Printf("%d device(s) found\n", s.Master.NumPorts())
		}),
	}

	// DevicesCmd lists discovered devices.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			n := s.Master.NumPorts()
			if n == 0 {
				c.Println("No devices found")
				return
			}
			for port := 0; port < n; port++ {
				dev := s.Master.GetDevice(port)
				c.Printf("port %d: %s min-cycle %v\n",
					port, dev.Identity().Name(), dev.MinCycleTime())
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New()
	if name := os.Getenv("IOLINK_SERIAL"); name != "" && flag.NArg() == 0 {
		if err := s.Open(name, iolink.ModeCOM2.BaudRate()); err != nil {
			log.Fatalf("open %q failed: %v", name, err)
		}
	}
	s.Run(flag.Args()...)
}
