// Package linkops provides the shell commands operating on an open
// IO-Link master port.
package linkops

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/fieldtalks/iolink.go/pkg/cli/sh"
	"github.com/fieldtalks/iolink.go/pkg/iolink"
	"github.com/fieldtalks/iolink.go/pkg/iolink/device"
	"github.com/fieldtalks/iolink.go/pkg/iolink/iodd"
)

// ReplyTimeout bounds every request/reply exchange issued from the
// shell.
const ReplyTimeout = 250 * time.Millisecond

func parseType(c *ishell.Context, arg string) (iolink.MessageType, bool) {
	switch arg {
	case "pd":
		return iolink.MsgProcessData, true
	case "param":
		return iolink.MsgParameter, true
	case "diag":
		return iolink.MsgDiagnostic, true
	case "event":
		return iolink.MsgEvent, true
	}
	val, err := strconv.ParseUint(arg, 0, 8)
	if err != nil || !iolink.MessageType(val).IsValid() {
		c.Err(fmt.Errorf("bad message type %q", arg))
		return 0, false
	}
	return iolink.MessageType(val), true
}

func parseIndex(c *ishell.Context, args []string) (index uint16, subindex uint8, ok bool) {
	val, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		c.Err(fmt.Errorf("bad index %q", args[0]))
		return
	}
	index = uint16(val)
	if len(args) > 1 {
		if val, err = strconv.ParseUint(args[1], 0, 8); err != nil {
			c.Err(fmt.Errorf("bad subindex %q", args[1]))
			return
		}
		subindex = uint8(val)
	}
	return index, subindex, true
}

func exchange(c *ishell.Context, port int,
	typ iolink.MessageType, payload []byte) ([]byte, bool) {
	m := sh.ShellFrom(c).Master
	if err := m.SendMessage(port, typ, payload); err != nil {
		c.Err(err)
		return nil, false
	}
	reply, err := m.ReceiveMessage(context.TODO(), port, typ, ReplyTimeout)
	if err != nil {
		c.Err(err)
		return nil, false
	}
	return reply, true
}

var (
	// ActivateCmd exposes port activation.
	ActivateCmd = ishell.Cmd{
		Name:    "activate",
		Aliases: []string{"a"},
		Help:    "PORT [MODE(sio|com1|com2|com3)]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			mode := iolink.ModeCOM2
			if len(c.Args) > 1 {
				var err error
				if mode, err = iolink.ParseOperationMode(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			if err := sh.ShellFrom(c).Master.ActivatePort(port, mode); err != nil {
				c.Err(err)
			}
		}),
	}

	// DeactivateCmd exposes port deactivation.
	DeactivateCmd = ishell.Cmd{
		Name: "deactivate",
		Help: "PORT",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			if err := sh.ShellFrom(c).Master.DeactivatePort(port); err != nil {
				c.Err(err)
			}
		}),
	}

	// SendCmd sends a raw message.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "PORT TYPE [HEXPAYLOAD]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("PORT and TYPE required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			typ, ok := parseType(c, c.Args[1])
			if !ok {
				return
			}
			var payload []byte
			if len(c.Args) > 2 {
				var err error
				if payload, err = hex.DecodeString(c.Args[2]); err != nil {
					c.Err(fmt.Errorf("bad payload: %v", err))
					return
				}
			}
			if err := sh.ShellFrom(c).Master.SendMessage(port, typ, payload); err != nil {
				c.Err(err)
			}
		}),
	}

	// RecvCmd receives a raw message.
	RecvCmd = ishell.Cmd{
		Name: "recv",
		Help: "PORT TYPE [TIMEOUT]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("PORT and TYPE required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			typ, ok := parseType(c, c.Args[1])
			if !ok {
				return
			}
			timeout := ReplyTimeout
			if len(c.Args) > 2 {
				var err error
				if timeout, err = time.ParseDuration(c.Args[2]); err != nil {
					c.Err(fmt.Errorf("bad timeout: %v", err))
					return
				}
			}
			payload, err := sh.ShellFrom(c).Master.ReceiveMessage(
				context.TODO(), port, typ, timeout)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s %s\n", typ, hex.EncodeToString(payload))
		}),
	}

	// PDCmd exchanges one process data cycle.
	PDCmd = ishell.Cmd{
		Name: "pd",
		Help: "PORT",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			data, ok := exchange(c, port, iolink.MsgProcessData, nil)
			if !ok {
				return
			}
			if dev := sh.ShellFrom(c).Master.GetDevice(port); dev != nil {
				dev.WriteProcessData(data)
			}
			c.Println(hex.EncodeToString(data))
		}),
	}

	// TempCmd exchanges process data and displays the temperature.
	TempCmd = ishell.Cmd{
		Name:    "temp",
		Aliases: []string{"t"},
		Help:    "PORT",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			data, ok := exchange(c, port, iolink.MsgProcessData, nil)
			if !ok {
				return
			}
			r, err := device.DecodeReading(data)
			if err != nil {
				c.Err(err)
				return
			}
			if dev, ok := sh.ShellFrom(c).Master.GetDevice(port).(*device.TemperatureSensor); ok {
				dev.WriteProcessData(data)
			}
			c.Printf("%.1f C / %.1f F / %.2f K\n",
				r.Celsius(), r.Fahrenheit(), r.Kelvin())
		}),
	}

	// ParamCmd reads a parameter.
	ParamCmd = ishell.Cmd{
		Name: "param",
		Help: "PORT INDEX [SUBINDEX]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("PORT and INDEX required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			index, subindex, ok := parseIndex(c, c.Args[1:])
			if !ok {
				return
			}
			req := []byte{byte(index >> 8), byte(index), subindex}
			value, ok := exchange(c, port, iolink.MsgParameter, req)
			if !ok {
				return
			}
			c.Println(hex.EncodeToString(value))
		}),
	}

	// ParamWriteCmd writes a parameter.
	ParamWriteCmd = ishell.Cmd{
		Name: "param.write",
		Help: "PORT INDEX SUBINDEX HEXVALUE",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 4 {
				c.Err(fmt.Errorf("PORT INDEX SUBINDEX HEXVALUE required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			index, subindex, ok := parseIndex(c, c.Args[1:3])
			if !ok {
				return
			}
			value, err := hex.DecodeString(c.Args[3])
			if err != nil {
				c.Err(fmt.Errorf("bad value: %v", err))
				return
			}
			req := append([]byte{byte(index >> 8), byte(index), subindex}, value...)
			if _, ok = exchange(c, port, iolink.MsgParameter, req); !ok {
				return
			}
			c.Println("OK")
		}),
	}

	// DiagCmd reads diagnostic status.
	DiagCmd = ishell.Cmd{
		Name: "diag",
		Help: "PORT",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			port, ok := sh.ParsePort(c, c.Args[0])
			if !ok {
				return
			}
			status, ok := exchange(c, port, iolink.MsgDiagnostic, nil)
			if !ok {
				return
			}
			c.Println(hex.EncodeToString(status))
		}),
	}

	// EventsCmd drains pending event messages once.
	EventsCmd = ishell.Cmd{
		Name: "events",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			m := sh.ShellFrom(c).Master
			count := 0
			m.RegisterEventCallback(func(port int, data []byte) {
				count++
				c.Printf("port %d: %s\n", port, hex.EncodeToString(data))
			})
			m.ProcessEvents()
			if count == 0 {
				c.Println("no events")
			}
		}),
	}

	// IoddCmd inspects an IODD file.
	IoddCmd = ishell.Cmd{
		Name: "iodd",
		Help: "FILE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			desc, err := iodd.Load(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s vendor 0x%08x product 0x%08x pd-in %dB pd-out %dB\n",
				desc.ProductName, desc.VendorID, desc.ProductID,
				desc.ProcessDataIn, desc.ProcessDataOut)
		},
	}
)

func init() {
	sh.AddCmds(
		&ActivateCmd,
		&DeactivateCmd,
		&SendCmd,
		&RecvCmd,
		&PDCmd,
		&TempCmd,
		&ParamCmd,
		&ParamWriteCmd,
		&DiagCmd,
		&EventsCmd,
		&IoddCmd,
	)
}
