// Package serialport runs the DMX transmitter on any serial port supported by
// go.bug.st/serial, including platforms without the Linux tty backend.
package serialport

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/rewbycraft/go-dmxtx/pkg/uartdmx"
)

var ErrNotOpen = errors.New("serialport: port is not open")

// Port is a uartdmx.Serial on a go.bug.st/serial port.
//
// A Port made by Open stays open between frames so Lines can send breaks and
// drive RTS on it. A Port made by OpenOnDemand only holds the device while a
// frame's data is being sent: Configure opens it and Deactivate closes it
// again, leaving the line to whatever drives the break.
type Port struct {
	name    string
	open    func(name string, mode *serial.Mode) (serial.Port, error)
	release bool
	port    serial.Port

	// BreakTime is how long a cleared transmit bit holds the line low.
	BreakTime time.Duration
}

// Open opens the named port in DMX framing and keeps it open until Close.
func Open(name string) (*Port, error) {
	p, err := serial.Open(name, mode(uartdmx.BaudRate, uartdmx.Format8N2))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return New(p), nil
}

// OpenOnDemand returns a Port for the named device that is opened by each
// Configure and closed by each Deactivate.
func OpenOnDemand(name string) *Port {
	return &Port{
		name:      name,
		open:      serial.Open,
		release:   true,
		BreakTime: uartdmx.BreakTime,
	}
}

// New wraps an open port.
func New(p serial.Port) *Port {
	return &Port{port: p, BreakTime: uartdmx.BreakTime}
}

func mode(baud int, f uartdmx.Format) *serial.Mode {
	m := &serial.Mode{
		BaudRate: baud,
		DataBits: int(f.DataBits),
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch f.Parity {
	case uartdmx.EvenParity:
		m.Parity = serial.EvenParity
	case uartdmx.OddParity:
		m.Parity = serial.OddParity
	}
	if f.StopBits == 2 {
		m.StopBits = serial.TwoStopBits
	}
	return m
}

// Configure opens the device if it is closed, otherwise it changes the mode of
// the open port.
func (p *Port) Configure(baud int, f uartdmx.Format) error {
	if p.port != nil {
		return p.port.SetMode(mode(baud, f))
	}
	if p.open == nil {
		return ErrNotOpen
	}
	port, err := p.open(p.name, mode(baud, f))
	if err != nil {
		return fmt.Errorf("open %s: %w", p.name, err)
	}
	p.port = port
	return nil
}

func (p *Port) WriteByte(c byte) error {
	_, err := p.Write([]byte{c})
	return err
}

func (p *Port) Write(b []byte) (int, error) {
	if p.port == nil {
		return 0, ErrNotOpen
	}
	return p.port.Write(b)
}

func (p *Port) Flush() error {
	if p.port == nil {
		return ErrNotOpen
	}
	return p.port.Drain()
}

// Deactivate closes an on-demand port. Ports made by Open or New stay open
// so break and RTS remain usable between frames.
func (p *Port) Deactivate() error {
	if !p.release {
		return nil
	}
	return p.Close()
}

// Close closes the port. Closing a closed port does nothing.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// Lines returns a data register for the port's output lines.
//
// Clearing txBit sends a break of BreakTime. go.bug.st/serial can only send
// timed breaks, so the line is already back at mark when ClearBit returns and
// the transmitter's own break wait lengthens the mark-after-break instead.
// Setting txBit does nothing. enableBit drives RTS.
func (p *Port) Lines(txBit, enableBit uint8) uartdmx.Register {
	return &lines{port: p, txBit: txBit, enableBit: enableBit}
}

type lines struct {
	port      *Port
	txBit     uint8
	enableBit uint8
}

func (l *lines) SetBit(bit uint8) error {
	switch bit {
	case l.txBit:
		return nil
	case l.enableBit:
		return l.rts(true)
	}
	return nil
}

func (l *lines) ClearBit(bit uint8) error {
	switch bit {
	case l.txBit:
		if l.port.port == nil {
			return ErrNotOpen
		}
		return l.port.port.Break(l.port.BreakTime)
	case l.enableBit:
		return l.rts(false)
	}
	return nil
}

func (l *lines) rts(on bool) error {
	if l.port.port == nil {
		return ErrNotOpen
	}
	return l.port.port.SetRTS(on)
}
