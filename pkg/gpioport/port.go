// Package gpioport exposes up to eight periph.io GPIO pins as the pair of
// single-byte direction and data registers the DMX transmitter drives.
package gpioport

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

var ErrUnknownPin = errors.New("gpioport: unknown GPIO pin")

// Port maps bit positions 0-7 to GPIO pins. A bit without a pin accepts
// writes and does nothing.
//
// Like a microcontroller port, the data register latches a level for every
// bit; the level only reaches the pin while the direction bit is set.
type Port struct {
	mu     sync.Mutex
	pins   [8]gpio.PinIO
	levels [8]gpio.Level
	output [8]bool
}

// New returns a Port for pins, indexed by bit position. Nil entries are
// unused bits.
func New(pins [8]gpio.PinIO) *Port {
	return &Port{pins: pins}
}

// Open resolves pin names through the periph registry. host.Init must have
// been called. Empty names are unused bits.
func Open(names [8]string) (*Port, error) {
	var pins [8]gpio.PinIO
	for bit, name := range names {
		if name == "" {
			continue
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%w: %q (bit %d)", ErrUnknownPin, name, bit)
		}
		pins[bit] = p
	}
	return New(pins), nil
}

// Direction returns the direction register: a set bit is an output.
func (p *Port) Direction() *Direction {
	return &Direction{port: p}
}

// Data returns the data register.
func (p *Port) Data() *Data {
	return &Data{port: p}
}

func (p *Port) setOutput(bit uint8, out bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.output[bit] = out
	pin := p.pins[bit]
	if pin == nil {
		return nil
	}
	if out {
		return pin.Out(p.levels[bit])
	}
	return pin.In(gpio.PullNoChange, gpio.NoEdge)
}

func (p *Port) setLevel(bit uint8, l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.levels[bit] = l
	pin := p.pins[bit]
	if pin == nil || !p.output[bit] {
		return nil
	}
	return pin.Out(l)
}

type Direction struct {
	port *Port
}

func (d *Direction) SetBit(bit uint8) error   { return d.port.setOutput(bit, true) }
func (d *Direction) ClearBit(bit uint8) error { return d.port.setOutput(bit, false) }

type Data struct {
	port *Port
}

func (d *Data) SetBit(bit uint8) error   { return d.port.setLevel(bit, gpio.High) }
func (d *Data) ClearBit(bit uint8) error { return d.port.setLevel(bit, gpio.Low) }
