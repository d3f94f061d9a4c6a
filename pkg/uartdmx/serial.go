// Package uartdmx transmits DMX-512 frames through a UART.
//
// A frame starts with a break (line held low) and a mark-after-break (line
// held high) that are driven directly on the transmit line. The UART then
// takes over the line for the start code and the channel bytes.
package uartdmx

import "fmt"

// BaudRate is the DMX-512 line rate in bits per second.
const BaudRate = 250000

type Parity uint8

const (
	NoParity Parity = iota
	EvenParity
	OddParity
)

// Format is a UART character frame.
type Format struct {
	DataBits uint8
	Parity   Parity
	StopBits uint8
}

// Format8N2 is the DMX-512 character frame: 8 data bits, no parity, 2 stop bits.
var Format8N2 = Format{DataBits: 8, Parity: NoParity, StopBits: 2}

func (f Format) String() string {
	p := "N"
	switch f.Parity {
	case EvenParity:
		p = "E"
	case OddParity:
		p = "O"
	}
	return fmt.Sprintf("%d%s%d", f.DataBits, p, f.StopBits)
}

// Serial is a UART that can be reconfigured at any time.
type Serial interface {
	// Configure (re)starts UART framing with the given rate and format.
	Configure(baud int, f Format) error

	WriteByte(c byte) error
	Write(p []byte) (int, error)

	// Flush blocks until every written byte has physically left the device.
	Flush() error

	// Deactivate ends UART framing so the line can be driven directly again.
	Deactivate() error
}

// Register is a single-byte hardware register that is only ever written one
// bit at a time. Bit positions are 0-7.
type Register interface {
	SetBit(bit uint8) error
	ClearBit(bit uint8) error
}

// Reg8 is an in-memory Register.
type Reg8 uint8

func (r *Reg8) SetBit(bit uint8) error {
	*r |= 1 << bit
	return nil
}

func (r *Reg8) ClearBit(bit uint8) error {
	*r &^= 1 << bit
	return nil
}

// Bit reports whether bit is set.
func (r Reg8) Bit(bit uint8) bool {
	return r&(1<<bit) != 0
}

// NopRegister discards all writes. Hosts whose lines are always outputs use
// it as the direction register.
type NopRegister struct{}

func (NopRegister) SetBit(uint8) error   { return nil }
func (NopRegister) ClearBit(uint8) error { return nil }
