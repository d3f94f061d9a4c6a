package uartdmx

import (
	"fmt"
	"time"
)

const (
	// MaxChannels is the number of channel slots in a DMX-512 frame.
	MaxChannels = 512

	// MaxLength is the largest channel count Send and Null transmit. Longer
	// requests, including a full MaxChannels frame, are cut to MaxLength.
	MaxLength = MaxChannels - 1

	// StartCode is the first byte of every frame.
	StartCode = 0x00

	// BreakTime and MarkAfterBreakTime sit just above the DMX-512 minimums
	// of 88µs and 8µs.
	BreakTime          = 89 * time.Microsecond
	MarkAfterBreakTime = 9 * time.Microsecond
)

// Config binds a Transmitter to its hardware.
//
// Serial, Direction and Data are borrowed: the caller owns them and must keep
// them valid for as long as the Transmitter is used. Nothing here is
// validated.
type Config struct {
	// EnableTransmit drives the driver enable line high while a frame is sent.
	EnableTransmit bool

	// EnableBit and TransmitBit are bit positions in Direction and Data.
	EnableBit   uint8
	TransmitBit uint8

	Serial    Serial
	Direction Register
	Data      Register

	// Wait blocks for the given duration. It defaults to BusyWait.
	Wait func(time.Duration)
}

// DefaultConfig uses bit 1 for driver enable and bit 3 for transmit data on
// the same port, with driver enable turned on. The hardware handles still
// have to be filled in.
var DefaultConfig = Config{
	EnableTransmit: true,
	EnableBit:      1,
	TransmitBit:    3,
	Wait:           BusyWait,
}

// Transmitter sends DMX-512 frames.
//
// Send and Null block the caller for the whole frame, about 100µs of
// preamble plus 44µs per channel. A Transmitter must not be used from more
// than one goroutine at a time; no locking is done.
//
// The preamble delays are busy waits and can be stretched if the goroutine
// is preempted or the host services an interrupt during the break or
// mark-after-break, which may violate DMX timing at the receiver.
type Transmitter struct {
	cfg Config
}

// New returns a Transmitter for cfg. No I/O is performed.
func New(cfg Config) *Transmitter {
	if cfg.Wait == nil {
		cfg.Wait = BusyWait
	}
	return &Transmitter{cfg: cfg}
}

// Config returns the configuration the Transmitter was built with.
func (t *Transmitter) Config() Config {
	return t.cfg
}

// Send transmits one frame: the start code followed by the first length
// values of channels. length is clamped to [0, MaxLength]. channels must hold
// at least the clamped length.
func (t *Transmitter) Send(channels []byte, length int) error {
	n := ClampLength(length)

	if err := t.startFrame(); err != nil {
		return err
	}

	if _, err := t.cfg.Serial.Write(channels[:n]); err != nil {
		return fmt.Errorf("write channels: %w", err)
	}

	if err := t.cfg.Serial.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return t.endFrame()
}

// Null transmits a frame with length channels all set to zero, clamped like
// Send.
func (t *Transmitter) Null(length int) error {
	n := ClampLength(length)
	return t.Send(make([]byte, n), n)
}

// ClampLength returns the number of channels Send transmits for length.
func ClampLength(length int) int {
	if length > MaxLength {
		return MaxLength
	}
	if length < 0 {
		return 0
	}
	return length
}

// startFrame drives break and mark-after-break on the transmit line, then
// hands the line to the UART and sends the start code.
func (t *Transmitter) startFrame() error {
	c := &t.cfg

	if err := c.Direction.SetBit(c.TransmitBit); err != nil {
		return fmt.Errorf("transmit pin direction: %w", err)
	}

	if c.EnableTransmit {
		if err := c.Direction.SetBit(c.EnableBit); err != nil {
			return fmt.Errorf("enable pin direction: %w", err)
		}
		if err := c.Data.SetBit(c.EnableBit); err != nil {
			return fmt.Errorf("set enable: %w", err)
		}
	}

	if err := c.Data.ClearBit(c.TransmitBit); err != nil {
		return fmt.Errorf("start break: %w", err)
	}
	c.Wait(BreakTime)

	if err := c.Data.SetBit(c.TransmitBit); err != nil {
		return fmt.Errorf("end break: %w", err)
	}
	c.Wait(MarkAfterBreakTime)

	if err := c.Serial.Configure(BaudRate, Format8N2); err != nil {
		return fmt.Errorf("configure serial: %w", err)
	}

	if err := c.Serial.WriteByte(StartCode); err != nil {
		return fmt.Errorf("write start code: %w", err)
	}

	return nil
}

// endFrame returns the bus to idle: UART off, transmit line high, driver
// enable low. The enable pin stays an output.
func (t *Transmitter) endFrame() error {
	c := &t.cfg

	if err := c.Serial.Deactivate(); err != nil {
		return fmt.Errorf("deactivate serial: %w", err)
	}

	if err := c.Data.SetBit(c.TransmitBit); err != nil {
		return fmt.Errorf("idle mark: %w", err)
	}

	if c.EnableTransmit {
		if err := c.Data.ClearBit(c.EnableBit); err != nil {
			return fmt.Errorf("clear enable: %w", err)
		}
	}

	return nil
}

// BusyWait spins until d has elapsed on the monotonic clock. It does not
// yield to the scheduler, which keeps sub-100µs waits close to d.
func BusyWait(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}
