//go:build !linux

package uartdmx

import "errors"

// ErrUnsupported is returned by OpenTTY on platforms without termios2.
var ErrUnsupported = errors.New("uartdmx: tty backend is only supported on linux")

type TTY struct{}

func OpenTTY(dev string) (*TTY, error) {
	return nil, ErrUnsupported
}

func (t *TTY) Configure(baud int, f Format) error { return ErrUnsupported }
func (t *TTY) WriteByte(c byte) error             { return ErrUnsupported }
func (t *TTY) Write(p []byte) (int, error)        { return 0, ErrUnsupported }
func (t *TTY) Flush() error                       { return ErrUnsupported }
func (t *TTY) Deactivate() error                  { return ErrUnsupported }
func (t *TTY) Close() error                       { return nil }

func (t *TTY) Lines(txBit, enableBit uint8) Register {
	return NopRegister{}
}
