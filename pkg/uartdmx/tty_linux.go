package uartdmx

import (
	"fmt"
	"log"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// TTY is a Linux serial device used as the DMX UART.
//
// A tty cannot hand its transmit pin over to GPIO, so the break and
// mark-after-break are produced with the break ioctls instead; see Lines.
type TTY struct {
	file *os.File
}

// OpenTTY opens dev. The line settings are applied by Configure.
func OpenTTY(dev string) (*TTY, error) {
	file, err := os.OpenFile(dev, syscall.O_RDWR|syscall.O_NOCTTY, 0600)
	if err != nil {
		return nil, err
	}
	return &TTY{file: file}, nil
}

func (t *TTY) ioctl(request, argp uintptr) error {
	for {
		_, _, e := unix.Syscall(unix.SYS_IOCTL, t.file.Fd(), request, argp)
		switch e {
		case 0:
			return nil
		case unix.EINTR:
			log.Printf("ioctl was interrupted. Retrying...")
		default:
			return e
		}
	}
}

func makeTermios2(baud int, f Format) *unix.Termios {
	t := &unix.Termios{}
	t.Cflag = unix.CLOCAL | unix.CREAD | unix.BOTHER

	switch f.DataBits {
	case 5:
		t.Cflag |= unix.CS5
	case 6:
		t.Cflag |= unix.CS6
	case 7:
		t.Cflag |= unix.CS7
	default:
		t.Cflag |= unix.CS8
	}

	switch f.Parity {
	case EvenParity:
		t.Cflag |= unix.PARENB
	case OddParity:
		t.Cflag |= unix.PARENB | unix.PARODD
	}

	if f.StopBits == 2 {
		t.Cflag |= unix.CSTOPB
	}

	t.Ispeed = uint32(baud)
	t.Ospeed = uint32(baud)
	t.Cc[unix.VTIME] = 1
	t.Cc[unix.VMIN] = 0
	return t
}

func (t *TTY) Configure(baud int, f Format) error {
	if err := t.ioctl(unix.TCSETS2, uintptr(unsafe.Pointer(makeTermios2(baud, f)))); err != nil {
		return fmt.Errorf("set %d %s: %w", baud, f, err)
	}
	return nil
}

func (t *TTY) WriteByte(c byte) error {
	_, err := t.file.Write([]byte{c})
	return err
}

func (t *TTY) Write(p []byte) (int, error) {
	return t.file.Write(p)
}

// Flush waits for the output queue to drain (tcdrain).
func (t *TTY) Flush() error {
	return t.ioctl(unix.TCSBRK, 1)
}

// Deactivate leaves the device open. Line control through the break ioctls
// works whether or not the UART is framing.
func (t *TTY) Deactivate() error {
	return nil
}

func (t *TTY) Close() error {
	return t.file.Close()
}

func (t *TTY) setBreak(on bool) error {
	if on {
		return t.ioctl(unix.TIOCSBRK, 0)
	}
	return t.ioctl(unix.TIOCCBRK, 0)
}

func (t *TTY) setRTS(on bool) error {
	bits := int32(unix.TIOCM_RTS)
	req := uintptr(unix.TIOCMBIC)
	if on {
		req = unix.TIOCMBIS
	}
	return t.ioctl(req, uintptr(unsafe.Pointer(&bits)))
}

// Lines returns a data Register for the tty's output lines: txBit is the
// transmit line (clear = break, set = mark) and enableBit is RTS, which
// RS-485 adapters commonly use as driver enable. Other bits are ignored.
func (t *TTY) Lines(txBit, enableBit uint8) Register {
	return &ttyLines{tty: t, txBit: txBit, enableBit: enableBit}
}

type ttyLines struct {
	tty       *TTY
	txBit     uint8
	enableBit uint8
}

func (l *ttyLines) SetBit(bit uint8) error {
	switch bit {
	case l.txBit:
		return l.tty.setBreak(false)
	case l.enableBit:
		return l.tty.setRTS(true)
	}
	return nil
}

func (l *ttyLines) ClearBit(bit uint8) error {
	switch bit {
	case l.txBit:
		return l.tty.setBreak(true)
	case l.enableBit:
		return l.tty.setRTS(false)
	}
	return nil
}
