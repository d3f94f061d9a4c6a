package gpioport

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/rewbycraft/go-dmxtx/pkg/uartdmx"
)

func TestDataLatchedUntilOutput(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO14", L: gpio.Low}
	var pins [8]gpio.PinIO
	pins[3] = pin
	port := New(pins)

	if err := port.Data().SetBit(3); err != nil {
		t.Fatal(err)
	}
	if pin.Read() != gpio.Low {
		t.Error("input pin was driven by a data write")
	}

	if err := port.Direction().SetBit(3); err != nil {
		t.Fatal(err)
	}
	if pin.Read() != gpio.High {
		t.Error("latched level was not driven after switching to output")
	}

	if err := port.Data().ClearBit(3); err != nil {
		t.Fatal(err)
	}
	if pin.Read() != gpio.Low {
		t.Error("output pin did not follow the data register")
	}

	if err := port.Direction().ClearBit(3); err != nil {
		t.Fatal(err)
	}
	if pin.Pull() != gpio.PullNoChange {
		t.Errorf("pull = %s, want %s", pin.Pull(), gpio.PullNoChange)
	}
}

func TestUnusedBits(t *testing.T) {
	port := New([8]gpio.PinIO{})
	for bit := uint8(0); bit < 8; bit++ {
		if err := port.Direction().SetBit(bit); err != nil {
			t.Errorf("direction bit %d: %v", bit, err)
		}
		if err := port.Data().ClearBit(bit); err != nil {
			t.Errorf("data bit %d: %v", bit, err)
		}
	}
}

func TestOpenUnknownPin(t *testing.T) {
	_, err := Open([8]string{3: "NO_SUCH_PIN_42"})
	if !errors.Is(err, ErrUnknownPin) {
		t.Errorf("Open() error = %v, want %v", err, ErrUnknownPin)
	}
}

type nopSerial struct{}

func (nopSerial) Configure(int, uartdmx.Format) error { return nil }
func (nopSerial) WriteByte(byte) error                { return nil }
func (nopSerial) Write(p []byte) (int, error)         { return len(p), nil }
func (nopSerial) Flush() error                        { return nil }
func (nopSerial) Deactivate() error                   { return nil }

func TestTransmitterFrame(t *testing.T) {
	tx := &gpiotest.Pin{N: "TX"}
	enable := &gpiotest.Pin{N: "DE", L: gpio.High}
	var pins [8]gpio.PinIO
	pins[1] = enable
	pins[3] = tx
	port := New(pins)

	var levels []gpio.Level
	cfg := uartdmx.DefaultConfig
	cfg.Serial = nopSerial{}
	cfg.Direction = port.Direction()
	cfg.Data = port.Data()
	cfg.Wait = func(time.Duration) {
		levels = append(levels, tx.Read())
		if enable.Read() != gpio.High {
			t.Error("driver enable is low during the preamble")
		}
	}

	if err := uartdmx.New(cfg).Null(4); err != nil {
		t.Fatal(err)
	}

	if len(levels) != 2 || levels[0] != gpio.Low || levels[1] != gpio.High {
		t.Errorf("preamble levels = %v, want [Low High]", levels)
	}
	if tx.Read() != gpio.High {
		t.Error("transmit line is not idle high")
	}
	if enable.Read() != gpio.Low {
		t.Error("driver enable is still high")
	}
}
