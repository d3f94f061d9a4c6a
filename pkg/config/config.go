// Package config loads the transmitter configuration and opens the hardware
// it names.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/host/v3"

	"github.com/rewbycraft/go-dmxtx/pkg/gpioport"
	"github.com/rewbycraft/go-dmxtx/pkg/serialport"
	"github.com/rewbycraft/go-dmxtx/pkg/uartdmx"
)

// Backend selects how the transmit and enable lines are driven.
type Backend string

const (
	// BackendTTY uses a Linux tty: break ioctls for the preamble, RTS for
	// driver enable.
	BackendTTY Backend = "tty"

	// BackendSerial does the same through go.bug.st/serial.
	BackendSerial Backend = "serial"

	// BackendGPIO drives the lines as GPIO pins and opens Device as the UART
	// for the data of each frame only.
	BackendGPIO Backend = "gpio"
)

var (
	ErrBackend = errors.New("config: unknown backend")
	ErrBit     = errors.New("config: bit position out of range")
	ErrSameBit = errors.New("config: enable and transmit bits must differ")
	ErrPin     = errors.New("config: gpio backend needs a pin for every used bit")
)

type ArtNet struct {
	Listen string `yaml:"listen"`
	// Universe is the 15 bit port address.
	Universe uint16 `yaml:"universe"`
}

type Relay struct {
	// Device is the host link. Empty means stdin/stdout.
	Device  string        `yaml:"device"`
	Baud    int           `yaml:"baud"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	Backend        Backend          `yaml:"backend"`
	Device         string           `yaml:"device"`
	EnableTransmit bool             `yaml:"enable_transmit"`
	EnableBit      uint8            `yaml:"enable_bit"`
	TransmitBit    uint8            `yaml:"transmit_bit"`
	Pins           map[uint8]string `yaml:"pins"`
	FramePeriod    time.Duration    `yaml:"frame_period"`
	ArtNet         ArtNet           `yaml:"artnet"`
	Relay          Relay            `yaml:"relay"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:        BackendTTY,
		Device:         "/dev/ttyUSB0",
		EnableTransmit: uartdmx.DefaultConfig.EnableTransmit,
		EnableBit:      uartdmx.DefaultConfig.EnableBit,
		TransmitBit:    uartdmx.DefaultConfig.TransmitBit,
		FramePeriod:    uartdmx.DefaultFramePeriod,
		ArtNet: ArtNet{
			Listen: ":6454",
		},
		Relay: Relay{
			Baud:    115200,
			Timeout: 500 * time.Millisecond,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendTTY, BackendSerial, BackendGPIO:
	default:
		return fmt.Errorf("%w: %q", ErrBackend, c.Backend)
	}

	if c.TransmitBit > 7 {
		return fmt.Errorf("%w: transmit_bit %d", ErrBit, c.TransmitBit)
	}
	if c.EnableTransmit {
		if c.EnableBit > 7 {
			return fmt.Errorf("%w: enable_bit %d", ErrBit, c.EnableBit)
		}
		if c.EnableBit == c.TransmitBit {
			return ErrSameBit
		}
	}

	if c.Backend == BackendGPIO {
		if c.Pins[c.TransmitBit] == "" {
			return fmt.Errorf("%w: transmit_bit %d", ErrPin, c.TransmitBit)
		}
		if c.EnableTransmit && c.Pins[c.EnableBit] == "" {
			return fmt.Errorf("%w: enable_bit %d", ErrPin, c.EnableBit)
		}
	}
	return nil
}

// Open opens the configured hardware and returns a transmitter for it. The
// closer releases the hardware and must outlive every use of the
// transmitter.
func (c Config) Open() (*uartdmx.Transmitter, io.Closer, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	tc := uartdmx.DefaultConfig
	tc.EnableTransmit = c.EnableTransmit
	tc.EnableBit = c.EnableBit
	tc.TransmitBit = c.TransmitBit

	var closer io.Closer
	switch c.Backend {
	case BackendTTY:
		t, err := uartdmx.OpenTTY(c.Device)
		if err != nil {
			return nil, nil, err
		}
		tc.Serial = t
		tc.Direction = uartdmx.NopRegister{}
		tc.Data = t.Lines(c.TransmitBit, c.EnableBit)
		closer = t

	case BackendSerial:
		p, err := serialport.Open(c.Device)
		if err != nil {
			return nil, nil, err
		}
		tc.Serial = p
		tc.Direction = uartdmx.NopRegister{}
		tc.Data = p.Lines(c.TransmitBit, c.EnableBit)
		closer = p

	case BackendGPIO:
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph host: %w", err)
		}
		var names [8]string
		for bit, name := range c.Pins {
			if bit < 8 {
				names[bit] = name
			}
		}
		port, err := gpioport.Open(names)
		if err != nil {
			return nil, nil, err
		}
		// The UART only holds Device while a frame's data is sent, the
		// pins drive the break and the idle mark.
		p := serialport.OpenOnDemand(c.Device)
		tc.Serial = p
		tc.Direction = port.Direction()
		tc.Data = port.Data()
		closer = p
	}

	return uartdmx.New(tc), closer, nil
}
