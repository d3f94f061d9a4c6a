package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rewbycraft/go-dmxtx/pkg/uartdmx"
)

var (
	sendOpts = struct {
		repeat int
	}{}

	sendCmd = &cobra.Command{
		Use:   "send <value>...",
		Short: "Send one frame with the given channel values",
		Long: "Send a frame whose channels 1..n take the given values (0-255).\n" +
			"At most 511 channels are sent; further values are dropped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channels := make([]byte, len(args))
			for i, arg := range args {
				v, err := strconv.ParseUint(arg, 10, 8)
				if err != nil {
					return fmt.Errorf("channel %d: %w", i+1, err)
				}
				channels[i] = byte(v)
			}

			return withTransmitter(func(tx *uartdmx.Transmitter) error {
				for i := 0; i < sendOpts.repeat; i++ {
					if err := tx.Send(channels, len(channels)); err != nil {
						return err
					}
				}
				log.Printf("Sent %d frame(s) of %d channels.", sendOpts.repeat, uartdmx.ClampLength(len(channels)))
				return nil
			})
		},
	}

	nullOpts = struct {
		length int
	}{}

	nullCmd = &cobra.Command{
		Use:   "null",
		Short: "Send one frame with every channel at zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransmitter(func(tx *uartdmx.Transmitter) error {
				if err := tx.Null(nullOpts.length); err != nil {
					return err
				}
				log.Printf("Sent null frame of %d channels.", uartdmx.ClampLength(nullOpts.length))
				return nil
			})
		},
	}
)

func init() {
	sendCmd.Flags().IntVar(&sendOpts.repeat, "repeat", 1, "Number of times to send the frame")
	nullCmd.Flags().IntVar(&nullOpts.length, "length", uartdmx.MaxChannels, "Number of channels")
}

// withTransmitter opens the configured hardware for the duration of fn.
func withTransmitter(fn func(tx *uartdmx.Transmitter) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Printf("Opening %s device %s...", cfg.Backend, cfg.Device)
	tx, closer, err := cfg.Open()
	if err != nil {
		return err
	}
	defer closer.Close()

	return fn(tx)
}
