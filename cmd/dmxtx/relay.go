package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	tarm "github.com/tarm/serial"

	"github.com/rewbycraft/go-dmxtx/pkg/config"
	"github.com/rewbycraft/go-dmxtx/pkg/relay"
)

var (
	relayCmd = &cobra.Command{
		Use:   "relay",
		Short: "Transmit frames requested over the host link",
		Long: "Read lines of comma separated channel values from the host link\n" +
			"(stdin/stdout unless relay.device is configured) and send each one\n" +
			"as a DMX frame, answering OK:<channels>.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			link, err := openHostLink(cfg.Relay)
			if err != nil {
				return err
			}
			defer link.Close()

			tx, closer, err := cfg.Open()
			if err != nil {
				log.Printf("Could not open DMX device: %v", err)
				_ = relay.ServeDeviceError(link)
				return err
			}
			defer closer.Close()

			return relay.NewServer(tx).Serve(link)
		},
	}

	hostCmd = &cobra.Command{
		Use:   "host <value,value,...>",
		Short: "Send one frame through a relay on the host link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			channels, err := relay.ParseChannels(args[0])
			if err != nil {
				return err
			}

			link, err := openHostLink(cfg.Relay)
			if err != nil {
				return err
			}
			defer link.Close()

			c := relay.NewClient(link)
			c.Timeout = cfg.Relay.Timeout

			ctx := cmd.Context()
			if err := c.WaitReady(ctx); err != nil {
				return err
			}
			n, err := c.Send(ctx, channels)
			if err != nil {
				return err
			}
			log.Printf("Relay sent %d channels.", n)
			return nil
		},
	}
)

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

// openHostLink opens the serial link to the host, or stdio when no device is
// configured.
func openHostLink(rc config.Relay) (io.ReadWriteCloser, error) {
	if rc.Device == "" {
		return stdio{os.Stdin, os.Stdout}, nil
	}

	log.Printf("Opening host link %s at %d baud...", rc.Device, rc.Baud)
	port, err := tarm.OpenPort(&tarm.Config{
		Name:     rc.Device,
		Baud:     rc.Baud,
		Size:     8,
		Parity:   tarm.ParityNone,
		StopBits: tarm.Stop1,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}
