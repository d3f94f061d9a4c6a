package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rewbycraft/go-dmxtx/pkg/bridge"
	"github.com/rewbycraft/go-dmxtx/pkg/config"
	"github.com/rewbycraft/go-dmxtx/pkg/uartdmx"
)

var (
	opts = struct {
		config   string
		device   string
		backend  string
		listen   string
		universe int
	}{}

	rootCmd = &cobra.Command{
		Use:          "artnetdmx",
		Short:        "Output an Art-Net universe as DMX-512 on a UART",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&opts.config, "config", "", "YAML configuration file")
	rootCmd.Flags().StringVar(&opts.device, "dev", "", "Serial device to use for DMX output (overrides the config file)")
	rootCmd.Flags().StringVar(&opts.backend, "backend", "", "Line driver backend: tty, serial or gpio (overrides the config file)")
	rootCmd.Flags().StringVar(&opts.listen, "listen", "", "Listen string for Art-Net endpoint (overrides the config file)")
	rootCmd.Flags().IntVar(&opts.universe, "universe", -1, "Art-Net port address to output (overrides the config file)")
}

// loadConfig reads the configuration file and applies the flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return cfg, err
	}
	if opts.device != "" {
		cfg.Device = opts.device
	}
	if opts.backend != "" {
		cfg.Backend = config.Backend(opts.backend)
	}
	if opts.listen != "" {
		cfg.ArtNet.Listen = opts.listen
	}
	if opts.universe >= 0 {
		cfg.ArtNet.Universe = uint16(opts.universe)
	}
	return cfg, nil
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Println("Opening UART device...")
	tx, closer, err := cfg.Open()
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Println("Opening listening port...")
	pc, err := net.ListenPacket("udp", cfg.ArtNet.Listen)
	if err != nil {
		return err
	}
	defer pc.Close()

	universe := uartdmx.NewUniverse(tx, cfg.FramePeriod)
	b := bridge.New(universe, cfg.ArtNet.Universe)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var (
		wg     sync.WaitGroup
		artErr error
		dmxErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		artErr = b.Serve(ctx, pc)
		stop()
	}()
	go func() {
		defer wg.Done()
		log.Println("DMX render loop is running.")
		dmxErr = universe.Run(ctx)
		log.Println("Exited DMX render loop.")
		stop()
	}()

	log.Println("Waiting for Ctrl-C to exit...")
	<-ctx.Done()

	log.Println("Waiting for loops to exit...")
	wg.Wait()

	if artErr != nil {
		return artErr
	}
	return dmxErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
