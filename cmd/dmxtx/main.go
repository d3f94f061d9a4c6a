package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/rewbycraft/go-dmxtx/pkg/config"
)

var (
	rootOpts = struct {
		config  string
		device  string
		backend string
	}{}

	rootCmd = &cobra.Command{
		Use:          "dmxtx",
		Short:        "Send DMX-512 frames through a UART",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.config, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&rootOpts.device, "dev", "", "Serial device to use for DMX output (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.backend, "backend", "", "Line driver backend: tty, serial or gpio (overrides the config file)")

	rootCmd.AddCommand(sendCmd, nullCmd, relayCmd, hostCmd)
}

// loadConfig reads the configuration file and applies the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(rootOpts.config)
	if err != nil {
		return cfg, err
	}
	if rootOpts.device != "" {
		cfg.Device = rootOpts.device
	}
	if rootOpts.backend != "" {
		cfg.Backend = config.Backend(rootOpts.backend)
	}
	return cfg, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
