package main

import (
	"testing"

	"github.com/rewbycraft/go-dmxtx/pkg/config"
)

func TestLoadConfigFlags(t *testing.T) {
	saved := opts
	defer func() { opts = saved }()

	opts.config = ""
	opts.device = "/dev/ttyS9"
	opts.backend = "serial"
	opts.listen = "127.0.0.1:6455"
	opts.universe = 0x0102

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device != "/dev/ttyS9" || cfg.Backend != config.BackendSerial {
		t.Errorf("device/backend = %s/%s", cfg.Device, cfg.Backend)
	}
	if cfg.ArtNet.Listen != "127.0.0.1:6455" || cfg.ArtNet.Universe != 0x0102 {
		t.Errorf("artnet = %+v", cfg.ArtNet)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	saved := opts
	defer func() { opts = saved }()

	opts.config = ""
	opts.device = ""
	opts.backend = ""
	opts.listen = ""
	opts.universe = -1

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if want := config.Default(); cfg.Backend != want.Backend || cfg.ArtNet != want.ArtNet {
		t.Errorf("config = %+v, want the defaults", cfg)
	}
}
