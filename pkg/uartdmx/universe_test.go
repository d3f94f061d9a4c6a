package uartdmx

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestUniverseSetChannels(t *testing.T) {
	u := NewUniverse(newRig(true).tx, 0)

	u.SetChannel(0, 10)
	u.SetChannel(511, 20)
	u.SetChannel(512, 30)
	u.SetChannels(510, []uint8{1, 2, 3, 4})
	u.SetChannels(600, []uint8{9})

	got := u.Channels()
	if got[0] != 10 {
		t.Errorf("channel 0 = %d, want 10", got[0])
	}
	if got[510] != 1 || got[511] != 2 {
		t.Errorf("channels 510-511 = %v, want [1 2]", got[510:])
	}
}

func TestUniverseRender(t *testing.T) {
	r := newRig(true)
	u := NewUniverse(r.tx, time.Hour)
	var slept time.Duration
	u.sleep = func(d time.Duration) { slept = d }

	u.SetChannels(0, []uint8{1, 2, 3})
	if err := u.Render(); err != nil {
		t.Fatal(err)
	}

	// The whole buffer is requested, which the transmitter clamps.
	if got, want := len(r.serial.written), MaxLength+1; got != want {
		t.Errorf("wrote %d bytes, want %d", got, want)
	}
	if got := r.serial.written[1:4]; got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("first channels = %v, want [1 2 3]", got)
	}
	if slept <= 0 || slept > time.Hour {
		t.Errorf("slept %s, want the rest of the frame period", slept)
	}
}

func TestUniverseRenderDropsLastSlot(t *testing.T) {
	r := newRig(true)
	u := NewUniverse(r.tx, 0)

	u.SetChannel(510, 100)
	u.SetChannel(511, 200)
	if err := u.Render(); err != nil {
		t.Fatal(err)
	}

	if got := u.Channels()[511]; got != 200 {
		t.Errorf("buffered slot 511 = %d, want 200", got)
	}
	// Start code plus slots 0-510.
	written := r.serial.written
	if len(written) != MaxChannels {
		t.Fatalf("wrote %d bytes, want %d", len(written), MaxChannels)
	}
	if got := written[len(written)-1]; got != 100 {
		t.Errorf("last byte on the wire = %d, want slot 510 (100)", got)
	}
}

func TestUniverseRunStopsOnCancel(t *testing.T) {
	r := newRig(false)
	u := NewUniverse(r.tx, 0)

	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	u.sleep = func(time.Duration) {}
	r.tx.cfg.Wait = func(time.Duration) {
		frames++
		if frames == 6 {
			cancel()
		}
	}

	if err := u.Run(ctx); err != nil {
		t.Fatal(err)
	}
	// Two waits per frame.
	if frames != 6 {
		t.Errorf("ran %d waits, want 6", frames)
	}
}

func TestUniverseRunReturnsSendError(t *testing.T) {
	r := newRig(true)
	r.serial.failOn = "flush"
	u := NewUniverse(r.tx, 0)

	err := u.Run(context.Background())
	if err == nil || !strings.HasPrefix(err.Error(), "flush") {
		t.Fatalf("Run() = %v, want flush error", err)
	}
}
