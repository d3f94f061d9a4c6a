package uartdmx

import (
	"context"
	"sync"
	"time"
)

// DefaultFramePeriod is the minimum time between the starts of two rendered
// frames. A full frame takes about 23ms, the extra margin keeps slow
// receivers in step.
const DefaultFramePeriod = 33 * time.Millisecond

// Universe is a buffer of MaxChannels channel values that is rendered to a
// Transmitter frame after frame.
//
// Render requests the whole buffer and the Transmitter clamps it to
// MaxLength, so the last slot (index 511, DMX channel 512) is kept in the
// buffer but never transmitted.
//
// Channel setters may be called from any goroutine. Render and Run must only
// be called from one goroutine since they drive the Transmitter.
type Universe struct {
	tx     *Transmitter
	period time.Duration
	sleep  func(time.Duration)

	mu   sync.Mutex
	data [MaxChannels]byte
}

// NewUniverse returns a Universe with all channels at zero that renders to tx
// no more often than once per period.
func NewUniverse(tx *Transmitter, period time.Duration) *Universe {
	return &Universe{
		tx:     tx,
		period: period,
		sleep:  time.Sleep,
	}
}

// SetChannel sets slot ch (0-511). Out of range slots are ignored. Slot 511 is
// buffered but not sent by Render.
func (u *Universe) SetChannel(ch uint16, val uint8) {
	if int(ch) >= MaxChannels {
		return
	}
	u.mu.Lock()
	u.data[ch] = val
	u.mu.Unlock()
}

// SetChannels copies vals into the buffer starting at startCh. Values past the
// last channel are dropped.
func (u *Universe) SetChannels(startCh uint16, vals []uint8) {
	if int(startCh) >= MaxChannels {
		return
	}
	u.mu.Lock()
	copy(u.data[startCh:], vals)
	u.mu.Unlock()
}

// Channels returns a copy of the buffer.
func (u *Universe) Channels() [MaxChannels]byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.data
}

// Render sends the buffer as one frame and then waits out the rest of the
// frame period.
func (u *Universe) Render() error {
	start := time.Now()

	frame := u.Channels()
	if err := u.tx.Send(frame[:], MaxChannels); err != nil {
		return err
	}

	if elapsed := time.Since(start); elapsed < u.period {
		u.sleep(u.period - elapsed)
	}

	return nil
}

// Run renders frames until ctx is done or a frame fails.
func (u *Universe) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := u.Render(); err != nil {
			return err
		}
	}
}
