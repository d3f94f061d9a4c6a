// Package bridge feeds Art-Net DMX packets into a DMX universe.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/jsimonetti/go-artnet/packet"

	"github.com/rewbycraft/go-dmxtx/pkg/uartdmx"
)

// pollInterval bounds how long Serve takes to notice cancellation.
const pollInterval = 100 * time.Millisecond

// Bridge copies the channel data of ArtDMX packets addressed to one port
// address into a Universe.
type Bridge struct {
	universe *uartdmx.Universe
	address  uint16
}

// New returns a Bridge for the 15 bit Art-Net port address (net<<8 | sub-uni).
func New(u *uartdmx.Universe, address uint16) *Bridge {
	return &Bridge{universe: u, address: address & 0x7fff}
}

// PortAddress returns the 15 bit port address p is destined to.
func PortAddress(p *packet.ArtDMXPacket) uint16 {
	return uint16(p.Net&0x7f)<<8 | uint16(p.SubUni)
}

// Serve reads packets from pc until ctx is done. Invalid packets are logged
// and dropped.
func (b *Bridge) Serve(ctx context.Context, pc net.PacketConn) error {
	buffer := make([]byte, 4096)

	log.Println("Art-Net receive loop is running.")
	defer log.Println("Exited Art-Net receive loop.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := pc.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return err
		}
		n, _, err := pc.ReadFrom(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		if err := b.Handle(buffer[:n]); err != nil {
			log.Printf("Received invalid packet. Ignoring... (%v)", err)
		}
	}
}

// Handle decodes one packet and applies it.
func (b *Bridge) Handle(data []byte) error {
	p := packet.NewArtDMXPacket()
	if err := p.UnmarshalBinary(data); err != nil {
		return err
	}
	return b.Apply(p)
}

// Apply copies the channels of p into the universe if p is addressed to the
// bridge. Packets for other addresses are ignored.
func (b *Bridge) Apply(p *packet.ArtDMXPacket) error {
	if PortAddress(p) != b.address {
		return nil
	}
	if int(p.Length) > len(p.Data) {
		return fmt.Errorf("length %d exceeds %d channels", p.Length, len(p.Data))
	}
	b.universe.SetChannels(0, p.Data[:p.Length])
	return nil
}
