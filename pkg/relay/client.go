package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds the wait for any answer from the transmitting side.
const DefaultTimeout = 500 * time.Millisecond

const lineBuffer = 16

var (
	ErrDevice          = errors.New("relay: transmitter could not open its device")
	ErrReadyTimeout    = errors.New("relay: transmitter is not ready in time")
	ErrUnexpected      = errors.New("relay: unexpected message from transmitter")
	ErrResponseTimeout = errors.New("relay: transmitter did not respond in time")
	ErrCorrupt         = errors.New("relay: not all data could be sent")
	ErrUnknownResponse = errors.New("relay: unknown response")
	ErrClosed          = errors.New("relay: link closed")
)

// Client sends frames to a Server on the other end of a host link.
//
// A Client is not safe for concurrent use.
type Client struct {
	w       io.Writer
	lines   chan string
	Timeout time.Duration
}

// NewClient starts reading answers from rw. Answers arriving while more than
// lineBuffer of them are unread are dropped.
func NewClient(rw io.ReadWriter) *Client {
	c := &Client{
		w:       rw,
		lines:   make(chan string, lineBuffer),
		Timeout: DefaultTimeout,
	}
	go c.readLoop(rw)
	return c
}

func (c *Client) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		select {
		case c.lines <- line:
		default:
			// Nobody has asked for this many answers.
			log.Printf("relay: dropping unsolicited line %q", line)
		}
	}
	close(c.lines)
}

func (c *Client) next(ctx context.Context, timeoutErr error) (string, error) {
	timer := time.NewTimer(c.Timeout)
	defer timer.Stop()

	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", ErrClosed
		}
		return line, nil
	case <-timer.C:
		return "", timeoutErr
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// WaitReady waits for the transmitter's ready announcement.
func (c *Client) WaitReady(ctx context.Context) error {
	line, err := c.next(ctx, ErrReadyTimeout)
	if err != nil {
		return err
	}

	switch line {
	case MsgReady:
		return nil
	case MsgDeviceError:
		return ErrDevice
	}
	return fmt.Errorf("%w: %q", ErrUnexpected, line)
}

// Send transmits data as one frame and returns the number of channels the
// transmitter reported. A count that differs from len(data) is ErrCorrupt.
func (c *Client) Send(ctx context.Context, data []byte) (int, error) {
	c.discardStale()

	if err := writeLine(c.w, FormatChannels(data)); err != nil {
		return 0, err
	}

	line, err := c.next(ctx, ErrResponseTimeout)
	if err != nil {
		return 0, err
	}

	status, count, found := strings.Cut(line, ":")
	if status != MsgOK || !found {
		return 0, fmt.Errorf("%w: %q", ErrUnknownResponse, line)
	}

	n, err := strconv.Atoi(count)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownResponse, line)
	}

	if n != len(data) {
		return n, fmt.Errorf("%w: %d/%d", ErrCorrupt, n, len(data))
	}
	return n, nil
}

// discardStale drops answers to requests that already timed out.
func (c *Client) discardStale() {
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
