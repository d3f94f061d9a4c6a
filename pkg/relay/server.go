// Package relay carries channel data from a host to a DMX transmitter over a
// line based text link, usually a USB serial port or a pipe.
//
// The transmitting side announces "ready". The host then sends one line per
// frame with comma separated channel values (0-255) and the transmitting side
// answers "OK:<n>" with the number of channels it sent, or an "error:" line.
package relay

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/rewbycraft/go-dmxtx/pkg/uartdmx"
)

const (
	MsgReady       = "ready"
	MsgOK          = "OK"
	MsgDeviceError = "error:device"
	MsgDataError   = "error:data"
	MsgSendError   = "error:send"
)

// Sender transmits one frame. *uartdmx.Transmitter implements it.
type Sender interface {
	Send(channels []byte, length int) error
}

// Server answers frame requests read from a host link.
type Server struct {
	tx Sender
}

func NewServer(tx Sender) *Server {
	return &Server{tx: tx}
}

// Serve announces readiness on rw and handles requests until rw reaches EOF.
func (s *Server) Serve(rw io.ReadWriter) error {
	if err := writeLine(rw, MsgReady); err != nil {
		return err
	}

	scanner := bufio.NewScanner(rw)
	for scanner.Scan() {
		if err := writeLine(rw, s.handle(scanner.Text())); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ServeDeviceError tells the host that the DMX device could not be opened.
func ServeDeviceError(w io.Writer) error {
	return writeLine(w, MsgDeviceError)
}

func (s *Server) handle(line string) string {
	channels, err := ParseChannels(line)
	if err != nil {
		log.Printf("relay: %v", err)
		return MsgDataError
	}

	if err := s.tx.Send(channels, len(channels)); err != nil {
		log.Printf("relay: send: %v", err)
		return MsgSendError
	}

	return fmt.Sprintf("%s:%d", MsgOK, uartdmx.ClampLength(len(channels)))
}

// ParseChannels parses a line of comma separated channel values. An empty
// line is a frame without channels.
func ParseChannels(line string) ([]byte, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return []byte{}, nil
	}

	fields := strings.Split(line, ",")
	channels := make([]byte, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		channels[i] = byte(v)
	}
	return channels, nil
}

// FormatChannels is the inverse of ParseChannels.
func FormatChannels(channels []byte) string {
	var b strings.Builder
	for i, v := range channels {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	return b.String()
}

func writeLine(w io.Writer, msg string) error {
	_, err := io.WriteString(w, msg+"\n")
	return err
}
