package diag

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/logging"
)

// Line protocol limits
const (
	MaxRequestLength = 128
	RequestTimeout   = 2 * time.Second
	readTimeout      = 100 * time.Millisecond
)

// requestTimeout is shortened by tests
var requestTimeout = RequestTimeout

// Port is the subset of serial.Port the line loop needs. Read returns 0
// bytes and no error when its read timeout expires.
type Port interface {
	io.ReadWriter
}

// OpenPort opens a serial device in 8N1 mode with a short read timeout
func OpenPort(name string, baud int) (serial.Port, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s at %d baud: %w", name, baud, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		logging.Debug("Serial input flush failed", zap.String("port", name), zap.Error(err))
	}
	return p, nil
}

// Run opens the named port and answers requests until ctx is cancelled.
func Run(ctx context.Context, name string, baud int, r *Responder) error {
	p, err := OpenPort(name, baud)
	if err != nil {
		return err
	}
	defer p.Close()

	logging.Info("Serial diagnostics listening", zap.String("port", name), zap.Int("baud", baud))
	return Serve(ctx, p, r)
}

// Serve reads CRLF-terminated request lines from p and writes one reply per
// line. A line longer than MaxRequestLength is answered with "ERR too_long"
// and discarded up to its terminator; a partial line idle for RequestTimeout
// is answered with "ERR timeout".
func Serve(ctx context.Context, p Port, r *Responder) error {
	var (
		buf      []byte
		dropping bool
		lastByte time.Time
		chunk    = make([]byte, 64)
	)

	reply := func(s string) error {
		_, err := p.Write([]byte(s + "\r\n"))
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := p.Read(chunk)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("serial read failed: %w", err)
		}

		if n == 0 {
			if len(buf) > 0 && time.Since(lastByte) > requestTimeout {
				logging.Debug("Serial request timed out", zap.Int("partial_len", len(buf)))
				buf = buf[:0]
				dropping = false
				if err := reply("ERR timeout"); err != nil {
					return err
				}
			}
			continue
		}
		lastByte = time.Now()
		buf = append(buf, chunk[:n]...)

		for {
			idx := bytes.Index(buf, []byte("\r\n"))
			if idx < 0 {
				break
			}
			line := buf[:idx]
			buf = buf[idx+2:]

			if dropping {
				dropping = false
				continue
			}
			if len(line) > MaxRequestLength {
				if err := reply("ERR too_long"); err != nil {
					return err
				}
				continue
			}
			logging.LogRawBytes("serial_request", line)
			if err := reply(r.Respond(string(bytes.ToValidUTF8(line, nil)))); err != nil {
				return err
			}
		}

		if len(buf) > MaxRequestLength {
			if !dropping {
				logging.Debug("Serial request too long, dropping", zap.Int("max", MaxRequestLength))
				if err := reply("ERR too_long"); err != nil {
					return err
				}
			}
			dropping = true
			// Keep a trailing CR so a terminator split across reads is seen
			if buf[len(buf)-1] == '\r' {
				buf = append(buf[:0], '\r')
			} else {
				buf = buf[:0]
			}
		}
	}
}
