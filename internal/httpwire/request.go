package httpwire

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/muurk/netmgr/internal/fault"
)

// Limits that keep one request within a fixed memory budget.
const (
	MaxLineLength = 1024
	MaxHeaders    = 32
	MaxBodySize   = 4096
)

// Request is one parsed HTTP request.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string // Keys are lower-cased
	Body    []byte

	// BodyTooLarge is set when Content-Length exceeded MaxBodySize. Body is
	// empty in that case.
	BodyTooLarge bool
}

// Header returns the value of the named header, case-insensitively.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// ReadRequest reads a single request from r.
//
// The policy is best-effort rather than strict HTTP: header lines without a
// colon are skipped, and a missing or unparseable content-length on a POST
// yields an empty body instead of an error.
//
// Errors:
//   - fault.ErrClosed when the stream ends before any byte is read
//   - a fault.KindMalformedRequest error for a bad request line or oversized input
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return nil, fault.ErrClosed
		}
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	if !utf8.ValidString(line) {
		return nil, fault.NewMalformed("request line is not valid UTF-8")
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return nil, fault.NewMalformed("request line needs a method and a path")
	}

	req := &Request{
		Method:  parts[0],
		Path:    parts[1],
		Headers: make(map[string]string),
	}

	for {
		h, err := readLine(r)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if h == "" {
			break
		}

		if k, v, ok := strings.Cut(h, ":"); ok {
			if len(req.Headers) >= MaxHeaders {
				return nil, fault.NewMalformed("too many headers")
			}
			req.Headers[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	if req.Method == "POST" {
		cl := req.Header("content-length")
		req.Body = readBody(r, cl)
		if n, err := strconv.Atoi(cl); err == nil && n > MaxBodySize {
			req.BodyTooLarge = true
		}
	}

	return req, nil
}

// readBody reads exactly content-length bytes. Anything unusable yields an
// empty body.
func readBody(r *bufio.Reader, contentLength string) []byte {
	if contentLength == "" {
		return []byte{}
	}
	n, err := strconv.Atoi(contentLength)
	if err != nil || n <= 0 || n > MaxBodySize {
		return []byte{}
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return []byte{}
	}
	return body
}

// readLine reads up to the next LF and strips the line terminator. It returns
// io.EOF alongside whatever partial line was read when the stream ends.
func readLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := r.ReadLine()
		sb.Write(chunk)
		if sb.Len() > MaxLineLength {
			return "", fault.NewMalformed("line too long")
		}
		if err != nil {
			return strings.TrimSpace(sb.String()), err
		}
		if !isPrefix {
			return strings.TrimSpace(sb.String()), nil
		}
	}
}
