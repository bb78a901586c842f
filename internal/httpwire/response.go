package httpwire

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Response is one HTTP response. Headers keep their insertion order so the
// bytes on the wire are predictable.
type Response struct {
	Status  int
	Headers [][2]string
	Body    []byte
}

// NewResponse creates a response with the given status
func NewResponse(status int) *Response {
	return &Response{Status: status}
}

// HTML creates a text/html response
func HTML(status int, body string) *Response {
	return NewResponse(status).
		SetHeader("Content-Type", "text/html; charset=utf-8").
		SetBody([]byte(body))
}

// Redirect creates a redirect response with a Location header
func Redirect(status int, location string) *Response {
	return NewResponse(status).SetHeader("Location", location)
}

// SetHeader appends a header
func (r *Response) SetHeader(key, value string) *Response {
	r.Headers = append(r.Headers, [2]string{key, value})
	return r
}

// SetBody sets the response body
func (r *Response) SetBody(body []byte) *Response {
	r.Body = body
	return r
}

// HeaderMap returns the headers as a map, for logging
func (r *Response) HeaderMap() map[string]string {
	m := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		m[h[0]] = h[1]
	}
	return m
}

// Bytes renders the full response. Every response carries
// "Connection: close": the portal serves one request per connection.
//
//	HTTP/1.1 303 See Other\r\n
//	Location: /\r\n
//	Connection: close\r\n
//	\r\n
func (r *Response) Bytes() []byte {
	var sb strings.Builder

	text := http.StatusText(r.Status)
	if text == "" {
		text = "Status " + strconv.Itoa(r.Status)
	}
	fmt.Fprintf(&sb, "HTTP/1.1 %d %s\r\n", r.Status, text)

	for _, h := range r.Headers {
		fmt.Fprintf(&sb, "%s: %s\r\n", h[0], h[1])
	}
	if len(r.Body) > 0 {
		fmt.Fprintf(&sb, "Content-Length: %d\r\n", len(r.Body))
	}
	sb.WriteString("Connection: close\r\n\r\n")
	sb.Write(r.Body)

	return []byte(sb.String())
}

// WriteResponse writes resp to w and returns the number of bytes written
func WriteResponse(w io.Writer, resp *Response) (int, error) {
	n, err := w.Write(resp.Bytes())
	if err != nil {
		return n, fmt.Errorf("failed to write HTTP %d response: %w", resp.Status, err)
	}
	return n, nil
}
