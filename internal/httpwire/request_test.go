package httpwire

import (
	"bufio"
	"strings"
	"testing"

	"github.com/muurk/netmgr/internal/fault"
)

func read(raw string) (*Request, error) {
	return ReadRequest(bufio.NewReader(strings.NewReader(raw)))
}

func TestReadRequestGET(t *testing.T) {
	req, err := read("GET /?x=1 HTTP/1.1\r\nHost: 192.168.4.1\r\nUser-Agent: test\r\n\r\n")
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}

	if req.Method != "GET" {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.Path != "/?x=1" {
		t.Errorf("Path = %q, want /?x=1", req.Path)
	}
	if req.Header("HOST") != "192.168.4.1" {
		t.Errorf("Header(HOST) = %q", req.Header("HOST"))
	}
	if _, ok := req.Headers["user-agent"]; !ok {
		t.Error("header keys should be lower-cased")
	}
	if len(req.Body) != 0 {
		t.Errorf("GET body = %q, want empty", req.Body)
	}
}

func TestReadRequestPOSTBody(t *testing.T) {
	body := "ssid=Office&password=abc123"
	raw := "POST /save HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: 27\r\n\r\n" + body + "TRAILING"

	req, err := read(raw)
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if string(req.Body) != body {
		t.Errorf("Body = %q, want %q", req.Body, body)
	}
}

func TestReadRequestBodyPolicy(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantBody string
		tooLarge bool
	}{
		{
			name:     "no content-length",
			raw:      "POST /save HTTP/1.1\r\n\r\nssid=x",
			wantBody: "",
		},
		{
			name:     "non-numeric content-length",
			raw:      "POST /save HTTP/1.1\r\nContent-Length: abc\r\n\r\nssid=x",
			wantBody: "",
		},
		{
			name:     "zero content-length",
			raw:      "POST /save HTTP/1.1\r\nContent-Length: 0\r\n\r\nssid=x",
			wantBody: "",
		},
		{
			name:     "negative content-length",
			raw:      "POST /save HTTP/1.1\r\nContent-Length: -5\r\n\r\nssid=x",
			wantBody: "",
		},
		{
			name:     "short body",
			raw:      "POST /save HTTP/1.1\r\nContent-Length: 50\r\n\r\nssid=x",
			wantBody: "",
		},
		{
			name:     "oversized content-length",
			raw:      "POST /save HTTP/1.1\r\nContent-Length: 999999\r\n\r\nssid=x",
			wantBody: "",
			tooLarge: true,
		},
		{
			name:     "GET ignores content-length",
			raw:      "GET / HTTP/1.1\r\nContent-Length: 6\r\n\r\nssid=x",
			wantBody: "",
		},
		{
			name:     "exact body",
			raw:      "POST /save HTTP/1.1\r\ncontent-length: 6\r\n\r\nssid=x",
			wantBody: "ssid=x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := read(tt.raw)
			if err != nil {
				t.Fatalf("ReadRequest() error = %v", err)
			}
			if string(req.Body) != tt.wantBody {
				t.Errorf("Body = %q, want %q", req.Body, tt.wantBody)
			}
			if req.BodyTooLarge != tt.tooLarge {
				t.Errorf("BodyTooLarge = %v, want %v", req.BodyTooLarge, tt.tooLarge)
			}
		})
	}
}

func TestReadRequestHeaderPolicy(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nthis line has no colon\r\nX-Thing :  spaced value \r\nHost: a:b:c\r\n\r\n"

	req, err := read(raw)
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if len(req.Headers) != 2 {
		t.Errorf("got %d headers, want 2: %v", len(req.Headers), req.Headers)
	}
	if req.Header("x-thing") != "spaced value" {
		t.Errorf("x-thing = %q", req.Header("x-thing"))
	}
	if req.Header("host") != "a:b:c" {
		t.Errorf("host = %q, want value split on first colon only", req.Header("host"))
	}
}

func TestReadRequestHeadersUntilEOF(t *testing.T) {
	req, err := read("GET / HTTP/1.0\r\nHost: x")
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if req.Header("host") != "x" {
		t.Errorf("host = %q, want x", req.Header("host"))
	}
}

func TestReadRequestMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "GARBAGE\r\n"},
		{"blank line", "\r\n\r\n"},
		{"single token at EOF", "GET"},
		{"invalid utf8", "GET \xff\xfe HTTP/1.1\r\n\r\n"},
		{"line too long", "GET /" + strings.Repeat("a", MaxLineLength+10) + " HTTP/1.1\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := read(tt.raw)
			if !fault.IsMalformed(err) {
				t.Errorf("ReadRequest(%q) error = %v, want malformed", tt.name, err)
			}
		})
	}
}

func TestReadRequestTooManyHeaders(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < MaxHeaders+1; i++ {
		sb.WriteString("X-H")
		sb.WriteString(strings.Repeat("a", i+1))
		sb.WriteString(": v\r\n")
	}
	sb.WriteString("\r\n")

	if _, err := read(sb.String()); !fault.IsMalformed(err) {
		t.Errorf("error = %v, want malformed", err)
	}
}

func TestReadRequestClosed(t *testing.T) {
	_, err := read("")
	if !fault.IsClosed(err) {
		t.Errorf("ReadRequest(empty) error = %v, want closed", err)
	}
	if fault.IsMalformed(err) {
		t.Error("closed stream should not be reported as malformed")
	}
}
