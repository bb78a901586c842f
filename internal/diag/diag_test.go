package diag

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/netmgr/internal/status"
)

type staticStatus struct{ s status.Status }

func (f staticStatus) Snapshot() status.Status { return f.s }

func TestRespond(t *testing.T) {
	tests := []struct {
		name   string
		status status.Status
		line   string
		want   string
	}{
		{"empty", status.Status{}, "   ", "ERR empty"},
		{"ping", status.Status{}, "PING", "PONG"},
		{"ping with whitespace", status.Status{}, "  PING \t", "PONG"},
		{"wifi connected", status.Status{Connected: true, IP: "192.168.1.50"}, "WIFI_STATUS?", "WiFi connected | 192.168.1.50"},
		{"wifi connecting", status.Status{Connecting: true}, "WIFI_STATUS?", "WiFi connecting..."},
		{"wifi down", status.Status{}, "WIFI_STATUS?", "WiFi is NOT connected"},
		{"ap enabled", status.Status{APActive: true}, "AP_STATUS?", "AP enabled | Sensor-Setup"},
		{"ap requested", status.Status{ProvisionRequested: true}, "AP_STATUS?", "AP requested"},
		{"ap disabled", status.Status{}, "AP_STATUS?", "AP disabled"},
		{"time unsynced", status.Status{}, "TIME?", "NTP was not synchronized"},
		{"time synced", status.Status{TimeSynced: true}, "TIME?", "TIME:2024,3,4,0,5,6,7,64"},
		{"echo", status.Status{}, "hello", "ECHO hello"},
		{"lowercase is not a command", status.Status{}, "ping", "ECHO ping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResponder(staticStatus{tt.status}, "Sensor-Setup")
			// Monday 4 March 2024
			r.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }
			if got := r.Respond(tt.line); got != tt.want {
				t.Errorf("Respond(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

// fakePort serves queued chunks, then reports read timeouts (0, nil)
type fakePort struct {
	mu     sync.Mutex
	chunks [][]byte
	out    bytes.Buffer
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.chunks) == 0 {
		p.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	c := p.chunks[0]
	n := copy(b, c)
	if n < len(c) {
		p.chunks[0] = c[n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	p.mu.Unlock()
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *fakePort) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

func serveUntil(t *testing.T, p *fakePort, want string) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, p, NewResponder(staticStatus{status.Status{Connected: true, IP: "10.0.0.2"}}, "AP"))
	}()

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(p.output(), want) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	return p.output()
}

func TestServeSplitsLines(t *testing.T) {
	p := &fakePort{chunks: [][]byte{
		[]byte("PI"),
		[]byte("NG\r\nWIFI_STATUS?\r"),
		[]byte("\nfoo\r\n"),
	}}
	want := "PONG\r\nWiFi connected | 10.0.0.2\r\nECHO foo\r\n"
	if got := serveUntil(t, p, want); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestServeRejectsLongRequest(t *testing.T) {
	long := strings.Repeat("x", MaxRequestLength+40)
	p := &fakePort{chunks: [][]byte{
		[]byte(long[:60]),
		[]byte(long[60:]),
		[]byte("\r\nPING\r\n"),
	}}
	want := "ERR too_long\r\nPONG\r\n"
	if got := serveUntil(t, p, want); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestServeTimeoutEndsDroppedLine(t *testing.T) {
	prev := requestTimeout
	requestTimeout = 20 * time.Millisecond
	t.Cleanup(func() { requestTimeout = prev })

	// Over-long line whose last read ends in CR, then silence
	p := &fakePort{chunks: [][]byte{[]byte(strings.Repeat("x", MaxRequestLength+10) + "\r")}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, p, NewResponder(staticStatus{}, "AP"))
	}()

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(p.output(), "ERR timeout") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.mu.Lock()
	p.chunks = append(p.chunks, []byte("PING\r\n"))
	p.mu.Unlock()
	for !strings.Contains(p.output(), "PONG") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if got, want := p.output(), "ERR too_long\r\nERR timeout\r\nPONG\r\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestServeTimesOutPartialRequest(t *testing.T) {
	prev := requestTimeout
	requestTimeout = 20 * time.Millisecond
	t.Cleanup(func() { requestTimeout = prev })

	p := &fakePort{chunks: [][]byte{[]byte("PIN")}}
	got := serveUntil(t, p, "ERR timeout\r\n")
	if got != "ERR timeout\r\n" {
		t.Errorf("output = %q", got)
	}
}
