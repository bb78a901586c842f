package statusfeed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/muurk/netmgr/internal/provision"
	"github.com/muurk/netmgr/internal/readiness"
	"github.com/muurk/netmgr/internal/status"
)

type fixture struct {
	store   *status.Store
	arbiter *provision.Arbiter
	ready   *readiness.Event
	server  *httptest.Server
	client  *Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   status.NewStore(),
		arbiter: provision.NewArbiter(time.Minute),
		ready:   readiness.New(),
	}
	s := New("127.0.0.1:0", f.store, f.arbiter, f.ready)
	f.server = httptest.NewServer(s.Router())
	t.Cleanup(f.server.Close)
	f.client = NewClient(f.server.URL)
	return f
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *status.Status) {
		s.Mode = status.ModeStation
		s.State = status.StateStationConnected
		s.Connected = true
		s.IP = "192.168.1.50"
	})

	got, err := f.client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.Mode != status.ModeStation || !got.Connected || got.IP != "192.168.1.50" {
		t.Errorf("Status() = %+v", got)
	}
}

func TestReadyEndpoint(t *testing.T) {
	f := newFixture(t)

	code := func() int {
		resp, err := http.Get(f.server.URL + "/ready")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := code(); got != http.StatusServiceUnavailable {
		t.Errorf("GET /ready before Set = %d, want 503", got)
	}
	f.ready.Set()
	if got := code(); got != http.StatusOK {
		t.Errorf("GET /ready after Set = %d, want 200", got)
	}
}

func TestProvisionEndpointsSubmitIntents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply, err := f.client.RequestProvisioning(ctx)
	if err != nil {
		t.Fatalf("RequestProvisioning() error = %v", err)
	}
	if !reply.Accepted {
		t.Error("request not accepted")
	}
	if reply.Requested {
		t.Error("flag committed by the API; only the controller commits")
	}

	if !f.arbiter.Poll(time.Now()) {
		t.Fatal("request did not reach the arbiter")
	}
	if f.arbiter.LastReason() != provision.ReasonAPI {
		t.Errorf("LastReason() = %q, want %q", f.arbiter.LastReason(), provision.ReasonAPI)
	}

	if _, err := f.client.CancelProvisioning(ctx); err != nil {
		t.Fatalf("CancelProvisioning() error = %v", err)
	}
	if f.arbiter.Poll(time.Now()) {
		t.Error("withdrawal did not reach the arbiter")
	}
}

func TestStreamPushesUpdates(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	received := make(chan status.Status, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.client.Stream(ctx, func(s status.Status) { received <- s })
	}()

	// Initial snapshot
	select {
	case s := <-received:
		if s.Mode != status.ModeOff {
			t.Errorf("initial mode = %v, want off", s.Mode)
		}
	case <-ctx.Done():
		t.Fatal("no initial snapshot")
	}

	f.store.Update(func(s *status.Status) {
		s.Mode = status.ModeAccessPoint
		s.State = status.StateProvisioningActive
	})

	select {
	case s := <-received:
		if s.State != status.StateProvisioningActive {
			t.Errorf("pushed state = %v", s.State)
		}
	case <-ctx.Done():
		t.Fatal("update not pushed")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Stream() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not return after cancel")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New("", status.NewStore(), provision.NewArbiter(0), readiness.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestNewClientAddsScheme(t *testing.T) {
	if c := NewClient("127.0.0.1:7480"); c.baseURL != "http://127.0.0.1:7480" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c := NewClient("http://localhost:7480/"); c.baseURL != "http://localhost:7480" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}

type fullQueue struct{}

func (fullQueue) Request(provision.Reason) bool  { return false }
func (fullQueue) Withdraw(provision.Reason) bool { return false }
func (fullQueue) Requested() bool                { return false }

func TestProvisionQueueFull(t *testing.T) {
	srv := httptest.NewServer(New("", status.NewStore(), fullQueue{}, readiness.New()).Router())
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).RequestProvisioning(context.Background())
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("RequestProvisioning() error = %v, want ErrQueueFull", err)
	}
}
