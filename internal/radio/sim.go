package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/fault"
)

// Sim is an in-memory radio for development machines and tests.
//
// A connect succeeds after ConnectDelay when the network name is in the
// known set (an empty set accepts any non-empty name). Every call is
// recorded so tests can assert on the operation order.
type Sim struct {
	mu sync.Mutex

	ConnectDelay time.Duration
	APErr        error // Returned by StartAP when set
	SimIP        string

	known      map[string]string // network name -> passphrase
	active     bool
	apUp       bool
	network    string
	connectAt  time.Time
	associated bool
	calls      []string
}

// NewSim creates a simulated radio that connects immediately.
func NewSim() *Sim {
	return &Sim{
		SimIP: "192.168.4.20",
		known: make(map[string]string),
	}
}

// AddNetwork makes name reachable with the given passphrase.
func (s *Sim) AddNetwork(name, passphrase string) *Sim {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[name] = passphrase
	return s
}

func (s *Sim) record(call string) {
	s.calls = append(s.calls, call)
}

// Calls returns the operations performed so far, in order.
func (s *Sim) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// APActive reports whether the simulated access point is up
func (s *Sim) APActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apUp
}

// Active reports whether the simulated station radio is powered
func (s *Sim) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate implements Radio
func (s *Sim) Activate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("activate")
	if s.apUp {
		return fault.NewRadio("radio.activate", errors.New("access point is running"))
	}
	s.active = true
	return nil
}

// Connect implements Radio
func (s *Sim) Connect(ctx context.Context, creds credentials.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("connect:" + creds.NetworkName)
	if !s.active {
		return fault.NewRadio("radio.connect", errors.New("radio is off"))
	}
	s.network = creds.NetworkName
	s.connectAt = time.Now()
	s.associated = s.reachable(creds)
	return nil
}

func (s *Sim) reachable(creds credentials.Credentials) bool {
	if creds.NetworkName == "" {
		return false
	}
	if len(s.known) == 0 {
		return true
	}
	pass, ok := s.known[creds.NetworkName]
	return ok && pass == creds.Passphrase
}

// Connected implements Radio
func (s *Sim) Connected(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectedLocked(), nil
}

func (s *Sim) connectedLocked() bool {
	return s.active && s.associated && time.Since(s.connectAt) >= s.ConnectDelay
}

// IP implements Radio
func (s *Sim) IP(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connectedLocked() {
		return "", nil
	}
	return s.SimIP, nil
}

// Disconnect implements Radio
func (s *Sim) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("disconnect")
	s.associated = false
	s.network = ""
	return nil
}

// Deactivate implements Radio
func (s *Sim) Deactivate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("deactivate")
	s.active = false
	s.associated = false
	return nil
}

// StartAP implements Radio
func (s *Sim) StartAP(ctx context.Context, ssid, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ap_start:" + ssid)
	if s.APErr != nil {
		return fault.NewRadio("radio.ap_start", s.APErr)
	}
	if s.active {
		return fault.NewRadio("radio.ap_start", fmt.Errorf("station mode still active"))
	}
	s.apUp = true
	return nil
}

// StopAP implements Radio
func (s *Sim) StopAP(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ap_stop")
	s.apUp = false
	return nil
}
