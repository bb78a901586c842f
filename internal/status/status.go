package status

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Mode is the radio operating mode
type Mode int

const (
	ModeOff Mode = iota
	ModeStation
	ModeAccessPoint
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeStation:
		return "station"
	case ModeAccessPoint:
		return "access_point"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// MarshalJSON encodes the mode by name
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "off":
		*m = ModeOff
	case "station":
		*m = ModeStation
	case "access_point":
		*m = ModeAccessPoint
	default:
		return fmt.Errorf("unknown mode %q", s)
	}
	return nil
}

// State is the controller state machine position
type State string

const (
	StateIdle                State = "Idle"
	StateEnteringAccessPoint State = "EnteringAccessPoint"
	StateProvisioningActive  State = "ProvisioningActive"
	StateLeavingAccessPoint  State = "LeavingAccessPoint"
	StateAttemptingStation   State = "AttemptingStation"
	StateStationConnected    State = "StationConnected"
	StateStationFailed       State = "StationFailed"
	StateOffDwell            State = "OffDwell"
	StateRestarting          State = "Restarting"
)

// Status is the connectivity record published by the controller.
type Status struct {
	Mode               Mode      `json:"mode"`
	State              State     `json:"state"`
	Connected          bool      `json:"connected"`
	Connecting         bool      `json:"connecting"`
	IP                 string    `json:"ip,omitempty"`
	Network            string    `json:"network,omitempty"`
	APActive           bool      `json:"ap_active"`
	APError            string    `json:"ap_error,omitempty"`
	TimeSynced         bool      `json:"time_synced"`
	ProvisionRequested bool      `json:"provision_requested"`
	LastOutcome        string    `json:"last_outcome,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Store holds the current Status. The controller is the only writer;
// any goroutine may read or subscribe.
type Store struct {
	mu      sync.RWMutex
	current Status
	subs    map[int]chan Status
	nextID  int
}

// NewStore creates a store with the radio off
func NewStore() *Store {
	return &Store{
		current: Status{Mode: ModeOff, State: StateIdle, UpdatedAt: time.Now()},
		subs:    make(map[int]chan Status),
	}
}

// Snapshot returns a copy of the current status
func (s *Store) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to the status and notifies subscribers.
// Slow subscribers miss intermediate snapshots rather than block the writer.
func (s *Store) Update(fn func(*Status)) Status {
	s.mu.Lock()
	fn(&s.current)
	s.current.UpdatedAt = time.Now()
	snap := s.current
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot with the newest one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	s.mu.Unlock()
	return snap
}

// Subscribe returns a channel that receives the current snapshot immediately
// and every later update. Call the returned function to unsubscribe.
func (s *Store) Subscribe() (<-chan Status, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Status, 1)
	ch <- s.current
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}
