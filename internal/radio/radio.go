package radio

import (
	"context"
	"fmt"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/credentials"
)

// Radio is the single wireless interface the controller drives.
//
// Station and access-point operation are mutually exclusive; the controller
// guarantees it never asks for both at once. Implementations must make
// Connect return without waiting for association: the controller polls
// Connected itself so an attempt can be aborted.
type Radio interface {
	// Activate powers the radio in station mode
	Activate(ctx context.Context) error
	// Connect starts associating with the given network
	Connect(ctx context.Context, creds credentials.Credentials) error
	// Connected reports whether the station has an established link
	Connected(ctx context.Context) (bool, error)
	// IP returns the station address, or "" when none is assigned
	IP(ctx context.Context) (string, error)
	// Disconnect drops the current association
	Disconnect(ctx context.Context) error
	// Deactivate powers the radio off
	Deactivate(ctx context.Context) error
	// StartAP brings up the provisioning access point
	StartAP(ctx context.Context, ssid, passphrase string) error
	// StopAP tears the access point down
	StopAP(ctx context.Context) error
}

// Backend names accepted by New
const (
	BackendNMCLI = "nmcli"
	BackendSim   = "sim"
)

// New builds the radio backend selected by settings.
func New(s *config.RadioSettings) (Radio, error) {
	switch s.Backend {
	case BackendNMCLI, "":
		return NewNMCLI(s.Interface, nil), nil
	case BackendSim:
		return NewSim(), nil
	default:
		return nil, fmt.Errorf("unknown radio backend %q (want %q or %q)", s.Backend, BackendNMCLI, BackendSim)
	}
}
