package trigger

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/logging"
	"github.com/muurk/netmgr/internal/provision"
)

// Intents is the arbiter surface a button submits to
type Intents interface {
	Request(reason provision.Reason) bool
	Withdraw(reason provision.Reason) bool
	Requested() bool
}

// Button turns debounced presses into provisioning intents. A press while
// provisioning is requested withdraws the request; otherwise it requests it.
type Button struct {
	intents  Intents
	debounce time.Duration

	mu       sync.Mutex
	accepted bool
	last     time.Duration
}

// NewButton creates a button that submits to intents
func NewButton(intents Intents, debounce time.Duration) *Button {
	return &Button{intents: intents, debounce: debounce}
}

// Press handles one press edge. at is the edge timestamp on a monotonic
// clock; presses within the debounce window of the last accepted one are
// dropped. Press reports whether the press was accepted.
func (b *Button) Press(at time.Duration) bool {
	b.mu.Lock()
	if b.accepted && at-b.last < b.debounce {
		b.mu.Unlock()
		return false
	}
	b.accepted = true
	b.last = at
	b.mu.Unlock()

	if b.intents.Requested() {
		b.intents.Withdraw(provision.ReasonCancel)
		logging.Info("Button pressed, withdrawing provisioning request")
	} else {
		b.intents.Request(provision.ReasonButton)
		logging.Info("Button pressed, requesting provisioning")
	}
	logging.Debug("Button press accepted", zap.Duration("at", at))
	return true
}
