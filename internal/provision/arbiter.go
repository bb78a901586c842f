package provision

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/logging"
)

// Reason explains why an intent was submitted
type Reason string

const (
	ReasonButton  Reason = "button"       // Physical provisioning button
	ReasonAPI     Reason = "api"          // Local control API
	ReasonSaved   Reason = "saved"        // Portal stored new credentials
	ReasonExpired Reason = "auto_disable" // Request outlived the auto-disable window
	ReasonCancel  Reason = "cancel"       // Explicit withdrawal by an operator
)

// DefaultAutoDisable is how long a committed request stays active
const DefaultAutoDisable = 120 * time.Second

// intentQueueSize bounds pending requests between two controller polls
const intentQueueSize = 16

// Arbiter owns the provisioning-request flag.
//
// Components never write the flag directly. They submit intents with Request
// and Withdraw; the controller, the only caller of Poll, commits them. Within
// one poll a withdrawal always wins over a request, so a save that clears the
// flag cannot be undone by a stale button press queued in the same tick.
// Requests share a bounded queue; a withdrawal is a pending bit and is never
// dropped.
type Arbiter struct {
	intents     chan Reason
	withdraw    atomic.Pointer[Reason] // Pending withdrawal, nil when none
	requested   atomic.Bool
	autoDisable time.Duration
	since       time.Time // When the current request was committed
	lastReason  atomic.Value
}

// NewArbiter creates an arbiter. autoDisable <= 0 means DefaultAutoDisable.
func NewArbiter(autoDisable time.Duration) *Arbiter {
	if autoDisable <= 0 {
		autoDisable = DefaultAutoDisable
	}
	a := &Arbiter{
		intents:     make(chan Reason, intentQueueSize),
		autoDisable: autoDisable,
	}
	a.lastReason.Store(Reason(""))
	return a
}

// Request submits an intent to enter provisioning mode. It never blocks;
// if the queue is full the intent is dropped and false is returned.
func (a *Arbiter) Request(reason Reason) bool {
	select {
	case a.intents <- reason:
		logging.Debug("Provisioning request submitted", zap.String("reason", string(reason)))
		return true
	default:
		logging.Warn("Provisioning intent queue full, dropping request",
			zap.String("reason", string(reason)),
		)
		return false
	}
}

// Withdraw submits an intent to leave provisioning mode. It never blocks and
// always succeeds; withdrawals submitted before the same Poll collapse into
// one, keeping the latest reason.
func (a *Arbiter) Withdraw(reason Reason) bool {
	a.withdraw.Store(&reason)
	logging.Debug("Provisioning withdrawal submitted", zap.String("reason", string(reason)))
	return true
}

// Requested returns the last committed value. Safe from any goroutine.
func (a *Arbiter) Requested() bool {
	return a.requested.Load()
}

// LastReason returns the reason behind the last committed change.
func (a *Arbiter) LastReason() Reason {
	return a.lastReason.Load().(Reason)
}

// Poll commits pending intents and applies the auto-disable window, then
// returns the committed value. Only the controller calls Poll.
func (a *Arbiter) Poll(now time.Time) bool {
	var (
		sawEnter    bool
		sawWithdraw bool
		enterWhy    Reason
		withdrawWhy Reason
	)

drain:
	for {
		select {
		case reason := <-a.intents:
			sawEnter = true
			enterWhy = reason
		default:
			break drain
		}
	}

	// Taken after the drain so a request queued behind a withdrawal of the
	// same tick still loses to it
	if w := a.withdraw.Swap(nil); w != nil {
		sawWithdraw = true
		withdrawWhy = *w
	}

	current := a.requested.Load()

	switch {
	case sawWithdraw:
		if sawEnter {
			logging.Info("Provisioning request superseded by withdrawal in the same tick",
				zap.String("request_reason", string(enterWhy)),
				zap.String("withdraw_reason", string(withdrawWhy)),
			)
		}
		if current {
			a.commit(false, withdrawWhy, now)
		}
	case sawEnter:
		if !current {
			a.commit(true, enterWhy, now)
		}
	}

	if a.requested.Load() && now.Sub(a.since) >= a.autoDisable {
		logging.Info("Provisioning request auto-disabled after timeout",
			zap.Duration("after", a.autoDisable),
		)
		a.commit(false, ReasonExpired, now)
	}

	return a.requested.Load()
}

func (a *Arbiter) commit(value bool, reason Reason, now time.Time) {
	a.requested.Store(value)
	a.lastReason.Store(reason)
	if value {
		a.since = now
	}
	logging.Info("Provisioning flag committed",
		zap.Bool("requested", value),
		zap.String("reason", string(reason)),
	)
}
