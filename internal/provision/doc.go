// Package provision arbitrates entry into and exit from provisioning mode.
//
// The flag has a single owner, the Arbiter. External requesters (a button,
// the local control API) and the portal only submit intents; the controller
// commits them once per poll tick:
//
//	arb := provision.NewArbiter(2 * time.Minute)
//	arb.Request(provision.ReasonButton)   // any goroutine
//	...
//	if arb.Poll(time.Now()) {              // controller goroutine only
//	    // enter access-point mode
//	}
//
// Rules applied by Poll:
//   - a withdrawal wins over a request submitted in the same tick
//   - a committed request expires after the auto-disable window
//   - repeated requests while already requested do not restart the window
package provision
