// Package portal implements the credential-entry web page served while the
// device runs its own access point.
//
// The portal is deliberately small: one listening socket, one request per
// connection, every response closes the connection, and requests are handled
// sequentially on the caller's goroutine. It does not restart the device;
// Serve reports whether new credentials were saved and the caller decides.
//
//	p := portal.New(":80", store, arbiter)
//	res, err := p.Serve(ctx, func() bool { return !arbiter.Poll(time.Now()) })
//	if err == nil && res.Saved {
//	    restarter.Restart(ctx)
//	}
package portal
