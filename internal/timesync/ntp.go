// Package timesync sets the wall clock from a network time source once the
// station is connected.
package timesync

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/fault"
	"github.com/muurk/netmgr/internal/logging"
)

// Syncer synchronizes the clock. Failures are returned as fault.KindSync.
type Syncer interface {
	Sync(ctx context.Context) error
}

// queryFunc matches ntp.QueryWithOptions
type queryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTP queries one server and optionally steps the system clock.
type NTP struct {
	server  string
	timeout time.Duration
	setTime bool

	query    queryFunc
	setClock func(time.Time) error
	now      func() time.Time
	logger   *zap.Logger
}

// NewNTP creates an NTP syncer from settings.
func NewNTP(prefs *config.TimeSyncPrefs) *NTP {
	timeout := prefs.Timeout
	if timeout <= 0 {
		timeout = config.DefaultNTPTimeout
	}
	server := prefs.Server
	if server == "" {
		server = config.DefaultNTPServer
	}
	return &NTP{
		server:   server,
		timeout:  timeout,
		setTime:  prefs.SetTime,
		query:    ntp.QueryWithOptions,
		setClock: setSystemClock,
		now:      time.Now,
		logger:   logging.Named("timesync"),
	}
}

// Server returns the configured time server
func (n *NTP) Server() string {
	return n.server
}

type queryResult struct {
	resp *ntp.Response
	err  error
}

// Sync queries the server, validates the reply and applies the offset.
func (n *NTP) Sync(ctx context.Context) error {
	// The ntp client has no context support; run it aside so cancellation
	// is honoured. The query is bounded by its own timeout.
	done := make(chan queryResult, 1)
	go func() {
		resp, err := n.query(n.server, ntp.QueryOptions{Timeout: n.timeout})
		done <- queryResult{resp: resp, err: err}
	}()

	var res queryResult
	select {
	case <-ctx.Done():
		return fault.NewSync("query cancelled", ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return fault.NewSync("query "+n.server+" failed", res.err)
	}
	if err := res.resp.Validate(); err != nil {
		return fault.NewSync("invalid response from "+n.server, err)
	}

	n.logger.Info("Time server responded",
		zap.String("server", n.server),
		zap.Duration("offset", res.resp.ClockOffset),
		zap.Duration("rtt", res.resp.RTT),
		zap.Uint8("stratum", res.resp.Stratum),
	)

	if !n.setTime {
		return nil
	}

	target := n.now().Add(res.resp.ClockOffset)
	if err := n.setClock(target); err != nil {
		return fault.NewSync("set system clock", err)
	}
	n.logger.Info("System clock stepped", zap.Time("time", target.UTC()))
	return nil
}
