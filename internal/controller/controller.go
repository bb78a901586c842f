package controller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/fault"
	"github.com/muurk/netmgr/internal/logging"
	"github.com/muurk/netmgr/internal/portal"
	"github.com/muurk/netmgr/internal/provision"
	"github.com/muurk/netmgr/internal/radio"
	"github.com/muurk/netmgr/internal/readiness"
	"github.com/muurk/netmgr/internal/restart"
	"github.com/muurk/netmgr/internal/status"
	"github.com/muurk/netmgr/internal/timesync"
)

// cleanupTimeout bounds radio calls made while shutting down
const cleanupTimeout = 5 * time.Second

// Outcomes recorded in Status.LastOutcome
const (
	OutcomeConnected      = "connected"
	OutcomeConnectTimeout = "connect_timeout"
	OutcomeConnectAborted = "connect_aborted"
	OutcomeRadioError     = "radio_error"
	OutcomeSaved          = "saved"
	OutcomeRestartFailed  = "restart_failed"
	OutcomePortalError    = "portal_error"
)

// CredentialSource supplies the credentials for each connect attempt
type CredentialSource interface {
	Load() credentials.Credentials
}

// Portal serves the provisioning page until stop reports true
type Portal interface {
	Serve(ctx context.Context, stop func() bool) (portal.Result, error)
}

// Timing holds every duration the state machine uses
type Timing struct {
	ConnectTimeout time.Duration // Deadline for one station attempt
	PollInterval   time.Duration // Connected-state poll during an attempt
	OnDwell        time.Duration // Time spent connected per cycle
	OffDwell       time.Duration // Time spent with the radio off per cycle
	FlagPoll       time.Duration // Provisioning flag poll while holding
	SettleDelay    time.Duration // Pause after the access point stops
}

// TimingFrom extracts the controller timing from settings
func TimingFrom(s *config.Settings) Timing {
	return Timing{
		ConnectTimeout: s.Station.ConnectTimeout,
		PollInterval:   s.Station.PollInterval,
		OnDwell:        s.Station.OnDwell,
		OffDwell:       s.Station.OffDwell,
		FlagPoll:       s.Portal.FlagPoll,
		SettleDelay:    s.AccessPoint.SettleDelay,
	}
}

// Config wires the controller's collaborators
type Config struct {
	Radio        radio.Radio
	Credentials  CredentialSource
	Arbiter      *provision.Arbiter
	Portal       Portal
	Syncer       timesync.Syncer // nil disables time synchronization
	Restarter    restart.Restarter
	Status       *status.Store // nil creates a new store
	Ready        *readiness.Event
	Timing       Timing
	APSSID       string
	APPassphrase string
}

// Controller is the radio mode state machine. Run owns the radio: no other
// goroutine may call the radio, write the status or poll the arbiter.
type Controller struct {
	radio     radio.Radio
	creds     CredentialSource
	arbiter   *provision.Arbiter
	portal    Portal
	syncer    timesync.Syncer
	restarter restart.Restarter
	status    *status.Store
	ready     *readiness.Event
	timing    Timing
	apSSID    string
	apPass    string

	state  status.State
	logger *zap.Logger
}

// New creates a controller. Missing timing values fall back to the defaults.
func New(cfg Config) *Controller {
	t := cfg.Timing
	setDefault(&t.ConnectTimeout, config.DefaultConnectTimeout)
	setDefault(&t.PollInterval, config.DefaultPollInterval)
	setDefault(&t.OnDwell, config.DefaultOnDwell)
	setDefault(&t.OffDwell, config.DefaultOffDwell)
	setDefault(&t.FlagPoll, config.DefaultFlagPoll)
	if t.SettleDelay < 0 {
		t.SettleDelay = 0
	}

	st := cfg.Status
	if st == nil {
		st = status.NewStore()
	}
	ready := cfg.Ready
	if ready == nil {
		ready = readiness.New()
	}
	ssid := cfg.APSSID
	if ssid == "" {
		ssid = config.DefaultAPSSID
	}
	pass := cfg.APPassphrase
	if pass == "" {
		pass = config.DefaultAPPassphrase
	}

	return &Controller{
		radio:     cfg.Radio,
		creds:     cfg.Credentials,
		arbiter:   cfg.Arbiter,
		portal:    cfg.Portal,
		syncer:    cfg.Syncer,
		restarter: cfg.Restarter,
		status:    st,
		ready:     ready,
		timing:    t,
		apSSID:    ssid,
		apPass:    pass,
		state:     status.StateIdle,
		logger:    logging.Named("controller"),
	}
}

func setDefault(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

// Ready returns the readiness event collaborators wait on
func (c *Controller) Ready() *readiness.Event {
	return c.ready
}

// Status returns the status store the controller publishes to
func (c *Controller) Status() *status.Store {
	return c.status
}

// Run drives the radio until ctx is cancelled and leaves it off.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("Controller started",
		zap.Duration("on_dwell", c.timing.OnDwell),
		zap.Duration("off_dwell", c.timing.OffDwell),
		zap.Duration("connect_timeout", c.timing.ConnectTimeout),
	)
	defer c.shutdown(ctx)

	for ctx.Err() == nil {
		c.ready.Clear()
		c.transition(status.StateIdle)

		if c.pollProvisioning() {
			if c.provisioningCycle(ctx) {
				// Restart is under way; wait to be stopped
				<-ctx.Done()
				break
			}
			continue
		}
		c.dutyCycle(ctx)
	}

	return nil
}

// pollProvisioning commits pending intents and mirrors the flag into status.
func (c *Controller) pollProvisioning() bool {
	requested := c.arbiter.Poll(time.Now())
	if c.status.Snapshot().ProvisionRequested != requested {
		c.status.Update(func(s *status.Status) { s.ProvisionRequested = requested })
	}
	return requested
}

func (c *Controller) transition(to status.State, fields ...zap.Field) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	logging.LogTransition(string(from), string(to), fields...)
	c.status.Update(func(s *status.Status) { s.State = to })
}

func (c *Controller) setOutcome(outcome string) {
	c.status.Update(func(s *status.Status) { s.LastOutcome = outcome })
}

// dutyCycle is one station on/off period.
func (c *Controller) dutyCycle(ctx context.Context) {
	err := c.connectStation(ctx)
	switch {
	case err == nil:
		c.ready.Set()
	case fault.IsConnectAborted(err):
		return
	case ctx.Err() != nil:
		return
	default:
		c.transition(status.StateStationFailed, zap.Error(err))
	}

	if c.hold(ctx, c.timing.OnDwell) {
		return
	}

	c.ready.Clear()
	c.stationOff(ctx)

	c.transition(status.StateOffDwell)
	c.hold(ctx, c.timing.OffDwell)
}

// provisioningCycle runs the access point and portal until the request
// clears, then tries the station once. It reports whether a restart was
// started.
func (c *Controller) provisioningCycle(ctx context.Context) bool {
	c.transition(status.StateEnteringAccessPoint)
	c.stationOff(ctx)
	c.startAP(ctx)

	c.transition(status.StateProvisioningActive)
	res, err := c.portal.Serve(ctx, func() bool { return !c.pollProvisioning() })
	if err != nil {
		c.logger.Error("Portal failed, waiting for the provisioning request to clear", zap.Error(err))
		c.setOutcome(OutcomePortalError)
		c.status.Update(func(s *status.Status) { s.Mode = status.ModeOff })
		for ctx.Err() == nil && c.pollProvisioning() {
			sleep(ctx, c.timing.FlagPoll)
		}
	}

	c.transition(status.StateLeavingAccessPoint)
	c.stopAP(ctx)

	if ctx.Err() != nil {
		return false
	}

	if res.Saved {
		c.setOutcome(OutcomeSaved)
		c.transition(status.StateRestarting)
		c.logger.Warn("New credentials were saved, restarting")
		if err := c.restarter.Restart(ctx); err != nil {
			c.logger.Error("Restart failed, continuing with the new credentials", zap.Error(err))
			c.setOutcome(OutcomeRestartFailed)
			if ctx.Err() != nil {
				return false
			}
		} else {
			return true
		}
	}

	c.logger.Info("Leaving provisioning mode, trying station connect")
	err = c.connectStation(ctx)
	switch {
	case err == nil:
		c.ready.Set()
	case fault.IsConnectAborted(err), ctx.Err() != nil:
		return false
	default:
		c.transition(status.StateStationFailed, zap.Error(err))
	}

	c.hold(ctx, c.timing.OnDwell)
	return false
}

// connectStation makes one connection attempt with freshly loaded
// credentials. It polls every PollInterval until connected, aborted by a
// provisioning request, or past ConnectTimeout.
func (c *Controller) connectStation(ctx context.Context) error {
	creds := c.creds.Load()
	c.transition(status.StateAttemptingStation, zap.String("ssid", creds.NetworkName))
	c.status.Update(func(s *status.Status) {
		s.Mode = status.ModeStation
		s.Connecting = true
		s.Connected = false
		s.Network = creds.NetworkName
		s.IP = ""
	})

	if err := c.radio.Activate(ctx); err != nil {
		return c.failAttempt(ctx, OutcomeRadioError, err)
	}
	if err := c.radio.Connect(ctx, creds); err != nil {
		return c.failAttempt(ctx, OutcomeRadioError, err)
	}

	// time.Since reads the monotonic clock, so wall clock steps do not matter
	start := time.Now()
	for {
		connected, err := c.radio.Connected(ctx)
		if err != nil {
			c.logger.Debug("Connected-state query failed", zap.Error(err))
		}
		if connected {
			break
		}

		if c.pollProvisioning() {
			c.logger.Info("Provisioning requested during station connect, aborting")
			return c.failAttempt(ctx, OutcomeConnectAborted, fault.NewConnectAborted(creds.NetworkName))
		}
		if ctx.Err() != nil {
			return c.failAttempt(ctx, "", ctx.Err())
		}
		if time.Since(start) > c.timing.ConnectTimeout {
			c.logger.Error("Station connection timed out",
				zap.String("ssid", creds.NetworkName),
				zap.Duration("timeout", c.timing.ConnectTimeout),
			)
			return c.failAttempt(ctx, OutcomeConnectTimeout, fault.NewConnectTimeout(creds.NetworkName))
		}

		sleep(ctx, c.timing.PollInterval)
	}

	ip, err := c.radio.IP(ctx)
	if err != nil {
		c.logger.Debug("Address query failed", zap.Error(err))
	}
	c.status.Update(func(s *status.Status) {
		s.Connecting = false
		s.Connected = true
		s.IP = ip
		s.LastOutcome = OutcomeConnected
	})
	c.transition(status.StateStationConnected,
		zap.String("ssid", creds.NetworkName),
		zap.String("ip", ip),
		zap.Duration("elapsed", time.Since(start)),
	)

	c.syncTime(ctx)
	return nil
}

func (c *Controller) failAttempt(ctx context.Context, outcome string, err error) error {
	c.stationOff(ctx)
	if outcome != "" {
		c.setOutcome(outcome)
	}
	return err
}

func (c *Controller) syncTime(ctx context.Context) {
	if c.syncer == nil {
		return
	}
	err := c.syncer.Sync(ctx)
	if err != nil {
		c.logger.Warn("Time synchronization failed", zap.Error(err))
	} else {
		c.logger.Info("Time synchronized")
	}
	c.status.Update(func(s *status.Status) { s.TimeSynced = err == nil })
}

// stationOff disconnects and powers down station mode if it is in use.
func (c *Controller) stationOff(ctx context.Context) {
	snap := c.status.Snapshot()
	if snap.Mode != status.ModeStation && !snap.Connected && !snap.Connecting {
		return
	}

	cctx, cancel := cleanupContext(ctx)
	defer cancel()

	if err := c.radio.Disconnect(cctx); err != nil {
		c.logger.Warn("Station disconnect failed", zap.Error(err))
	}
	if err := c.radio.Deactivate(cctx); err != nil {
		c.logger.Warn("Station power-down failed", zap.Error(err))
	}
	c.status.Update(func(s *status.Status) {
		s.Mode = status.ModeOff
		s.Connected = false
		s.Connecting = false
		s.IP = ""
	})
	c.logger.Info("Station disconnected")
}

// startAP brings the access point up. A failure is recorded but the portal
// still runs so the request can clear and the cycle continue.
func (c *Controller) startAP(ctx context.Context) {
	err := c.radio.StartAP(ctx, c.apSSID, c.apPass)
	if err != nil {
		c.logger.Error("Access point start failed, serving portal anyway",
			zap.String("ssid", c.apSSID),
			zap.Error(err),
		)
	} else {
		c.logger.Info("Access point enabled", zap.String("ssid", c.apSSID))
	}
	c.status.Update(func(s *status.Status) {
		s.Mode = status.ModeAccessPoint
		s.APActive = err == nil
		s.APError = ""
		if err != nil {
			s.APError = err.Error()
		}
	})
}

func (c *Controller) stopAP(ctx context.Context) {
	cctx, cancel := cleanupContext(ctx)
	defer cancel()

	if err := c.radio.StopAP(cctx); err != nil {
		c.logger.Warn("Access point stop failed", zap.Error(err))
	}
	sleep(cctx, c.timing.SettleDelay)
	c.status.Update(func(s *status.Status) {
		s.Mode = status.ModeOff
		s.APActive = false
	})
	c.logger.Info("Access point disabled")
}

// hold waits up to d, returning true early when provisioning is requested
// or ctx ends.
func (c *Controller) hold(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if ctx.Err() != nil || c.pollProvisioning() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		sleep(ctx, min(c.timing.FlagPoll, remaining))
	}
}

func (c *Controller) shutdown(ctx context.Context) {
	c.ready.Clear()
	c.stationOff(ctx)
	if c.status.Snapshot().APActive {
		c.stopAP(ctx)
	}
	c.status.Update(func(s *status.Status) { s.Mode = status.ModeOff })
	c.logger.Info("Controller stopped, radio off")
}

// cleanupContext keeps radio cleanup working after ctx is cancelled
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
