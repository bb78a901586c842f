package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/controller"
	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/diag"
	"github.com/muurk/netmgr/internal/discovery"
	"github.com/muurk/netmgr/internal/logging"
	"github.com/muurk/netmgr/internal/portal"
	"github.com/muurk/netmgr/internal/provision"
	"github.com/muurk/netmgr/internal/radio"
	"github.com/muurk/netmgr/internal/readiness"
	"github.com/muurk/netmgr/internal/restart"
	"github.com/muurk/netmgr/internal/status"
	"github.com/muurk/netmgr/internal/statusfeed"
	"github.com/muurk/netmgr/internal/timesync"
	"github.com/muurk/netmgr/internal/trigger"
	"github.com/muurk/netmgr/internal/version"
)

// runFlags override individual settings for one run
type runFlags struct {
	backend     string
	iface       string
	portalAddr  string
	controlAddr string
	serialPort  string
}

func newRunCmd(opts *options) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the connectivity manager",
		Long: `Run the connectivity manager in the foreground until SIGINT or SIGTERM.

The manager owns the wireless interface for its whole lifetime. Other
processes observe it through the control API (see 'netmgr status') and
request provisioning with 'netmgr provision'.`,
		Example: `  # Normal device start (settings from /etc/netmgr/config.yaml)
  netmgr run

  # Exercise the state machine without hardware
  netmgr run --backend sim --portal-addr 127.0.0.1:8080 --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			flags.apply(settings)

			d, err := newDaemon(settings)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&flags.backend, "backend", "", "Radio backend (nmcli, sim)")
	cmd.Flags().StringVar(&flags.iface, "interface", "", "Wireless interface")
	cmd.Flags().StringVar(&flags.portalAddr, "portal-addr", "", "Provisioning portal listen address")
	cmd.Flags().StringVar(&flags.controlAddr, "control-addr", "", "Control API listen address")
	cmd.Flags().StringVar(&flags.serialPort, "serial", "", "Serial diagnostics port (e.g., /dev/ttyS0)")
	return cmd
}

func (f runFlags) apply(s *config.Settings) {
	if f.backend != "" {
		s.Radio.Backend = f.backend
	}
	if f.iface != "" {
		s.Radio.Interface = f.iface
	}
	if f.portalAddr != "" {
		s.Portal.Addr = f.portalAddr
	}
	if f.controlAddr != "" {
		s.Control.Addr = f.controlAddr
	}
	if f.serialPort != "" {
		s.Diag.SerialPort = f.serialPort
	}
}

// daemon is the fully wired manager
type daemon struct {
	settings   *config.Settings
	arbiter    *provision.Arbiter
	status     *status.Store
	ready      *readiness.Event
	controller *controller.Controller
	feed       *statusfeed.Server // nil when the control API is disabled
	button     *trigger.Button    // nil when no button line is configured
	responder  *diag.Responder    // nil when no serial port is configured
}

// newDaemon builds every component from settings without starting anything
func newDaemon(s *config.Settings) (*daemon, error) {
	if s.Radio.Backend == radio.BackendNMCLI {
		if _, err := radio.CheckBinary("nmcli"); err != nil {
			return nil, err
		}
	}
	r, err := radio.New(s.Radio)
	if err != nil {
		return nil, err
	}

	credPath, err := s.CredentialsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate credentials: %w", err)
	}
	store := credentials.NewStore(credPath)

	restarter, err := restart.New(s.Restart)
	if err != nil {
		return nil, err
	}

	var syncer timesync.Syncer
	if s.TimeSync.Enabled {
		syncer = timesync.NewNTP(s.TimeSync)
	}

	d := &daemon{
		settings: s,
		arbiter:  provision.NewArbiter(s.AccessPoint.AutoDisable),
		status:   status.NewStore(),
		ready:    readiness.New(),
	}

	portalOpts := []portal.Option{
		portal.WithAcceptPoll(s.Portal.FlagPoll),
		portal.WithReadTimeout(s.Portal.ReadTimeout),
	}
	if s.Portal.Advertise {
		port, err := listenPort(s.Portal.Addr)
		if err != nil {
			return nil, err
		}
		instance := s.Portal.MDNSInstance
		if instance == "" {
			instance = s.AccessPoint.SSID
		}
		portalOpts = append(portalOpts, portal.WithAnnouncer(discovery.NewAdvertiser(instance, port, version.Short())))
	}

	d.controller = controller.New(controller.Config{
		Radio:        r,
		Credentials:  store,
		Arbiter:      d.arbiter,
		Portal:       portal.New(s.Portal.Addr, store, d.arbiter, portalOpts...),
		Syncer:       syncer,
		Restarter:    restarter,
		Status:       d.status,
		Ready:        d.ready,
		Timing:       controller.TimingFrom(s),
		APSSID:       s.AccessPoint.SSID,
		APPassphrase: s.AccessPoint.Passphrase,
	})

	if s.Control.Addr != "" {
		d.feed = statusfeed.New(s.Control.Addr, d.status, d.arbiter, d.ready)
	}
	if s.Button.Line >= 0 {
		d.button = trigger.NewButton(d.arbiter, s.Button.Debounce)
	}
	if s.Diag.SerialPort != "" {
		d.responder = diag.NewResponder(d.status, s.AccessPoint.SSID)
	}
	return d, nil
}

// Run starts the side services and runs the controller until ctx is done.
// Side-service failures are logged; only the controller ends the run.
func (d *daemon) Run(ctx context.Context) error {
	logging.Info("Starting netmgr",
		zap.String("version", version.Full()),
		zap.String("backend", d.settings.Radio.Backend),
		zap.String("interface", d.settings.Radio.Interface),
	)

	g, ctx := errgroup.WithContext(ctx)
	sideCtx, stopSide := context.WithCancel(ctx)
	defer stopSide()

	if d.feed != nil {
		g.Go(func() error {
			side("control API", d.feed.Run(sideCtx))
			return nil
		})
	}
	if d.button != nil {
		g.Go(func() error {
			side("button", trigger.Watch(sideCtx, d.settings.Button.Chip, d.settings.Button.Line, d.button))
			return nil
		})
	}
	if d.responder != nil {
		g.Go(func() error {
			side("serial diagnostics", diag.Run(sideCtx, d.settings.Diag.SerialPort, d.settings.Diag.Baud, d.responder))
			return nil
		})
	}

	g.Go(func() error {
		defer stopSide()
		return d.controller.Run(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logging.Info("netmgr stopped")
	return err
}

func side(name string, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("Service stopped", zap.String("service", name), zap.Error(err))
	}
}

// listenPort extracts the numeric port from a listen address
func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid portal address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid portal port %q: %w", p, err)
	}
	return port, nil
}
