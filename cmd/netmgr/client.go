package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/netmgr/internal/discovery"
	"github.com/muurk/netmgr/internal/status"
	"github.com/muurk/netmgr/internal/statusfeed"
	"github.com/muurk/netmgr/internal/ui"
)

// requestTimeout bounds one-shot control API calls
const requestTimeout = 5 * time.Second

var apiTroubleshooting = []string{
	"Check that 'netmgr run' is active (systemctl status netmgr)",
	"Confirm control.addr in the settings file matches --api",
	"The control API only listens on the loopback interface by default",
}

func newStatusCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running manager's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := opts.controlAddr()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			s, err := statusfeed.NewClient(addr).Status(ctx)
			if err != nil {
				if !asJSON {
					ui.NewPrinter(cmd.OutOrStdout()).PrintError("Control API unreachable", err, apiTroubleshooting...)
				}
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			p := ui.NewPrinter(cmd.OutOrStdout())
			p.PrintHeader("Network Status", "netmgr status", ui.Param{Key: "Control API", Value: addr})
			p.PrintStatus(s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON snapshot")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow status changes live",
		Long: `Follow status changes over the control API stream.

On a terminal this opens a live status screen where 'p' requests
provisioning and 'c' cancels it. When output is not a terminal, one JSON
snapshot is printed per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := opts.controlAddr()
			if err != nil {
				return err
			}
			client := statusfeed.NewClient(addr)

			if ui.IsTerminal() {
				return ui.RunWatch(cmd.Context(), client)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return client.Stream(cmd.Context(), func(s status.Status) {
				_ = enc.Encode(s)
			})
		},
	}
}

func newProvisionCmd(opts *options) *cobra.Command {
	var cancelReq bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Request (or cancel) provisioning mode",
		Long: `Ask the running manager to start its access point and setup portal.

The request is committed by the manager on its next poll; the access point
comes up once the current station attempt or dwell ends. Requests expire
after access_point.auto_disable if no credentials are saved.`,
		Example: `  netmgr provision
  netmgr provision --cancel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := opts.controlAddr()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			client := statusfeed.NewClient(addr)
			var reply statusfeed.ProvisionReply
			if cancelReq {
				reply, err = client.CancelProvisioning(ctx)
			} else {
				reply, err = client.RequestProvisioning(ctx)
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			switch {
			case errors.Is(err, statusfeed.ErrQueueFull):
				p.PrintWarning("Request not queued", ui.Param{Key: "Reason", Value: "intent queue full, try again"})
				return err
			case err != nil:
				p.PrintError("Provisioning request failed", err, apiTroubleshooting...)
				return err
			}

			title := "Provisioning requested"
			if cancelReq {
				title = "Provisioning cancellation submitted"
			}
			p.PrintSuccess(title, ui.Param{Key: "Committed", Value: fmt.Sprintf("%t", reply.Requested)})
			return nil
		},
	}
	cmd.Flags().BoolVar(&cancelReq, "cancel", false, "Withdraw a pending provisioning request")
	return cmd
}

func newScanCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find provisioning portals advertised over mDNS",
		Long: `Browse mDNS for netmgr setup portals.

Join the appliance's access point first; the portal announces itself as an
_http._tcp service while provisioning is active.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := discovery.NewScanner()
			scanner.Timeout = timeout

			portals, err := scanner.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			p := ui.NewPrinter(cmd.OutOrStdout())
			if len(portals) == 0 {
				p.PrintWarning("No portals found",
					ui.Param{Key: "Timeout", Value: timeout.String()},
					ui.Param{Key: "Hint", Value: "join the appliance's setup network and retry"},
				)
				return nil
			}

			for _, portal := range portals {
				p.PrintSuccess(portal.Instance,
					ui.Param{Key: "URL", Value: portal.BaseURL()},
					ui.Param{Key: "Host", Value: portal.Hostname},
					ui.Param{Key: "Version", Value: portal.GetMetadata(discovery.MarkerKey)},
				)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for announcements")
	return cmd
}
