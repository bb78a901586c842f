// Netmgr is the connectivity manager for a battery-powered sensor appliance.
//
// It owns the wireless interface, alternating between a duty-cycled station
// connection and an access point that serves a credential-entry portal when
// provisioning is requested.
//
// Usage:
//
//	netmgr run                 # start the manager (normally under systemd)
//	netmgr status              # show the running manager's status
//	netmgr provision           # ask the running manager to enter provisioning
//
// See 'netmgr --help' for all commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/logging"
	"github.com/muurk/netmgr/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every command
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	apiAddr    string
}

// loadSettings reads the settings file named by --config (or the default path)
func (o *options) loadSettings() (*config.Settings, error) {
	s, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// controlAddr is the control API address: --api, then the settings file
func (o *options) controlAddr() (string, error) {
	if o.apiAddr != "" {
		return o.apiAddr, nil
	}
	s, err := o.loadSettings()
	if err != nil {
		return "", err
	}
	if s.Control.Addr == "" {
		return "", fmt.Errorf("control API is disabled in the settings file; pass --api")
	}
	return s.Control.Addr, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "netmgr",
		Short: "Sensor appliance connectivity manager",
		Long: `Netmgr owns the device's wireless interface.

In normal operation it joins the configured network for a short window,
synchronizes the clock and powers the radio down again. When provisioning
is requested (button, control API or 'netmgr provision') it starts an
access point and serves a setup page where new credentials can be entered.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Initialize(opts.logLevel, opts.logFormat)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Settings file (default: $NETMGR_CONFIG_DIR/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); empty uses $"+logging.LogLevelEnvVar)
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "Log encoding (console, json)")
	root.PersistentFlags().StringVar(&opts.apiAddr, "api", "", "Control API address (default from settings)")

	root.AddCommand(
		newRunCmd(opts),
		newStatusCmd(opts),
		newWatchCmd(opts),
		newProvisionCmd(opts),
		newScanCmd(),
		newCredsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "netmgr %s (commit: %s)\n", version.Version, version.Commit)
		},
	}
}
