package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/fault"
	"github.com/muurk/netmgr/internal/ui"
)

func newCredsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Inspect or replace the stored network credentials",
	}
	cmd.AddCommand(newCredsShowCmd(opts), newCredsSetCmd(opts))
	return cmd
}

func (o *options) credentialStore() (*credentials.Store, error) {
	s, err := o.loadSettings()
	if err != nil {
		return nil, err
	}
	path, err := s.CredentialsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate credentials: %w", err)
	}
	return credentials.NewStore(path), nil
}

func newCredsShowCmd(opts *options) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.credentialStore()
			if err != nil {
				return err
			}
			c := store.Load()

			p := ui.NewPrinter(cmd.OutOrStdout())
			if c.NetworkName == "" {
				p.PrintWarning("No credentials stored", ui.Param{Key: "File", Value: store.Path()})
				return nil
			}

			pass := maskPassphrase(c.Passphrase)
			if reveal {
				pass = c.Passphrase
			}
			p.PrintSuccess("Stored credentials",
				ui.Param{Key: "SSID", Value: c.NetworkName},
				ui.Param{Key: "Password", Value: pass},
				ui.Param{Key: "File", Value: store.Path()},
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the passphrase in clear text")
	return cmd
}

func newCredsSetCmd(opts *options) *cobra.Command {
	var (
		ssid string
		pass string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the stored credentials",
		Long: `Replace the stored credentials without going through the setup portal.

The running manager picks the new record up on its next station attempt.`,
		Example: `  netmgr creds set --ssid HomeNet --password 'secret pass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.credentialStore()
			if err != nil {
				return err
			}

			next := credentials.Normalize(credentials.Credentials{NetworkName: ssid, Passphrase: pass})
			if err := credentials.Validate(next); err != nil {
				return errors.New(fault.ShortMessage(err))
			}

			if current := store.Load(); current.NetworkName != "" && !yes {
				ok := ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Replace credentials",
					[]string{fmt.Sprintf("The stored network %q will be replaced by %q", current.NetworkName, next.NetworkName)},
					"Continue?")
				if !ok {
					return nil
				}
			}

			if err := store.Save(next); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Credentials saved",
				ui.Param{Key: "SSID", Value: next.NetworkName},
				ui.Param{Key: "File", Value: store.Path()},
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&ssid, "ssid", "", "Network name")
	cmd.Flags().StringVar(&pass, "password", "", "Network passphrase (empty for open networks)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Replace existing credentials without asking")
	_ = cmd.MarkFlagRequired("ssid")
	return cmd
}

// maskPassphrase keeps the length visible and hides the content
func maskPassphrase(p string) string {
	if p == "" {
		return "(none)"
	}
	return strings.Repeat("*", len(p))
}
