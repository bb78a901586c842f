package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/ui"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the settings file",
	}
	cmd.AddCommand(newConfigInitCmd(opts), newConfigShowCmd(opts))
	return cmd
}

// settingsPath resolves --config or the default location
func (o *options) settingsPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.GetConfigPath()
}

func newConfigInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file populated with the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.settingsPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Settings written", ui.Param{Key: "File", Value: path})
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings (file merged with defaults)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadSettings()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(s)
			if err != nil {
				return fmt.Errorf("failed to marshal settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
