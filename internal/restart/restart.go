// Package restart resets the device after new credentials are stored so the
// next boot connects with them.
package restart

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/config"
	"github.com/muurk/netmgr/internal/logging"
)

// ExitCode is the status Exit terminates with so a supervisor can tell a
// deliberate restart from a crash.
const ExitCode = 75

// Restarter performs the post-save restart. The caller has already closed
// the portal connection; implementations wait their grace delay first.
type Restarter interface {
	Restart(ctx context.Context) error
}

// Modes accepted by New
const (
	ModeCommand = "command"
	ModeExit    = "exit"
)

// New builds the restarter selected by settings.
func New(prefs *config.RestartPrefs) (Restarter, error) {
	switch prefs.Mode {
	case ModeCommand, "":
		if len(prefs.Command) == 0 {
			return nil, errors.New("restart command is empty")
		}
		return NewCommand(prefs.Command, prefs.Delay), nil
	case ModeExit:
		return NewExit(prefs.Delay), nil
	default:
		return nil, fmt.Errorf("unknown restart mode %q (want %q or %q)", prefs.Mode, ModeCommand, ModeExit)
	}
}

// wait sleeps for d or until ctx is done
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Command runs an external command such as "systemctl reboot".
type Command struct {
	argv  []string
	delay time.Duration
	run   func(ctx context.Context, argv []string) error
}

// NewCommand creates a command restarter
func NewCommand(argv []string, delay time.Duration) *Command {
	return &Command{argv: argv, delay: delay, run: runCommand}
}

func runCommand(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Restart waits the grace delay then runs the command.
func (c *Command) Restart(ctx context.Context) error {
	if err := wait(ctx, c.delay); err != nil {
		return err
	}
	logging.Info("Restarting device", zap.Strings("command", c.argv))
	if err := c.run(ctx, c.argv); err != nil {
		return fmt.Errorf("restart command failed: %w", err)
	}
	return nil
}

// Exit terminates the process with ExitCode.
type Exit struct {
	delay time.Duration
	exit  func(code int)
}

// NewExit creates an exit restarter
func NewExit(delay time.Duration) *Exit {
	return &Exit{delay: delay, exit: os.Exit}
}

// Restart waits the grace delay, flushes logs and exits.
func (e *Exit) Restart(ctx context.Context) error {
	if err := wait(ctx, e.delay); err != nil {
		return err
	}
	logging.Info("Exiting for supervisor restart", zap.Int("code", ExitCode))
	logging.Sync()
	e.exit(ExitCode)
	return nil
}
