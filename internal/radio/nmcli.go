package radio

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/fault"
	"github.com/muurk/netmgr/internal/logging"
)

// apConnectionName is the NetworkManager profile used for the hotspot
const apConnectionName = "netmgr-ap"

// nmStateConnected is NetworkManager's device state code for "activated"
const nmStateConnected = 100

// NMCLI drives a NetworkManager-managed interface through the nmcli tool.
type NMCLI struct {
	iface  string
	runner Runner
	logger *zap.Logger
}

// NewNMCLI creates an nmcli backend for iface. A nil runner uses ExecRunner.
func NewNMCLI(iface string, runner Runner) *NMCLI {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &NMCLI{
		iface:  iface,
		runner: runner,
		logger: logging.Named("radio.nmcli"),
	}
}

func (n *NMCLI) run(ctx context.Context, op string, args ...string) (Result, error) {
	res, err := n.runner.Run(ctx, "nmcli", args...)
	if err != nil {
		return res, fault.NewRadio(op, err)
	}
	return res, nil
}

// Activate turns the Wi-Fi radio on
func (n *NMCLI) Activate(ctx context.Context) error {
	_, err := n.run(ctx, "radio.activate", "radio", "wifi", "on")
	return err
}

// Connect starts an association without waiting for it to complete.
func (n *NMCLI) Connect(ctx context.Context, creds credentials.Credentials) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", creds.NetworkName}
	if creds.Passphrase != "" {
		args = append(args, "password", creds.Passphrase)
	}
	args = append(args, "ifname", n.iface)

	n.logger.Debug("Requesting station association",
		zap.String("interface", n.iface),
		zap.String("network", creds.NetworkName),
	)
	_, err := n.run(ctx, "radio.connect", args...)
	return err
}

// Connected reports whether the interface reached the activated state.
func (n *NMCLI) Connected(ctx context.Context) (bool, error) {
	res, err := n.run(ctx, "radio.connected", "-t", "-f", "GENERAL.STATE", "device", "show", n.iface)
	if err != nil {
		return false, err
	}
	code, ok := parseDeviceState(res.Stdout)
	return ok && code == nmStateConnected, nil
}

// IP returns the first IPv4 address assigned to the interface.
func (n *NMCLI) IP(ctx context.Context) (string, error) {
	res, err := n.run(ctx, "radio.ip", "-t", "-f", "IP4.ADDRESS", "device", "show", n.iface)
	if err != nil {
		return "", err
	}
	return parseIPv4(res.Stdout), nil
}

// Disconnect drops the station association
func (n *NMCLI) Disconnect(ctx context.Context) error {
	_, err := n.run(ctx, "radio.disconnect", "device", "disconnect", n.iface)
	return err
}

// Deactivate turns the Wi-Fi radio off
func (n *NMCLI) Deactivate(ctx context.Context) error {
	_, err := n.run(ctx, "radio.deactivate", "radio", "wifi", "off")
	return err
}

// StartAP brings up a WPA2 hotspot on the interface.
func (n *NMCLI) StartAP(ctx context.Context, ssid, passphrase string) error {
	if _, err := n.run(ctx, "radio.ap_start", "radio", "wifi", "on"); err != nil {
		return err
	}
	_, err := n.run(ctx, "radio.ap_start",
		"device", "wifi", "hotspot",
		"ifname", n.iface,
		"con-name", apConnectionName,
		"ssid", ssid,
		"password", passphrase,
	)
	return err
}

// StopAP deactivates the hotspot profile and powers the radio off.
func (n *NMCLI) StopAP(ctx context.Context) error {
	if _, err := n.run(ctx, "radio.ap_stop", "connection", "down", apConnectionName); err != nil {
		return err
	}
	_, err := n.run(ctx, "radio.ap_stop", "radio", "wifi", "off")
	return err
}

// parseDeviceState extracts the numeric code from terse output such as
// "GENERAL.STATE:100 (connected)".
func parseDeviceState(out string) (int, bool) {
	for _, line := range strings.Split(out, "\n") {
		value, ok := strings.CutPrefix(strings.TrimSpace(line), "GENERAL.STATE:")
		if !ok {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return 0, false
		}
		code, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, false
		}
		return code, true
	}
	return 0, false
}

// parseIPv4 extracts the first address from lines like
// "IP4.ADDRESS[1]:192.168.1.50/24".
func parseIPv4(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "IP4.ADDRESS") {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok || value == "" {
			continue
		}
		addr, _, _ := strings.Cut(value, "/")
		return addr
	}
	return ""
}
