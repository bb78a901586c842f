package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/netmgr/internal/status"
)

// StatusDetails returns the status panel lines in display order
func StatusDetails(s status.Status) []Param {
	details := []Param{
		{Key: "State", Value: string(s.State)},
		{Key: "Network", Value: orDash(s.Network)},
		{Key: "IP", Value: orDash(s.IP)},
		{Key: "Time synced", Value: yesNo(s.TimeSynced)},
		{Key: "Provisioning", Value: provisioningLabel(s)},
	}
	if s.APError != "" {
		details = append(details, Param{Key: "AP error", Value: s.APError})
	}
	if s.LastOutcome != "" {
		details = append(details, Param{Key: "Last outcome", Value: s.LastOutcome})
	}
	if !s.UpdatedAt.IsZero() {
		details = append(details, Param{Key: "Updated", Value: s.UpdatedAt.Local().Format(time.TimeOnly)})
	}
	return details
}

// RenderStatus renders a bordered status panel
func RenderStatus(s status.Status, width int) string {
	width = clampWidth(width)

	lines := []string{"", "   " + ModeBadge(s), ""}
	for _, d := range StatusDetails(s) {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// ModeBadge renders the radio mode with its connection marker
func ModeBadge(s status.Status) string {
	switch s.Mode {
	case status.ModeStation:
		marker := IdleMarker
		label := "STATION"
		if s.Connected {
			marker = SuccessMarker
			label = "STATION  ─  connected"
		} else if s.Connecting {
			marker = ActiveMarker
			label = "STATION  ─  connecting"
		}
		return StationBadgeStyle.Render(marker + "  " + label)
	case status.ModeAccessPoint:
		if s.APActive {
			return AccessPointBadgeStyle.Render(ActiveMarker + "  ACCESS POINT  ─  provisioning")
		}
		return AccessPointBadgeStyle.Render(WarningMarker + "  ACCESS POINT  ─  not broadcasting")
	default:
		return OffBadgeStyle.Render(IdleMarker + "  RADIO OFF")
	}
}

func provisioningLabel(s status.Status) string {
	switch {
	case s.APActive:
		return "active"
	case s.ProvisionRequested:
		return "requested"
	default:
		return "off"
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
