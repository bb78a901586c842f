package diag

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/netmgr/internal/status"
)

// StatusSource provides the snapshot queries are answered from
type StatusSource interface {
	Snapshot() status.Status
}

// Responder answers one request line at a time.
//
//	PING          -> PONG
//	WIFI_STATUS?  -> WiFi connected | <ip>, WiFi connecting..., WiFi is NOT connected
//	AP_STATUS?    -> AP enabled | <ssid>, AP requested, AP disabled
//	TIME?         -> TIME:<year>,<month>,<day>,<weekday>,<hour>,<min>,<sec>,<yearday>
//	(empty)       -> ERR empty
//	anything else -> ECHO <line>
type Responder struct {
	status StatusSource
	apSSID string
	now    func() time.Time
}

// NewResponder creates a responder. apSSID is reported by AP_STATUS?.
func NewResponder(src StatusSource, apSSID string) *Responder {
	return &Responder{status: src, apSSID: apSSID, now: time.Now}
}

// Respond returns the reply for one request line, without the terminator.
func (r *Responder) Respond(line string) string {
	req := strings.TrimSpace(line)
	if req == "" {
		return "ERR empty"
	}

	switch req {
	case "PING":
		return "PONG"

	case "WIFI_STATUS?":
		s := r.status.Snapshot()
		switch {
		case s.Connected:
			return "WiFi connected | " + s.IP
		case s.Connecting:
			return "WiFi connecting..."
		default:
			return "WiFi is NOT connected"
		}

	case "AP_STATUS?":
		s := r.status.Snapshot()
		switch {
		case s.APActive:
			return "AP enabled | " + r.apSSID
		case s.ProvisionRequested:
			return "AP requested"
		default:
			return "AP disabled"
		}

	case "TIME?":
		if !r.status.Snapshot().TimeSynced {
			return "NTP was not synchronized"
		}
		t := r.now().UTC()
		// Weekday counts from Monday = 0
		weekday := (int(t.Weekday()) + 6) % 7
		return fmt.Sprintf("TIME:%d,%d,%d,%d,%d,%d,%d,%d",
			t.Year(), int(t.Month()), t.Day(), weekday,
			t.Hour(), t.Minute(), t.Second(), t.YearDay())

	default:
		return "ECHO " + req
	}
}
