package credentials

import (
	"fmt"
	"strings"

	"github.com/muurk/netmgr/internal/fault"
)

// MaxNetworkNameLength is the 802.11 SSID limit in bytes
const MaxNetworkNameLength = 32

// Messages shown to the person entering credentials
const (
	MsgNameRequired = "SSID is required."
	MsgNameTooLong  = "SSID is too long."
)

// Normalize trims surrounding whitespace from the network name.
// The passphrase is kept verbatim.
func Normalize(c Credentials) Credentials {
	c.NetworkName = strings.TrimSpace(c.NetworkName)
	return c
}

// Validate checks a normalized record. Failures are fault.KindValidation
// with a message suitable for display.
func Validate(c Credentials) error {
	if c.NetworkName == "" {
		return fault.NewValidation(MsgNameRequired)
	}
	if len(c.NetworkName) > MaxNetworkNameLength {
		e := fault.NewValidation(MsgNameTooLong)
		e.Err = fmt.Errorf("%d bytes, max %d", len(c.NetworkName), MaxNetworkNameLength)
		return e
	}
	return nil
}
