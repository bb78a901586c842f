// Package logging provides structured logging for netmgr.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used by the controller and the provisioning portal.
//
// # Log Levels
//
//   - Debug: raw request bytes, poll ticks, intent bookkeeping
//   - Info: state transitions, connections, portal requests
//   - Warn: lenient fallbacks (AP activation failure, dropped intents)
//   - Error: failed saves, radio errors
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// With an empty level the NETMGR_LOG_LEVEL environment variable is used; if
// that is also empty, logging is silent.
//
// # Specialized Logging
//
//	logging.LogConnection(remoteAddr, "connection_accepted")
//	logging.LogHTTPRequest(remoteAddr, "POST", "/save", headers)
//	logging.LogHTTPResponse(remoteAddr, 303, headers)
//	logging.LogTransition("AttemptingStation", "StationConnected")
//
// All functions are safe for concurrent use.
package logging
