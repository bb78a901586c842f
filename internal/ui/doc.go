// Package ui renders netmgr's terminal output.
//
// Two patterns are provided. One-shot commands such as "netmgr status" use a
// Printer to write styled header, status and result boxes and exit. The
// "netmgr watch" command runs a Bubble Tea program (WatchModel) that redraws
// the status panel every time the control API pushes a snapshot.
//
// Logging is controlled via the NETMGR_LOG_LEVEL environment variable. When
// it is unset, zap logging is silent so the styled output is not interleaved
// with log lines.
package ui
