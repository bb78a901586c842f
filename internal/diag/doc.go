// Package diag answers a line-based query protocol on a serial port so a
// technician or a companion microcontroller can inspect connectivity
// without a network.
//
// Requests and replies are ASCII lines terminated by CRLF:
//
//	> WIFI_STATUS?
//	< WiFi connected | 192.168.1.50
package diag
