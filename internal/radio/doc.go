// Package radio abstracts the device's single wireless interface.
//
// Two backends exist:
//
//   - NMCLI drives NetworkManager through the nmcli command line tool
//   - Sim keeps all state in memory, for development hosts and tests
//
// Backends only perform individual operations. Sequencing, timeouts and the
// station/access-point exclusion are the controller's job.
package radio
