// Package config provides settings management for netmgr.
//
// Settings live in a YAML file. Every field has a compiled-in default, so
// the file only needs to hold overrides; a missing file means "all
// defaults". CLI flags override the file.
//
// # File Location
//
//   - $NETMGR_CONFIG_DIR/config.yaml when the variable is set
//   - /etc/netmgr/config.yaml when running as root
//   - $XDG_CONFIG_HOME/netmgr/config.yaml or $HOME/.config/netmgr/config.yaml
//
// # Example
//
//	version: 1
//	station:
//	  connect_timeout: 30s
//	  on_dwell: 10s
//	  off_dwell: 50s
//	access_point:
//	  ssid: CO2Monitor-Setup
//	  passphrase: "12345678"
//	  auto_disable: 2m
//
// # Security
//
// The network passphrase is NOT stored here. It lives in the separate
// credential record managed by the credentials package.
package config
