// Package credentials persists the network name and passphrase the station
// connects with.
//
// The record is a two-key YAML file so it can be hand-edited, or deleted to
// factory-reset the device:
//
//	# netmgr network credentials
//	ssid: Home
//	password: secret1
//
// Load never fails; Save replaces the whole file atomically and is durable
// before it returns.
package credentials
