// Package statusfeed exposes the controller's status and the provisioning
// request over a loopback HTTP API, and provides the client the CLI uses.
//
// The API never touches the radio. Provisioning endpoints only submit
// intents to the arbiter; the controller commits them on its next poll, so
// the committed flag in a reply may lag the request by one tick.
package statusfeed
