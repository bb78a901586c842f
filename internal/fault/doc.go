// Package fault defines the typed errors shared by every netmgr component.
//
// Each failure carries a Kind that maps onto the device's error taxonomy:
//
//   - KindMalformedRequest: bad HTTP request line or headers; the portal drops the connection
//   - KindValidation: a required form field is missing; answered with 400
//   - KindPersistence: the credential record could not be written; answered with 500
//   - KindConnectTimeout / KindConnectAborted: expected outcomes of a station attempt
//   - KindSync: clock synchronization failed; logged and ignored
//
// Nothing in netmgr treats these as fatal. Callers branch on them with the
// Is* helpers or errors.Is against the Err* sentinels:
//
//	if fault.IsValidation(err) {
//	    // re-render the form
//	}
package fault
