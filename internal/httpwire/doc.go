// Package httpwire reads and writes the small subset of HTTP/1.1 the
// provisioning portal speaks.
//
// net/http is deliberately not used on the serving side: the portal handles
// exactly one request per connection, on the controller's goroutine, with a
// fixed memory budget and a lenient parsing policy (headers without a colon are
// skipped, a bad content-length means "no body").
//
// # Reading
//
//	req, err := httpwire.ReadRequest(bufio.NewReader(conn))
//	switch {
//	case fault.IsClosed(err):
//	    // peer connected and left; nothing to answer
//	case fault.IsMalformed(err):
//	    // drop the connection without a response
//	}
//
// # Writing
//
//	httpwire.WriteResponse(conn, httpwire.Redirect(303, "/"))
//
// produces:
//
//	HTTP/1.1 303 See Other\r\n
//	Location: /\r\n
//	Connection: close\r\n
//	\r\n
//
// # Forms
//
// ParseForm and Unescape decode urlencoded bodies. A malformed '%' escape is
// passed through literally rather than rejecting the request.
package httpwire
