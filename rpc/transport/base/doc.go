// Package base provides the foundation for the vmIPC transport layers, implementing
// the connection handling independent of the specific socket type (TCP, Unix sockets).
// It is extended with protocol-specific connectors.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different socket types.
//
//   - serverTransport: Accepts connections one at a time on the calling goroutine.
//     Each connection gets a deadline, a single read into a buffer that is allocated
//     once, one call of the handler and one write of the response. The connection
//     is closed afterwards. Accept errors that are known to be temporary (timeouts,
//     aborted connections, interrupted calls, exhausted descriptors) are skipped,
//     every other error stops the loop.
//
//   - clientTransport: Dials a fresh connection per request, writes it and reads the
//     response until the server closes the connection. Attempts that fail before any
//     byte of the request was written are retried with exponential backoff. Later
//     failures are returned at once, so a request is never executed twice.
//
// Thread Safety:
//
//	The server transport must be driven by a single goroutine calling Listen, Close
//	may be called from any goroutine. The client transport holds no connection state
//	and may be shared.
package base
