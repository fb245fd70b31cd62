// Package unix implements the transport layer of vmIPC using Unix domain sockets.
// It is the default transport, intended for debuggers and tools running on the same
// machine as the virtual machine.
//
// This package extends the base transport layer with Unix socket-specific connectors
// while inheriting the connection handling from the base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Removes a stale socket file, then creates the Unix socket listener
package unix
