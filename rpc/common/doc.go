// Package common provides core data structures and utilities shared across
// the vmIPC server, client and command line tools.
//
// The package focuses on:
//   - Definition of the wire protocol (opcodes, status codes, command layout)
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger facade
//
// Key Components:
//
//   - Opcode: Enumeration of all commands understood by the protocol engine.
//     Opcode.Info returns the fixed encoded length and result width of a command.
//
//   - Status: The first byte of every response (StatusOK or StatusFail).
//
//   - ServerConfig: Configuration of the IPC server, including the endpoint,
//     receive timeout and the sizes of the preallocated request and response buffers.
//
//   - ClientConfig: Configuration for client components, controlling the endpoint,
//     timeouts and retry behavior.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
