// Package rpc provides the inter-process communication layer of vmIPC. It lets
// debuggers, cheat tools and test harnesses read and write the memory of a running
// virtual machine through a compact binary protocol.
//
// The package is organized into several subpackages:
//
//   - common: Wire protocol definitions (opcodes, status codes, command layout),
//     configuration structures and logging.
//
//   - engine: The protocol engine that decodes a request, executes its memory
//     commands and encodes the response into a preallocated buffer.
//
//   - transport: Socket abstractions with unix and tcp implementations. The server
//     side serves one connection at a time with exactly one request per connection.
//
//   - server: The IPC server wiring a transport to the engine, including metrics.
//
//   - client: Batch builder, response decoding and a client for remote memory access.
package rpc
