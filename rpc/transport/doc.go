// Package transport defines the interfaces and abstractions for IPC communication
// between a client process and the vmIPC server.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Enabling multiple socket implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     accept connections and pass the request bytes to a handler.
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     send a request and wait for the response.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
// Every connection carries exactly one request and one response: the server reads
// once, answers and closes the connection.
package transport
