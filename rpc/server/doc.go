// Package server implements the vmIPC server. It connects a server transport
// (unix or tcp socket) to the protocol engine that executes memory commands against
// a virtual machine.
//
// Key Components:
//
//   - NewIPCServer: Factory function creating a server for a config, a transport
//     and a vm.IMachine.
//
//   - IPCServer.Serve: Initializes the loggers, optionally starts the metrics
//     endpoint and blocks while the transport serves connections.
//
//   - IPCServer.Close: Closes the listener of the transport, which is the only way
//     to stop a running server.
//
// Metrics:
//
// If ServerConfig.MetricsEndpoint is set, the server exposes the following metrics
// in the prometheus text format on http://<endpoint>/metrics:
//
//	vmipc_requests_total{status="ok|fail"}
//	vmipc_commands_total{op="read8|...|write64"}
//	vmipc_request_failures_total{reason="..."}
//	vmipc_request_duration_seconds
//
// Thread Safety:
//
//	Requests are handled one after another by the goroutine calling Serve, the
//	engine and its buffers are never shared. Close may be called from any goroutine.
package server
