// Package cmd implements the command-line interface of vmIPC. It provides a
// hierarchical command structure for running the server and for accessing the
// memory of a served machine as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Command for starting and configuring the vmIPC server
//   - mem: Commands for memory operations (read8..read64, write8..write64, batch, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See vmipc -help for a list of all commands.
package cmd
