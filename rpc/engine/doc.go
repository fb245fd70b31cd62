// Package engine implements the protocol engine of the vmIPC server: it decodes a
// request buffer into memory commands, validates every command against the buffer
// limits, executes it on a vm.IMemory and encodes the results into a reusable
// response buffer.
//
// Request format:
//
//	single command: [opcode:1][address:4][value:N for writes]
//	batch:          [0xFF][count:2] followed by count single commands
//
// Response format:
//
//	[status:1][results...]   status 0x00 = OK, 0xFF = FAIL
//
// Only read commands contribute to the results, in request order. A FAIL response is
// exactly one byte long; the engine never reports which command failed or why on the
// wire. Execute returns the reason as an error for logging and metrics.
//
// Batches are not atomic: writes executed before a failing command of the same
// batch are not rolled back.
//
// The response buffer is allocated once in NewEngine and reused for every request,
// so an Engine must not be shared between goroutines.
package engine
