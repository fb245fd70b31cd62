package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Wire Layout
// --------------------------------------------------------------------------

//	request:  [opcode:1]([count:2] if opcode == MultiCommand)
//	          followed by commands of the form [opcode:1][address:4][value:N]
//	response: [status:1][result bytes...]
//
// All multi-byte fields are little endian.

const (
	// AddressSize is the size of the address field of every command
	AddressSize = 4
	// BatchHeaderSize is the size of the MultiCommand header (opcode + count)
	BatchHeaderSize = 3
	// MaxBatchCount is the largest number of commands a single MultiCommand may carry
	MaxBatchCount = 0xFFFF
)

// Default buffer limits, both buffers are allocated once with these sizes.
const (
	DefaultMaxRequestSize  = 65536
	DefaultMaxResponseSize = 450000
)

// --------------------------------------------------------------------------
// Status Codes
// --------------------------------------------------------------------------

// Status is the first byte of every response
type Status uint8

const (
	StatusOK   Status = 0x00 // The whole request was executed
	StatusFail Status = 0xFF // The request was rejected, no result bytes follow
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFail:
		return "fail"
	default:
		return fmt.Sprintf("status(0x%02x)", uint8(s))
	}
}

// --------------------------------------------------------------------------
// Opcode Definition
// --------------------------------------------------------------------------

// Opcode identifies the operation of a single command.
type Opcode uint8

const (
	MsgRead8  Opcode = 0x00 // Read a 1 byte value
	MsgRead16 Opcode = 0x01 // Read a 2 byte value
	MsgRead32 Opcode = 0x02 // Read a 4 byte value
	MsgRead64 Opcode = 0x03 // Read a 8 byte value

	MsgWrite8  Opcode = 0x04 // Write a 1 byte value
	MsgWrite16 Opcode = 0x05 // Write a 2 byte value
	MsgWrite32 Opcode = 0x06 // Write a 4 byte value
	MsgWrite64 Opcode = 0x07 // Write a 8 byte value

	MsgMultiCommand Opcode = 0xFF // Batch header, followed by a 2 byte count
)

// CommandInfo describes the fixed encoding of a command
type CommandInfo struct {
	// RequestLen is the encoded length of the command (opcode + address + value)
	RequestLen int
	// ResultLen is the number of bytes the command adds to the response
	ResultLen int
	// Width is the size of the accessed value in bytes
	Width int
	// Write is true for commands that modify memory
	Write bool
}

// commandTable maps every memory command to its encoding.
// MsgMultiCommand is not part of the table, it is only valid as the first byte of a request.
var commandTable = [...]CommandInfo{
	MsgRead8:   {RequestLen: 5, ResultLen: 1, Width: 1},
	MsgRead16:  {RequestLen: 5, ResultLen: 2, Width: 2},
	MsgRead32:  {RequestLen: 5, ResultLen: 4, Width: 4},
	MsgRead64:  {RequestLen: 5, ResultLen: 8, Width: 8},
	MsgWrite8:  {RequestLen: 6, Width: 1, Write: true},
	MsgWrite16: {RequestLen: 7, Width: 2, Write: true},
	MsgWrite32: {RequestLen: 9, Width: 4, Write: true},
	MsgWrite64: {RequestLen: 13, Width: 8, Write: true},
}

// Info returns the encoding of a memory command.
// The boolean is false if the opcode is not a memory command.
func (o Opcode) Info() (CommandInfo, bool) {
	if int(o) >= len(commandTable) {
		return CommandInfo{}, false
	}
	return commandTable[o], true
}

// String returns the string representation of an Opcode.
func (o Opcode) String() string {
	switch o {
	case MsgRead8:
		return "read8"
	case MsgRead16:
		return "read16"
	case MsgRead32:
		return "read32"
	case MsgRead64:
		return "read64"
	case MsgWrite8:
		return "write8"
	case MsgWrite16:
		return "write16"
	case MsgWrite32:
		return "write32"
	case MsgWrite64:
		return "write64"
	case MsgMultiCommand:
		return "multi"
	default:
		return "unknown"
	}
}

// ParseOpcode converts the string representation back into an Opcode.
// Besides the names returned by String, the short forms r8..r64 and w8..w64 are accepted.
func ParseOpcode(s string) (Opcode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read8", "r8":
		return MsgRead8, nil
	case "read16", "r16":
		return MsgRead16, nil
	case "read32", "r32":
		return MsgRead32, nil
	case "read64", "r64":
		return MsgRead64, nil
	case "write8", "w8":
		return MsgWrite8, nil
	case "write16", "w16":
		return MsgWrite16, nil
	case "write32", "w32":
		return MsgWrite32, nil
	case "write64", "w64":
		return MsgWrite64, nil
	default:
		return 0, fmt.Errorf("unknown opcode: %s", s)
	}
}
