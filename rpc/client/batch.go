package client

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/vmIPC/rpc/common"
)

// ErrCommandFailed is returned when the server answered a request with FAIL.
// The server does not report which command failed, so this applies to the whole batch.
var ErrCommandFailed = errors.New("server rejected the request")

// command is a single encoded memory command of a batch
type command struct {
	op    common.Opcode
	addr  uint32
	value uint64
}

// Batch collects memory commands that are sent to the server in a single request.
// The server executes them in order and returns the results of all reads in the
// same order. A batch is not atomic: if a command fails, the writes before it
// have already been applied.
//
// Usage:
//
//	b := client.NewBatch().
//		Write32(0x1000, 0xDEADBEEF).
//		Read32(0x1000).
//		Read8(0x2000)
//
//	results, err := c.Exec(b) // results[0] = 0xDEADBEEF
type Batch struct {
	cmds  []command
	reads int
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{}
}

// --------------------------------------------------------------------------
// Builder Methods
// --------------------------------------------------------------------------

func (b *Batch) Read8(addr uint32) *Batch  { return b.Add(common.MsgRead8, addr, 0) }
func (b *Batch) Read16(addr uint32) *Batch { return b.Add(common.MsgRead16, addr, 0) }
func (b *Batch) Read32(addr uint32) *Batch { return b.Add(common.MsgRead32, addr, 0) }
func (b *Batch) Read64(addr uint32) *Batch { return b.Add(common.MsgRead64, addr, 0) }

func (b *Batch) Write8(addr uint32, value uint8) *Batch {
	return b.Add(common.MsgWrite8, addr, uint64(value))
}

func (b *Batch) Write16(addr uint32, value uint16) *Batch {
	return b.Add(common.MsgWrite16, addr, uint64(value))
}

func (b *Batch) Write32(addr uint32, value uint32) *Batch {
	return b.Add(common.MsgWrite32, addr, uint64(value))
}

func (b *Batch) Write64(addr uint32, value uint64) *Batch {
	return b.Add(common.MsgWrite64, addr, value)
}

// Add appends a command by opcode. Values wider than the command are truncated.
// Invalid opcodes are reported by Encode.
func (b *Batch) Add(op common.Opcode, addr uint32, value uint64) *Batch {
	b.cmds = append(b.cmds, command{op: op, addr: addr, value: value})
	if info, ok := op.Info(); ok && !info.Write {
		b.reads++
	}
	return b
}

// Len returns the number of commands in the batch
func (b *Batch) Len() int {
	return len(b.cmds)
}

// Reads returns the number of read commands, which is the number of results
func (b *Batch) Reads() int {
	return b.reads
}

// Reset removes all commands so the batch can be reused
func (b *Batch) Reset() {
	b.cmds = b.cmds[:0]
	b.reads = 0
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// RequestSize returns the number of bytes Encode produces
func (b *Batch) RequestSize() int {
	size := 0
	if len(b.cmds) > 1 {
		size = common.BatchHeaderSize
	}
	for _, c := range b.cmds {
		if info, ok := c.op.Info(); ok {
			size += info.RequestLen
		}
	}
	return size
}

// ResponseSize returns the number of bytes of a successful response
func (b *Batch) ResponseSize() int {
	size := 1
	for _, c := range b.cmds {
		if info, ok := c.op.Info(); ok {
			size += info.ResultLen
		}
	}
	return size
}

// Encode encodes the batch using the default request size limit of the server
func (b *Batch) Encode() ([]byte, error) {
	return b.EncodeLimit(common.DefaultMaxRequestSize)
}

// EncodeLimit encodes the batch into a request of at most limit bytes.
// A single command is sent as is, two or more are prefixed with a MultiCommand header.
func (b *Batch) EncodeLimit(limit int) ([]byte, error) {
	switch {
	case len(b.cmds) == 0:
		return nil, fmt.Errorf("empty batch")
	case len(b.cmds) > common.MaxBatchCount:
		return nil, fmt.Errorf("batch of %d commands exceeds the limit of %d", len(b.cmds), common.MaxBatchCount)
	}

	size := b.RequestSize()
	if limit > 0 && size > limit {
		return nil, fmt.Errorf("request of %d bytes exceeds the limit of %d bytes", size, limit)
	}

	buf := make([]byte, 0, size)
	if len(b.cmds) > 1 {
		buf = append(buf, byte(common.MsgMultiCommand))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(b.cmds)))
	}

	for i, c := range b.cmds {
		info, ok := c.op.Info()
		if !ok {
			return nil, fmt.Errorf("command %d: invalid opcode 0x%02x", i, uint8(c.op))
		}

		buf = append(buf, byte(c.op))
		buf = binary.LittleEndian.AppendUint32(buf, c.addr)
		if info.Write {
			buf = appendValue(buf, c.value, info.Width)
		}
	}
	return buf, nil
}

// DecodeResponse decodes the response to this batch into one value per read command
func (b *Batch) DecodeResponse(resp []byte) ([]uint64, error) {
	if len(resp) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	switch common.Status(resp[0]) {
	case common.StatusOK:
	case common.StatusFail:
		return nil, ErrCommandFailed
	default:
		return nil, fmt.Errorf("invalid response status 0x%02x", resp[0])
	}

	if expected := b.ResponseSize(); len(resp) != expected {
		return nil, fmt.Errorf("response has %d bytes, expected %d", len(resp), expected)
	}

	results := make([]uint64, 0, b.reads)
	pos := 1
	for _, c := range b.cmds {
		info, _ := c.op.Info()
		if info.Write {
			continue
		}
		results = append(results, readValue(resp[pos:pos+info.ResultLen]))
		pos += info.ResultLen
	}
	return results, nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// appendValue appends the lowest width bytes of value in little endian order
func appendValue(buf []byte, value uint64, width int) []byte {
	for i := 0; i < width; i++ {
		buf = append(buf, byte(value>>(8*i)))
	}
	return buf
}

// readValue reads a little endian value of 1 to 8 bytes
func readValue(buf []byte) uint64 {
	var v uint64
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}
