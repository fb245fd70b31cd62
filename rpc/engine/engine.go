package engine

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/vmIPC/lib/vm"
	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("engine")

// Reasons for a FAIL response. They are never sent to the client, the wire only
// carries common.StatusFail. Use errors.Is to match them.
var (
	ErrNoSession        = errors.New("no active session")
	ErrEmptyRequest     = errors.New("empty request")
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrRequestOverflow  = errors.New("command exceeds request buffer")
	ErrResponseOverflow = errors.New("result exceeds response buffer")
)

// Config holds the buffer limits of an Engine
type Config struct {
	MaxRequestSize  int
	MaxResponseSize int
}

// Engine decodes IPC requests, executes them against the memory of a virtual
// machine and encodes the response into a preallocated buffer.
//
// Thread-safety: an Engine owns a single response buffer and must only be used by one
// goroutine at a time.
type Engine struct {
	memory  vm.IMemory
	session vm.ISession

	maxRequestSize int
	resp           []byte
}

// NewEngine creates an engine for the given memory and session.
// Sizes smaller than the protocol minimum are replaced by the defaults.
func NewEngine(memory vm.IMemory, session vm.ISession, config Config) *Engine {
	if config.MaxRequestSize < 1 {
		config.MaxRequestSize = common.DefaultMaxRequestSize
	}
	if config.MaxResponseSize < 1 {
		config.MaxResponseSize = common.DefaultMaxResponseSize
	}

	Logger.Debugf("allocated buffers: request limit %d bytes, response %d bytes",
		config.MaxRequestSize, config.MaxResponseSize)

	return &Engine{
		memory:         memory,
		session:        session,
		maxRequestSize: config.MaxRequestSize,
		resp:           make([]byte, config.MaxResponseSize),
	}
}

// Decode executes the request and returns the encoded response.
// The response is either a single StatusFail byte or StatusOK followed by the
// little endian results of all read commands in request order.
//
// The returned slice aliases the engine's response buffer and is only valid until
// the next call to Decode or Execute.
func (e *Engine) Decode(req []byte) []byte {
	resp, _ := e.Execute(req)
	return resp
}

// Execute behaves like Decode but additionally returns the reason of a FAIL response.
// The response bytes are identical to the ones returned by Decode.
//
// Commands are executed in order and are not rolled back: if a later command of a batch
// fails, writes of earlier commands stay applied even though the response is FAIL.
func (e *Engine) Execute(req []byte) ([]byte, error) {
	// every command needs a running machine, so check only once per request
	if !e.session.HasActiveSession() {
		return e.fail(ErrNoSession)
	}

	// bytes past the buffer limit are never looked at
	if len(req) > e.maxRequestSize {
		req = req[:e.maxRequestSize]
	}
	if len(req) == 0 {
		return e.fail(ErrEmptyRequest)
	}

	batch := 1
	reqPos := 0 // read cursor into the request
	respPos := 1 // write cursor into the response, byte 0 is the status

	if common.Opcode(req[0]) == common.MsgMultiCommand {
		if len(req) < common.BatchHeaderSize {
			return e.fail(fmt.Errorf("%w: batch header", ErrRequestOverflow))
		}
		batch = int(binary.LittleEndian.Uint16(req[1:common.BatchHeaderSize]))
		reqPos = common.BatchHeaderSize
	}

	for i := 0; i < batch; i++ {
		if reqPos >= len(req) {
			return e.fail(fmt.Errorf("%w: command %d/%d missing", ErrRequestOverflow, i+1, batch))
		}

		op := common.Opcode(req[reqPos])
		info, ok := op.Info()
		if !ok {
			return e.fail(fmt.Errorf("%w 0x%02x at offset %d", ErrUnknownOpcode, uint8(op), reqPos))
		}

		if reqPos+info.RequestLen > len(req) {
			return e.fail(fmt.Errorf("%w: %s at offset %d needs %d bytes", ErrRequestOverflow, op, reqPos, info.RequestLen))
		}
		if respPos+info.ResultLen > len(e.resp) {
			return e.fail(fmt.Errorf("%w: %s (command %d/%d)", ErrResponseOverflow, op, i+1, batch))
		}

		cmd := req[reqPos : reqPos+info.RequestLen]
		e.execute(op, cmd, e.resp[respPos:respPos+info.ResultLen])

		reqPos += info.RequestLen
		respPos += info.ResultLen
	}

	e.resp[0] = byte(common.StatusOK)
	return e.resp[:respPos], nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// execute runs a single, already validated command. cmd holds the complete encoded
// command (opcode, address, value) and out exactly the result width of the command.
func (e *Engine) execute(op common.Opcode, cmd []byte, out []byte) {
	addr := binary.LittleEndian.Uint32(cmd[1 : 1+common.AddressSize])
	value := cmd[1+common.AddressSize:]

	switch op {
	case common.MsgRead8:
		out[0] = e.memory.Read8(addr)
	case common.MsgRead16:
		binary.LittleEndian.PutUint16(out, e.memory.Read16(addr))
	case common.MsgRead32:
		binary.LittleEndian.PutUint32(out, e.memory.Read32(addr))
	case common.MsgRead64:
		binary.LittleEndian.PutUint64(out, e.memory.Read64(addr))
	case common.MsgWrite8:
		e.memory.Write8(addr, value[0])
	case common.MsgWrite16:
		e.memory.Write16(addr, binary.LittleEndian.Uint16(value))
	case common.MsgWrite32:
		e.memory.Write32(addr, binary.LittleEndian.Uint32(value))
	case common.MsgWrite64:
		e.memory.Write64(addr, binary.LittleEndian.Uint64(value))
	}
}

// fail resets the response to a single StatusFail byte
func (e *Engine) fail(reason error) ([]byte, error) {
	e.resp[0] = byte(common.StatusFail)
	return e.resp[:1], reason
}
