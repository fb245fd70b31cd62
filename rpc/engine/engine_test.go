package engine

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/vmIPC/lib/vm"
	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var failResponse = []byte{byte(common.StatusFail)}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// newTestEngine returns an engine on a running machine with default buffer sizes
func newTestEngine(t *testing.T) (*Engine, *vm.Machine) {
	t.Helper()
	return newTestEngineWithConfig(t, Config{})
}

func newTestEngineWithConfig(t *testing.T, config Config) (*Engine, *vm.Machine) {
	t.Helper()
	machine := vm.NewMachine(nil)
	machine.Start()
	return NewEngine(machine, machine, config), machine
}

// encode builds a single command. value is ignored for reads.
func encode(op common.Opcode, addr uint32, value uint64) []byte {
	info, _ := op.Info()
	buf := make([]byte, info.RequestLen)
	buf[0] = byte(op)
	binary.LittleEndian.PutUint32(buf[1:5], addr)
	if info.Write {
		var v [8]byte
		binary.LittleEndian.PutUint64(v[:], value)
		copy(buf[5:], v[:info.Width])
	}
	return buf
}

// batch builds a MultiCommand request with the given count and commands
func batch(count uint16, cmds ...[]byte) []byte {
	req := []byte{byte(common.MsgMultiCommand), 0, 0}
	binary.LittleEndian.PutUint16(req[1:3], count)
	for _, cmd := range cmds {
		req = append(req, cmd...)
	}
	return req
}

// decode runs a request and returns a copy of the response
func decode(e *Engine, req []byte) []byte {
	return bytes.Clone(e.Decode(req))
}

// --------------------------------------------------------------------------
// Scenarios
// --------------------------------------------------------------------------

func TestRead8Scenario(t *testing.T) {
	e, machine := newTestEngine(t)
	machine.Write8(0x10, 0x7A)

	resp := decode(e, []byte{0x00, 0x10, 0x00, 0x00, 0x00})
	assert.Equal(t, []byte{0x00, 0x7A}, resp)
}

func TestUnknownOpcode(t *testing.T) {
	e, _ := newTestEngine(t)

	resp, err := e.Execute([]byte{0xFE, 0x10, 0x00, 0x00, 0x00})
	assert.Equal(t, failResponse, resp)
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestInactiveSession(t *testing.T) {
	e, machine := newTestEngine(t)
	machine.Write8(0x10, 0x7A)
	machine.Stop()

	requests := [][]byte{
		{0x00, 0x10, 0x00, 0x00, 0x00},
		{0xFE},
		{},
		batch(1, encode(common.MsgWrite8, 0x10, 0x01)),
	}
	for _, req := range requests {
		resp, err := e.Execute(req)
		assert.Equal(t, failResponse, resp)
		assert.ErrorIs(t, err, ErrNoSession)
	}

	// the rejected batch must not have touched memory
	assert.Equal(t, uint8(0x7A), machine.Read8(0x10))
}

func TestBatchReadThenWrite(t *testing.T) {
	e, machine := newTestEngine(t)
	machine.Write8(0x10, 0x7A)

	req := batch(2,
		encode(common.MsgRead8, 0x10, 0),
		encode(common.MsgWrite16, 0x20, 0xBEEF),
	)
	assert.Equal(t, []byte{0x00, 0x7A}, decode(e, req))

	// verify the write with an independent request
	assert.Equal(t, []byte{0x00, 0xEF, 0xBE}, decode(e, encode(common.MsgRead16, 0x20, 0)))
}

// --------------------------------------------------------------------------
// Properties
// --------------------------------------------------------------------------

func TestSingleCommandResultWidth(t *testing.T) {
	for op := common.MsgRead8; op <= common.MsgWrite64; op++ {
		t.Run(op.String(), func(t *testing.T) {
			e, _ := newTestEngine(t)
			info, _ := op.Info()

			resp, err := e.Execute(encode(op, 0x1000, 0x0102030405060708))
			require.NoError(t, err)
			assert.Equal(t, byte(common.StatusOK), resp[0])
			assert.Len(t, resp, 1+info.ResultLen)
		})
	}
}

func TestReadResultsAreLittleEndian(t *testing.T) {
	e, machine := newTestEngine(t)
	machine.Write64(0x40, 0x0123456789ABCDEF)

	resp := decode(e, encode(common.MsgRead64, 0x40, 0))
	assert.Equal(t, []byte{0x00, 0xEF, 0xCD, 0xAB, 0x89, 0x67, 0x45, 0x23, 0x01}, resp)

	resp = decode(e, encode(common.MsgRead32, 0x40, 0))
	assert.Equal(t, []byte{0x00, 0xEF, 0xCD, 0xAB, 0x89}, resp)
}

func TestTruncatedCommand(t *testing.T) {
	for op := common.MsgRead8; op <= common.MsgWrite64; op++ {
		t.Run(op.String(), func(t *testing.T) {
			e, machine := newTestEngine(t)
			full := encode(op, 0x2000, 0xFF)

			for cut := 1; cut < len(full); cut++ {
				resp, err := e.Execute(full[:cut])
				assert.Equal(t, failResponse, resp, "request cut at %d", cut)
				assert.ErrorIs(t, err, ErrRequestOverflow)
			}
			assert.Equal(t, 0, machine.PageCount(), "truncated writes must not execute")
		})
	}
}

func TestRequestLimitIsEnforced(t *testing.T) {
	// the second command of the batch ends one byte past the request limit
	req := batch(2,
		encode(common.MsgWrite8, 0x10, 0x55),
		encode(common.MsgRead8, 0x10, 0),
	)
	e, machine := newTestEngineWithConfig(t, Config{MaxRequestSize: len(req) - 1})

	resp, err := e.Execute(req)
	assert.Equal(t, failResponse, resp)
	assert.ErrorIs(t, err, ErrRequestOverflow)

	// the first command was already executed
	assert.Equal(t, uint8(0x55), machine.Read8(0x10))
}

func TestResponseOverflowKeepsEarlierWrites(t *testing.T) {
	// room for the status byte and exactly one 32 bit result
	e, machine := newTestEngineWithConfig(t, Config{MaxResponseSize: 1 + 4})

	req := batch(3,
		encode(common.MsgWrite32, 0x100, 0xCAFEBABE),
		encode(common.MsgRead32, 0x100, 0),
		encode(common.MsgRead32, 0x104, 0), // overflows the response buffer
	)

	resp, err := e.Execute(req)
	assert.Equal(t, failResponse, resp)
	assert.ErrorIs(t, err, ErrResponseOverflow)

	// batches are not atomic: the write of command 1 stays applied
	assert.Equal(t, uint32(0xCAFEBABE), machine.Read32(0x100))

	// the same batch without the last read fits exactly
	resp, err = e.Execute(batch(2,
		encode(common.MsgWrite32, 0x100, 0xCAFEBABE),
		encode(common.MsgRead32, 0x100, 0),
	))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xBE, 0xBA, 0xFE, 0xCA}, resp)
}

func TestDecodeIsIdempotent(t *testing.T) {
	e, machine := newTestEngine(t)
	machine.Write64(0x800, 0x1122334455667788)

	req := batch(4,
		encode(common.MsgRead8, 0x800, 0),
		encode(common.MsgRead16, 0x801, 0),
		encode(common.MsgWrite32, 0x900, 7),
		encode(common.MsgRead64, 0x800, 0),
	)

	first := decode(e, req)
	second := decode(e, req)
	assert.Equal(t, first, second)
	assert.Len(t, first, 1+1+2+8)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7FFFFFFF, 0xDEADBEEF, 0xFFFFFFFF}

	for _, v := range values {
		e, _ := newTestEngine(t)
		resp := decode(e, batch(2,
			encode(common.MsgWrite32, 0xABC0, uint64(v)),
			encode(common.MsgRead32, 0xABC0, 0),
		))
		require.Len(t, resp, 5)
		assert.Equal(t, byte(common.StatusOK), resp[0])
		assert.Equal(t, v, binary.LittleEndian.Uint32(resp[1:]))
	}
}

func TestResultsFollowRequestOrder(t *testing.T) {
	e, machine := newTestEngine(t)
	machine.Write8(0x1, 0xA1)
	machine.Write8(0x2, 0xB2)
	machine.Write8(0x3, 0xC3)

	resp := decode(e, batch(3,
		encode(common.MsgRead8, 0x3, 0),
		encode(common.MsgRead8, 0x1, 0),
		encode(common.MsgRead8, 0x2, 0),
	))
	assert.Equal(t, []byte{0x00, 0xC3, 0xA1, 0xB2}, resp)
}

// --------------------------------------------------------------------------
// Edge Cases
// --------------------------------------------------------------------------

func TestTrailingGarbageIsIgnored(t *testing.T) {
	e, machine := newTestEngine(t)
	machine.Write16(0x10, 0x1234)

	req := append(encode(common.MsgRead16, 0x10, 0), 0xFE, 0xFE, 0xFE)
	assert.Equal(t, []byte{0x00, 0x34, 0x12}, decode(e, req))

	req = append(batch(1, encode(common.MsgRead16, 0x10, 0)), 0x07, 0x00)
	assert.Equal(t, []byte{0x00, 0x34, 0x12}, decode(e, req))
}

func TestEmptyRequest(t *testing.T) {
	e, _ := newTestEngine(t)

	resp, err := e.Execute(nil)
	assert.Equal(t, failResponse, resp)
	assert.ErrorIs(t, err, ErrEmptyRequest)
}

func TestEmptyBatch(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, []byte{0x00}, decode(e, batch(0)))
}

func TestTruncatedBatchHeader(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, req := range [][]byte{{0xFF}, {0xFF, 0x01}} {
		resp, err := e.Execute(req)
		assert.Equal(t, failResponse, resp)
		assert.ErrorIs(t, err, ErrRequestOverflow)
	}
}

func TestBatchCountLargerThanCommands(t *testing.T) {
	e, machine := newTestEngine(t)

	resp, err := e.Execute(batch(3,
		encode(common.MsgWrite8, 0x20, 0x99),
		encode(common.MsgRead8, 0x20, 0),
	))
	assert.Equal(t, failResponse, resp)
	assert.ErrorIs(t, err, ErrRequestOverflow)
	assert.Equal(t, uint8(0x99), machine.Read8(0x20))
}

func TestNestedMultiCommandIsRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	req := batch(2,
		encode(common.MsgRead8, 0x0, 0),
		batch(1, encode(common.MsgRead8, 0x0, 0)),
	)
	resp, err := e.Execute(req)
	assert.Equal(t, failResponse, resp)
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestFailureAfterSuccessResetsStatus(t *testing.T) {
	e, _ := newTestEngine(t)

	require.Equal(t, byte(common.StatusOK), decode(e, encode(common.MsgRead64, 0, 0))[0])
	assert.Equal(t, failResponse, decode(e, []byte{0x42}))
	assert.Equal(t, []byte{0x00, 0x00}, decode(e, encode(common.MsgRead8, 0, 0)))
}

func TestDefaultsForInvalidConfig(t *testing.T) {
	e, _ := newTestEngineWithConfig(t, Config{MaxRequestSize: -1, MaxResponseSize: 0})
	assert.Equal(t, common.DefaultMaxRequestSize, e.maxRequestSize)
	assert.Len(t, e.resp, common.DefaultMaxResponseSize)
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func BenchmarkDecodeRead32(b *testing.B) {
	machine := vm.NewMachine(nil)
	machine.Start()
	e := NewEngine(machine, machine, Config{})
	req := encode(common.MsgRead32, 0x1000, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Decode(req)
	}
}

func BenchmarkDecodeBatch(b *testing.B) {
	machine := vm.NewMachine(nil)
	machine.Start()
	e := NewEngine(machine, machine, Config{})

	cmds := make([][]byte, 0, 256)
	for i := 0; i < 128; i++ {
		cmds = append(cmds, encode(common.MsgWrite32, uint32(i*4), uint64(i)))
		cmds = append(cmds, encode(common.MsgRead32, uint32(i*4), 0))
	}
	req := batch(uint16(len(cmds)), cmds...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Decode(req)
	}
}
