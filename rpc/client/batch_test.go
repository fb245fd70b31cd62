package client

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_EncodeSingleCommand(t *testing.T) {
	tests := []struct {
		name  string
		batch *Batch
		want  []byte
	}{
		{"read8", NewBatch().Read8(0x00100000), []byte{0x00, 0x00, 0x00, 0x10, 0x00}},
		{"read64", NewBatch().Read64(0xFFFFFFFF), []byte{0x03, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"write8", NewBatch().Write8(0x10, 0xAB), []byte{0x04, 0x10, 0x00, 0x00, 0x00, 0xAB}},
		{"write16", NewBatch().Write16(0x10, 0xBEEF), []byte{0x05, 0x10, 0x00, 0x00, 0x00, 0xEF, 0xBE}},
		{"write32", NewBatch().Write32(0x10, 0xDEADBEEF), []byte{0x06, 0x10, 0x00, 0x00, 0x00, 0xEF, 0xBE, 0xAD, 0xDE}},
		{"write64", NewBatch().Write64(0x10, 0x0102030405060708),
			[]byte{0x07, 0x10, 0x00, 0x00, 0x00, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.batch.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
			assert.Equal(t, len(tt.want), tt.batch.RequestSize())
		})
	}
}

func TestBatch_EncodeMultiCommand(t *testing.T) {
	b := NewBatch().Write32(0x2000, 1).Read32(0x2000).Read8(0x3000)

	req, err := b.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xFF, 0x03, 0x00,
		0x06, 0x00, 0x20, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x20, 0x00, 0x00,
		0x00, 0x00, 0x30, 0x00, 0x00,
	}, req)

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.Reads())
	assert.Equal(t, 1+4+1, b.ResponseSize())
}

func TestBatch_EncodeTruncatesValues(t *testing.T) {
	req, err := NewBatch().Add(common.MsgWrite8, 0, 0x1234).Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0, 0, 0, 0, 0x34}, req)
}

func TestBatch_EncodeErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := NewBatch().Encode()
		assert.Error(t, err)
	})

	t.Run("invalid opcode", func(t *testing.T) {
		_, err := NewBatch().Add(common.MsgMultiCommand, 0, 0).Encode()
		assert.Error(t, err)
	})

	t.Run("request limit", func(t *testing.T) {
		b := NewBatch().Read8(0).Read8(1)
		_, err := b.EncodeLimit(b.RequestSize() - 1)
		assert.Error(t, err)

		_, err = b.EncodeLimit(b.RequestSize())
		assert.NoError(t, err)
	})

	t.Run("too many commands", func(t *testing.T) {
		b := NewBatch()
		for i := 0; i <= common.MaxBatchCount; i++ {
			b.Read8(uint32(i))
		}
		_, err := b.EncodeLimit(0)
		assert.Error(t, err)
	})
}

func TestBatch_DecodeResponse(t *testing.T) {
	b := NewBatch().Read8(0).Write16(0, 1).Read16(0).Read32(0).Read64(0)

	resp := []byte{
		0x00,
		0x11,
		0x22, 0x11,
		0x44, 0x33, 0x22, 0x11,
		0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
	}
	results, err := b.DecodeResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0x11, 0x1122, 0x11223344, 0x1122334455667788}, results)
}

func TestBatch_DecodeResponseErrors(t *testing.T) {
	b := NewBatch().Read16(0)

	_, err := b.DecodeResponse([]byte{0xFF})
	assert.True(t, errors.Is(err, ErrCommandFailed))

	_, err = b.DecodeResponse(nil)
	assert.Error(t, err)

	_, err = b.DecodeResponse([]byte{0x01, 0x00, 0x00})
	assert.Error(t, err)

	// short and long bodies
	_, err = b.DecodeResponse([]byte{0x00, 0x01})
	assert.Error(t, err)
	_, err = b.DecodeResponse([]byte{0x00, 0x01, 0x02, 0x03})
	assert.Error(t, err)

	// a write-only batch has an empty body
	results, err := NewBatch().Write8(0, 1).DecodeResponse([]byte{0x00})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatch_Reset(t *testing.T) {
	b := NewBatch().Read8(0).Read8(1)
	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Reads())

	req, err := b.Write8(5, 9).Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x05, 0, 0, 0, 0x09}, req)
}
