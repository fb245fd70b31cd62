package mem

import (
	"testing"

	"github.com/ValentinKolb/vmIPC/rpc/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommand(t *testing.T) {
	batch := client.NewBatch()
	for _, arg := range []string{"w32:0x1000=0xdeadbeef", "r32:0x1000", "read8:4096", "w8:0x10=255"} {
		require.NoError(t, addCommand(batch, arg), arg)
	}

	req, err := batch.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xFF, 0x04, 0x00,
		0x06, 0x00, 0x10, 0x00, 0x00, 0xEF, 0xBE, 0xAD, 0xDE,
		0x02, 0x00, 0x10, 0x00, 0x00,
		0x00, 0x00, 0x10, 0x00, 0x00,
		0x04, 0x10, 0x00, 0x00, 0x00, 0xFF,
	}, req)
	assert.Equal(t, 2, batch.Reads())
}

func TestAddCommandErrors(t *testing.T) {
	for _, arg := range []string{
		"r32",            // no address
		"x32:0x10",       // unknown op
		"w32:0x10",       // write without value
		"r32:0x10=1",     // read with value
		"w8:0x10=256",    // value too wide
		"r8:0x100000000", // address too wide
		"r8:zz",          // not a number
	} {
		t.Run(arg, func(t *testing.T) {
			assert.Error(t, addCommand(client.NewBatch(), arg))
		})
	}
}
