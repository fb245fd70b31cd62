package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrittenMemoryReadsZero(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, uint8(0), m.Read8(0x10))
	assert.Equal(t, uint64(0), m.Read64(0xFFFF_FFF0))
	assert.Equal(t, 0, m.PageCount(), "reads must not allocate pages")
}

func TestReadWriteWidths(t *testing.T) {
	m := NewMemory()

	m.Write8(0x10, 0x7A)
	m.Write16(0x20, 0xBEEF)
	m.Write32(0x30, 0xDEADBEEF)
	m.Write64(0x40, 0x0123456789ABCDEF)

	assert.Equal(t, uint8(0x7A), m.Read8(0x10))
	assert.Equal(t, uint16(0xBEEF), m.Read16(0x20))
	assert.Equal(t, uint32(0xDEADBEEF), m.Read32(0x30))
	assert.Equal(t, uint64(0x0123456789ABCDEF), m.Read64(0x40))

	// little endian layout
	assert.Equal(t, uint8(0xEF), m.Read8(0x30))
	assert.Equal(t, uint8(0xDE), m.Read8(0x33))
	assert.Equal(t, uint16(0xBEEF), m.Read16(0x30))
}

func TestAccessAcrossPageBoundary(t *testing.T) {
	m := NewMemory()
	addr := uint32(PageSize - 3)

	m.Write64(addr, 0x1122334455667788)

	assert.Equal(t, uint64(0x1122334455667788), m.Read64(addr))
	assert.Equal(t, uint8(0x88), m.Read8(addr))
	assert.Equal(t, uint8(0x11), m.Read8(addr+7))
	assert.Equal(t, 2, m.PageCount())
}

func TestAddressWrapAround(t *testing.T) {
	m := NewMemory()

	m.Write32(0xFFFF_FFFE, 0xAABBCCDD)

	assert.Equal(t, uint8(0xDD), m.Read8(0xFFFF_FFFE))
	assert.Equal(t, uint8(0xCC), m.Read8(0xFFFF_FFFF))
	assert.Equal(t, uint8(0xBB), m.Read8(0x0000_0000))
	assert.Equal(t, uint8(0xAA), m.Read8(0x0000_0001))
	assert.Equal(t, uint32(0xAABBCCDD), m.Read32(0xFFFF_FFFE))
}

func TestLoadImage(t *testing.T) {
	m := NewMemory()
	image := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, PageSize) // 4 pages

	n, err := m.LoadImage(0x1000_0002, bytes.NewReader(image))
	require.NoError(t, err)
	assert.Equal(t, int64(len(image)), n)

	assert.Equal(t, uint32(0x04030201), m.Read32(0x1000_0002))
	out := make([]byte, len(image))
	m.ReadMemory(0x1000_0002, out)
	assert.Equal(t, image, out)
}

func TestMachineSession(t *testing.T) {
	vm := NewMachine(nil)
	assert.False(t, vm.HasActiveSession())

	vm.Start()
	assert.True(t, vm.HasActiveSession())

	vm.Write32(0x100, 42)
	vm.Stop()
	assert.False(t, vm.HasActiveSession())
	assert.Equal(t, uint32(42), vm.Read32(0x100), "memory survives a stopped session")
}
