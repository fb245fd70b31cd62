package vm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("vm")

const (
	// PageBits is the number of address bits covered by a single page
	PageBits = 12
	// PageSize is the size of a single page in bytes
	PageSize = 1 << PageBits

	pageMask = PageSize - 1
)

// page is one contiguous block of guest memory
type page [PageSize]byte

// Memory is a sparse, page based implementation of IMemory covering the full 32 bit
// address space. Pages are allocated on the first write, unwritten memory reads as zero.
// Addresses wrap around at 2^32.
//
// Thread-safety: the page table is safe for concurrent use. Concurrent writes to the same
// address are not synchronized, the last writer wins.
type Memory struct {
	pages *xsync.MapOf[uint32, *page]
}

// NewMemory creates an empty memory
func NewMemory() *Memory {
	return &Memory{
		pages: xsync.NewMapOf[uint32, *page](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see vm.IMemory)
// --------------------------------------------------------------------------

func (m *Memory) Read8(addr uint32) uint8 {
	p, ok := m.pages.Load(addr >> PageBits)
	if !ok {
		return 0
	}
	return p[addr&pageMask]
}

func (m *Memory) Read16(addr uint32) uint16 {
	var buf [2]byte
	m.ReadMemory(addr, buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

func (m *Memory) Read32(addr uint32) uint32 {
	var buf [4]byte
	m.ReadMemory(addr, buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

func (m *Memory) Read64(addr uint32) uint64 {
	var buf [8]byte
	m.ReadMemory(addr, buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

func (m *Memory) Write8(addr uint32, value uint8) {
	m.pageFor(addr)[addr&pageMask] = value
}

func (m *Memory) Write16(addr uint32, value uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	m.WriteMemory(addr, buf[:])
}

func (m *Memory) Write32(addr uint32, value uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	m.WriteMemory(addr, buf[:])
}

func (m *Memory) Write64(addr uint32, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	m.WriteMemory(addr, buf[:])
}

// --------------------------------------------------------------------------
// Bulk Access
// --------------------------------------------------------------------------

// ReadMemory copies len(buf) bytes starting at addr into buf.
// Reads may span multiple pages, missing pages are read as zero.
func (m *Memory) ReadMemory(addr uint32, buf []byte) {
	for len(buf) > 0 {
		off := addr & pageMask
		n := copyLen(off, len(buf))

		if p, ok := m.pages.Load(addr >> PageBits); ok {
			copy(buf[:n], p[off:int(off)+n])
		} else {
			clear(buf[:n])
		}

		buf = buf[n:]
		addr += uint32(n)
	}
}

// WriteMemory copies data into memory starting at addr, allocating pages as needed.
func (m *Memory) WriteMemory(addr uint32, data []byte) {
	for len(data) > 0 {
		off := addr & pageMask
		n := copyLen(off, len(data))

		copy(m.pageFor(addr)[off:int(off)+n], data[:n])

		data = data[n:]
		addr += uint32(n)
	}
}

// LoadImage copies a raw memory image from r into memory starting at base.
// It returns the number of bytes loaded.
func (m *Memory) LoadImage(base uint32, r io.Reader) (int64, error) {
	buf := make([]byte, PageSize)
	var total int64

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if total+int64(n) > 1<<32 {
				return total, fmt.Errorf("image exceeds the 32 bit address space")
			}
			m.WriteMemory(base+uint32(total), buf[:n])
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("failed to read image: %w", err)
		}
	}

	Logger.Infof("loaded %d bytes at 0x%08x (%d pages mapped)", total, base, m.PageCount())
	return total, nil
}

// PageCount returns the number of allocated pages
func (m *Memory) PageCount() int {
	return m.pages.Size()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// pageFor returns the page containing addr, allocating it if it does not exist
func (m *Memory) pageFor(addr uint32) *page {
	p, _ := m.pages.LoadOrCompute(addr>>PageBits, func() *page {
		return new(page)
	})
	return p
}

// copyLen returns how many of the remaining bytes fit into the page starting at offset off
func copyLen(off uint32, remaining int) int {
	return min(PageSize-int(off), remaining)
}
