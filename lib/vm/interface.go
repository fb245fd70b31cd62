package vm

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IMemory is the addressable memory of a virtual machine as seen by the IPC engine.
// All values are little endian. Accesses never fail: addressing outside of the
// mapped memory is the responsibility of the implementation, not of the caller.
type IMemory interface {
	// Read8 reads one byte at addr
	Read8(addr uint32) uint8
	// Read16 reads two bytes starting at addr
	Read16(addr uint32) uint16
	// Read32 reads four bytes starting at addr
	Read32(addr uint32) uint32
	// Read64 reads eight bytes starting at addr
	Read64(addr uint32) uint64

	// Write8 writes one byte at addr
	Write8(addr uint32, value uint8)
	// Write16 writes two bytes starting at addr
	Write16(addr uint32, value uint16)
	// Write32 writes four bytes starting at addr
	Write32(addr uint32, value uint32)
	// Write64 writes eight bytes starting at addr
	Write64(addr uint32, value uint64)
}

// ISession reports whether a virtual machine is currently running and addressable.
type ISession interface {
	// HasActiveSession returns true while the machine's memory may be accessed
	HasActiveSession() bool
}

// IMachine is a virtual machine whose memory is served over IPC
type IMachine interface {
	IMemory
	ISession
}
