package vm

import "sync/atomic"

// Machine is a minimal virtual machine: a Memory plus a session flag.
// It satisfies both IMemory and ISession and is the collaborator the IPC server
// is wired to when it runs standalone.
type Machine struct {
	*Memory
	active atomic.Bool
}

// NewMachine creates a stopped machine backed by mem.
// If mem is nil a new, empty Memory is created.
func NewMachine(mem *Memory) *Machine {
	if mem == nil {
		mem = NewMemory()
	}
	return &Machine{Memory: mem}
}

// Start marks the session as active
func (vm *Machine) Start() {
	if !vm.active.Swap(true) {
		Logger.Infof("session started")
	}
}

// Stop marks the session as inactive, the memory content is kept
func (vm *Machine) Stop() {
	if vm.active.Swap(false) {
		Logger.Infof("session stopped")
	}
}

// HasActiveSession implements ISession
func (vm *Machine) HasActiveSession() bool {
	return vm.active.Load()
}
