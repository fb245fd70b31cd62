// Package vm defines the collaborator interfaces the IPC engine needs from a virtual
// machine and provides a small reference implementation.
//
// Key Components:
//
//   - IMemory: Sized little endian reads and writes (8, 16, 32 and 64 bit) on a
//     32 bit address space. Accesses never fail.
//
//   - ISession: Reports whether a machine is running. The IPC engine queries it
//     once per request and refuses every request while no session is active.
//
//   - Memory: Sparse page based memory. Pages (4 KiB) are allocated on first write
//     and stored in a concurrent map, so a machine with a large address space only
//     pays for the memory it touches. Raw memory images can be preloaded with LoadImage.
//
//   - Machine: Combines a Memory with an atomic session flag.
//
// The lifecycle of a Machine (when the session starts and stops, who writes the memory)
// is owned by the embedding application, never by the IPC layer.
package vm
