package transport

import (
	"net"

	"github.com/ValentinKolb/vmIPC/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer once per accepted connection
// It takes the bytes of a single read and returns the response to write back
// The returned slice is only used until the handler is called again
type ServerHandleFunc func(req []byte) (resp []byte)

// IRPCServerTransport is the interface for the IPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler is called exactly once for every accepted connection
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and serves connections one at a time
	// It blocks until the listener is closed (returns nil) or fails (returns the error)
	Listen(config common.ServerConfig) error
	// Addr returns the address the transport listens on, nil if it is not listening
	Addr() net.Addr
	// Close closes the listener, which makes Listen return
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the IPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport
	Close() error
}
