package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/ipc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality.
// Connections are served strictly one after another by the goroutine that called Listen,
// so the request buffer is reused without synchronization.
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig
	buf       []byte // request buffer, allocated once in Listen

	mu       sync.Mutex // Protects listener and closed
	listener net.Listener
	closed   bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the specified connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	// Allocate the request buffer once for all connections
	bufferSize := config.MaxRequestSize
	if bufferSize < 1 {
		bufferSize = common.DefaultMaxRequestSize
	}
	t.buf = make([]byte, bufferSize)

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	t.listener = listener
	t.mu.Unlock()

	// The listener is released on every exit path, including fatal accept errors
	defer listener.Close()

	Logger.Infof("Starting %s server on %s (request buffer %d bytes)",
		t.connector.GetName(), listener.Addr(), bufferSize)

	// Backoff after transient accept errors, reset by every accepted connection
	var tempDelay time.Duration

	// Accept connections, one at a time
	for {
		conn, err := listener.Accept()
		if err != nil {
			// Case listener closed via Close(): regular shutdown
			if errors.Is(err, net.ErrClosed) {
				Logger.Infof("Listener on %s closed, stopping", listener.Addr())
				return nil
			}

			// Case recoverable: try again
			if isTransientAcceptError(err) {
				tempDelay = nextAcceptDelay(tempDelay)
				Logger.Debugf("Transient accept error: %v; retrying in %v", err, tempDelay)
				time.Sleep(tempDelay)
				continue
			}

			// Everything else is not recoverable
			Logger.Errorf("Unrecoverable accept error, shutting down: %v", err)
			return fmt.Errorf("accept failed: %w", err)
		}

		tempDelay = 0
		t.handleConnection(conn)
	}
}

func (t *serverTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener == nil || t.closed {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection serves exactly one request: single read, handler, write, close
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Warningf("Failed to upgrade connection: %v", err)
	}

	// Timeout in seconds, a peer that already hung up makes the read below return EOF
	if t.config.TimeoutSecond > 0 {
		deadline := time.Now().Add(time.Duration(t.config.TimeoutSecond) * time.Second)
		if err := conn.SetDeadline(deadline); err != nil {
			Logger.Debugf("Failed to set deadline: %v", err)
		}
	}

	// A short read (even zero bytes) is passed on as is
	n, err := conn.Read(t.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		Logger.Debugf("Failed to read request: %v", err)
		return
	}

	start := time.Now()
	resp := t.handler(t.buf[:n])
	Logger.Debugf("Processed request of %d bytes in %s", n, time.Since(start))

	// Write errors are ignored, the connection is closed either way
	if _, err := conn.Write(resp); err != nil {
		Logger.Debugf("Failed to write response: %v", err)
	}
}
