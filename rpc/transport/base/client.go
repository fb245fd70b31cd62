package base

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"time"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.).
// The server closes every connection after one response, so each request dials anew.
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	connected bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}

	t.config = config
	t.connected = true

	// No connection is opened until the first request
	Logger.Debugf("Using %s transport for %s", t.connector.GetName(), config.Endpoint)
	return nil
}

func (t *clientTransport) Send(req []byte) (resp []byte, err error) {
	if !t.connected {
		return nil, fmt.Errorf("transport is not connected")
	}
	if t.config.MaxRequestSize > 0 && len(req) > t.config.MaxRequestSize {
		return nil, fmt.Errorf("request of %d bytes exceeds the limit of %d bytes", len(req), t.config.MaxRequestSize)
	}

	// Retry logic with exponential backoff
	var lastErr error

	// We always try at least once, and up to maxRetries times
	maxRetries := t.config.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	for i := 0; i < maxRetries; i++ {
		data, delivered, err := t.roundTrip(req)
		if err == nil {
			return data, nil
		}

		// Once the server may have read the request its writes may be applied, never send it twice
		if delivered {
			return nil, err
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	// All attempts failed
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.connected = false
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// roundTrip sends one request over a fresh connection and reads until the server closes it.
// delivered reports whether any byte of the request was written to the connection.
func (t *clientTransport) roundTrip(req []byte) (resp []byte, delivered bool, err error) {
	timeout := t.timeout(t.config)

	conn, err := t.connector.Connect(t.config.Endpoint, timeout)
	if err != nil {
		return nil, false, err
	}
	defer conn.Close()

	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, false, err
		}
	}

	n, err := conn.Write(req)
	if err != nil {
		return nil, n > 0, fmt.Errorf("failed to write request: %w", err)
	}

	resp, err = io.ReadAll(conn)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}
	if len(resp) == 0 {
		return nil, true, fmt.Errorf("connection closed without response")
	}
	return resp, true, nil
}

// timeout converts the configured timeout, zero disables it
func (t *clientTransport) timeout(config common.ClientConfig) time.Duration {
	if config.TimeoutSecond <= 0 {
		return 0
	}
	return time.Duration(config.TimeoutSecond) * time.Second
}
