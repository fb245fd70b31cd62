package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// IPC server configuration struct
// --------------------------------------------------------------------------

const (
	DefaultUnixEndpoint  = "/tmp/vmipc.sock"
	DefaultTCPEndpoint   = "127.0.0.1:28011"
	DefaultTimeoutSecond = 10
)

// TCPConf holds the options applied to accepted TCP connections
type TCPConf struct {
	TCPNoDelay      bool
	TCPLingerSec    int
	ReadBufferSize  int
	WriteBufferSize int
}

// ServerConfig holds all configuration parameters of the IPC server.
type ServerConfig struct {
	// Endpoint is the socket path (unix) or the host:port (tcp) to listen on
	Endpoint string
	// TimeoutSecond is the receive timeout applied to every accepted connection
	TimeoutSecond int64

	// Buffer limits, both buffers are allocated once at startup
	MaxRequestSize  int
	MaxResponseSize int

	// TCP settings (ignored for unix sockets)
	TCP TCPConf

	// MetricsEndpoint is the address of the prometheus endpoint, empty to disable it
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// NewDefaultServerConfig returns a config listening on the default unix socket
func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Endpoint:        DefaultUnixEndpoint,
		TimeoutSecond:   DefaultTimeoutSecond,
		MaxRequestSize:  DefaultMaxRequestSize,
		MaxResponseSize: DefaultMaxResponseSize,
		TCP:             TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		LogLevel:        "info",
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.TimeoutSecond < 0 {
		return fmt.Errorf("timeout must not be negative (got %d)", c.TimeoutSecond)
	}
	// the smallest useful request is a single read command
	if c.MaxRequestSize < 1+AddressSize {
		return fmt.Errorf("max request size must be at least %d bytes (got %d)", 1+AddressSize, c.MaxRequestSize)
	}
	if c.MaxResponseSize < 1 {
		return fmt.Errorf("max response size must be at least 1 byte (got %d)", c.MaxResponseSize)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// IPC settings
	addSection("IPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Buffers
	addSection("Buffers")
	addField("Max Request Size", fmt.Sprintf("%d bytes", c.MaxRequestSize))
	addField("Max Response Size", fmt.Sprintf("%d bytes", c.MaxResponseSize))

	// TCP
	addSection("TCP")
	addField("No Delay", strconv.FormatBool(c.TCP.TCPNoDelay))
	addField("Linger", fmt.Sprintf("%d sec", c.TCP.TCPLingerSec))

	// Observability
	addSection("Observability")
	addField("Log Level", c.LogLevel)
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// IPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoint       string
	TimeoutSecond  int
	RetryCount     int
	MaxRequestSize int
}

// Validate checks the configuration for values the client cannot run with
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.TimeoutSecond < 0 {
		return fmt.Errorf("timeout must not be negative (got %d)", c.TimeoutSecond)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must not be negative (got %d)", c.RetryCount)
	}
	if c.MaxRequestSize < 0 {
		return fmt.Errorf("max request size must not be negative (got %d)", c.MaxRequestSize)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Max Request Size", fmt.Sprintf("%d bytes", c.MaxRequestSize))

	return sb.String()
}
