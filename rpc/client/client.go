package client

import (
	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/transport"
)

// NewIPCClient creates a new IPC client
// The function takes a config and a transport as parameters
// It returns the client and an error if the transport cannot be connected
func NewIPCClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (*IPCClient, error) {

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &IPCClient{
		config:    config,
		transport: transport,
	}, nil
}

// IPCClient reads and writes the memory of a remote virtual machine
type IPCClient struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// Exec sends all commands of the batch in one request
// It returns one value per read command, in the order they were added
func (c *IPCClient) Exec(batch *Batch) ([]uint64, error) {
	return invokeRequest(batch, c.config, c.transport)
}

// Close closes the underlying transport
func (c *IPCClient) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Single Command Methods
// --------------------------------------------------------------------------

func (c *IPCClient) Read8(addr uint32) (uint8, error) {
	v, err := c.read(NewBatch().Read8(addr))
	return uint8(v), err
}

func (c *IPCClient) Read16(addr uint32) (uint16, error) {
	v, err := c.read(NewBatch().Read16(addr))
	return uint16(v), err
}

func (c *IPCClient) Read32(addr uint32) (uint32, error) {
	v, err := c.read(NewBatch().Read32(addr))
	return uint32(v), err
}

func (c *IPCClient) Read64(addr uint32) (uint64, error) {
	return c.read(NewBatch().Read64(addr))
}

func (c *IPCClient) Write8(addr uint32, value uint8) error {
	_, err := c.Exec(NewBatch().Write8(addr, value))
	return err
}

func (c *IPCClient) Write16(addr uint32, value uint16) error {
	_, err := c.Exec(NewBatch().Write16(addr, value))
	return err
}

func (c *IPCClient) Write32(addr uint32, value uint32) error {
	_, err := c.Exec(NewBatch().Write32(addr, value))
	return err
}

func (c *IPCClient) Write64(addr uint32, value uint64) error {
	_, err := c.Exec(NewBatch().Write64(addr, value))
	return err
}

// read executes a batch holding exactly one read command
func (c *IPCClient) read(batch *Batch) (uint64, error) {
	results, err := c.Exec(batch)
	if err != nil {
		return 0, err
	}
	return results[0], nil
}
