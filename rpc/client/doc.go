// Package client implements the vmIPC client. It encodes memory commands into
// requests, sends them through a client transport and decodes the responses.
//
// Key Components:
//
//   - Batch: Builder for a request of one or more memory commands. Encode produces
//     the wire format, DecodeResponse turns the response into one value per read.
//
//   - NewIPCClient: Factory function that creates a client for a config and a
//     transport. The client offers Exec for batches plus one method per command
//     (Read8..Read64, Write8..Write64).
//
//   - ErrCommandFailed: Returned when the server answered with FAIL. Use errors.Is to
//     check for it. The server does not tell which command failed.
//
// Usage Example:
//
//	c, err := client.NewIPCClient(common.ClientConfig{
//		Endpoint:      common.DefaultUnixEndpoint,
//		TimeoutSecond: 5,
//		RetryCount:    3,
//	}, unix.NewUnixClientTransport())
//	if err != nil {
//		return err
//	}
//
//	if err := c.Write32(0x1000, 42); err != nil {
//		return err
//	}
//	results, err := c.Exec(client.NewBatch().Read32(0x1000).Read8(0x1004))
//
// Thread Safety:
//
//	An IPCClient may be used from several goroutines, every request opens its own
//	connection. A Batch must not be modified concurrently.
package client
