package unix

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixTransport_RoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "vm.sock")

	// a stale file at the socket path must not prevent listening
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	server := NewUnixServerTransport()
	server.RegisterHandler(func(req []byte) []byte {
		resp := make([]byte, 0, len(req)+1)
		resp = append(resp, 0x00)
		return append(resp, req...)
	})

	config := common.NewDefaultServerConfig()
	config.Endpoint = socketPath

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(config) }()
	require.Eventually(t, func() bool { return server.Addr() != nil }, 2*time.Second, 5*time.Millisecond)

	client := NewUnixClientTransport()
	require.NoError(t, client.Connect(common.ClientConfig{
		Endpoint:      socketPath,
		TimeoutSecond: 2,
		RetryCount:    1,
	}))
	defer client.Close()

	for _, req := range [][]byte{
		{0x02, 0x00, 0x10, 0x00, 0x00},
		{0x04, 0x00, 0x10, 0x00, 0x00, 0x7F},
	} {
		resp, err := client.Send(req)
		require.NoError(t, err)
		assert.Equal(t, append([]byte{0x00}, req...), resp)
	}

	require.NoError(t, server.Close())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after Close")
	}
}

func TestUnixTransport_SendWithoutServer(t *testing.T) {
	client := NewUnixClientTransport()
	require.NoError(t, client.Connect(common.ClientConfig{
		Endpoint:      filepath.Join(t.TempDir(), "missing.sock"),
		TimeoutSecond: 1,
		RetryCount:    2,
	}))

	_, err := client.Send([]byte{0x00, 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestUnixTransport_ConnectWithoutEndpoint(t *testing.T) {
	client := NewUnixClientTransport()
	assert.Error(t, client.Connect(common.ClientConfig{}))

	_, err := client.Send([]byte{0x00, 0, 0, 0, 0})
	assert.Error(t, err)
}
