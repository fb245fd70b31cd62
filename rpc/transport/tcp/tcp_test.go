package tcp

import (
	"testing"
	"time"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPTransport_RoundTrip(t *testing.T) {
	server := NewTCPServerTransport()
	server.RegisterHandler(func(req []byte) []byte {
		return []byte{0x00, byte(len(req))}
	})

	config := common.NewDefaultServerConfig()
	config.Endpoint = "127.0.0.1:0"
	config.TCP.ReadBufferSize = 64 * 1024
	config.TCP.WriteBufferSize = 64 * 1024

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(config) }()
	require.Eventually(t, func() bool { return server.Addr() != nil }, 2*time.Second, 5*time.Millisecond)

	client := NewTCPClientTransport()
	require.NoError(t, client.Connect(common.ClientConfig{
		Endpoint:      server.Addr().String(),
		TimeoutSecond: 2,
		RetryCount:    1,
	}))

	resp, err := client.Send([]byte{0x06, 0x00, 0x10, 0x00, 0x00, 0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 9}, resp)

	require.NoError(t, server.Close())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after Close")
	}
}

func TestTCPTransport_ListenError(t *testing.T) {
	server := NewTCPServerTransport()
	server.RegisterHandler(func(req []byte) []byte { return nil })

	config := common.NewDefaultServerConfig()
	config.Endpoint = "not-an-address"
	assert.Error(t, server.Listen(config))
}
