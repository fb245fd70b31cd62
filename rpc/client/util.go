package client

import (
	"fmt"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// invokeRequest encodes the batch, sends it and decodes the response
// It returns one value per read command of the batch
func invokeRequest(batch *Batch, config common.ClientConfig, transport transport.IRPCClientTransport) ([]uint64, error) {
	limit := config.MaxRequestSize
	if limit <= 0 {
		limit = common.DefaultMaxRequestSize
	}

	// Encode the request
	req, err := batch.EncodeLimit(limit)
	if err != nil {
		return nil, err
	}

	// Send the request
	resp, err := transport.Send(req)
	if err != nil {
		return nil, err
	}

	// Decode the response
	results, err := batch.DecodeResponse(resp)
	if err != nil {
		Logger.Debugf("Request with %d commands failed: %v", batch.Len(), err)
		return nil, fmt.Errorf("IPC request: %w", err)
	}
	return results, nil
}
