package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/vmIPC/lib/vm"
	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/engine"
	"github.com/ValentinKolb/vmIPC/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("ipc")

// NewIPCServer creates a new IPC server that serves the memory of machine
// It takes a config, a transport and the machine as parameters
//
// Usage:
//
//	machine := vm.NewMachine(nil)
//	machine.Start()
//
//	s := server.NewIPCServer(
//		common.NewDefaultServerConfig(),
//		unix.NewUnixServerTransport(),
//		machine,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewIPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	machine vm.IMachine,
) *IPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &IPCServer{
		config:    config,
		transport: transport,
		engine: engine.NewEngine(machine, machine, engine.Config{
			MaxRequestSize:  config.MaxRequestSize,
			MaxResponseSize: config.MaxResponseSize,
		}),
		metrics: newServerMetrics(),
	}
}

// IPCServer connects a transport to the protocol engine
type IPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	engine    *engine.Engine
	metrics   *serverMetrics

	mu            sync.Mutex // Protects metricsServer and closed
	metricsServer *http.Server
	closed        bool
}

// Serve starts the IPC server
// This function initializes the loggers and the metrics endpoint, then blocks in the
// transport layer until Close is called or the listener fails
func (s *IPCServer) Serve() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	Logger.Infof("Created IPC Server")
	Logger.Infof(s.config.String())

	if s.config.MetricsEndpoint != "" {
		if err := s.startMetricsServer(); err != nil {
			return err
		}
	}

	// Configure the transport layer
	s.transport.RegisterHandler(s.handle)

	return s.transport.Listen(s.config)
}

// Close stops the transport listener and the metrics endpoint
// Serve returns nil afterwards
func (s *IPCServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.transport.Close()
	if s.metricsServer != nil {
		err = errors.Join(err, s.metricsServer.Close())
	}
	return err
}

// handle is the transport handler, it is only ever called from the listening goroutine
func (s *IPCServer) handle(req []byte) []byte {
	start := time.Now()

	resp, err := s.engine.Execute(req)
	if err != nil {
		Logger.Debugf("Request of %d bytes failed: %v", len(req), err)
	}

	s.metrics.observe(req, err, start)
	return resp
}

// startMetricsServer serves the prometheus metrics in the background
func (s *IPCServer) startMetricsServer() error {
	listener, err := net.Listen("tcp", s.config.MetricsEndpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics endpoint %s: %w", s.config.MetricsEndpoint, err)
	}

	srv := &http.Server{
		Handler:           s.metrics.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return listener.Close()
	}
	s.metricsServer = srv
	s.mu.Unlock()

	Logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics server stopped: %v", err)
		}
	}()
	return nil
}
