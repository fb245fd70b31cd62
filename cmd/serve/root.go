package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/vmIPC/cmd/util"
	"github.com/ValentinKolb/vmIPC/lib/vm"
	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the vmIPC server",
		Long:    `Start the vmIPC server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is VMIPC_<flag> (e.g. VMIPC_MAX_REQUEST_SIZE=4096)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address on which the server will listen: a socket path for unix, host:port for tcp (defaults to "+common.DefaultUnixEndpoint+" or "+common.DefaultTCPEndpoint+")"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, common.DefaultTimeoutSecond, cmdUtil.WrapString("Receive timeout in seconds for every connection (0 disables it)"))

	key = "max-request-size"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxRequestSize, cmdUtil.WrapString("Size of the request buffer in bytes, longer requests are cut off"))

	key = "max-response-size"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxResponseSize, cmdUtil.WrapString("Size of the response buffer in bytes, requests with more results fail"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections (only for tcp)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the prometheus metrics endpoint (e.g. localhost:9100), disabled if empty"))

	key = "image"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional raw memory image loaded into the machine before serving"))

	key = "image-base"
	ServeCmd.PersistentFlags().String(key, "0", cmdUtil.WrapString("Address the memory image is loaded at"))

	key = "session"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Start with an active session. Without one every request fails"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	*serveCmdConfig = common.NewDefaultServerConfig()
	serveCmdConfig.Endpoint = cmdUtil.GetEndpoint()
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MaxRequestSize = viper.GetInt("max-request-size")
	serveCmdConfig.MaxResponseSize = viper.GetInt("max-response-size")
	serveCmdConfig.TCP.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return serveCmdConfig.Validate()
}

// run starts the vmIPC server
func run(_ *cobra.Command, _ []string) error {

	// Parse the transport
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	// Create the machine whose memory is served
	machine := vm.NewMachine(nil)
	if image := viper.GetString("image"); image != "" {
		if err := loadImage(machine, image, viper.GetString("image-base")); err != nil {
			return err
		}
	}
	if viper.GetBool("session") {
		machine.Start()
	}

	serv := server.NewIPCServer(
		*serveCmdConfig,
		t,
		machine,
	)

	// Closing the listener is the only way to stop the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		server.Logger.Infof("Received %s, shutting down", sig)
		if err := serv.Close(); err != nil {
			server.Logger.Errorf("Failed to close server: %v", err)
		}
	}()

	return serv.Serve()
}

// loadImage copies a raw memory image into the machine
func loadImage(machine *vm.Machine, path, baseStr string) error {
	base, err := cmdUtil.ParseAddress(baseStr)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open memory image: %w", err)
	}
	defer file.Close()

	n, err := machine.LoadImage(base, file)
	if err != nil {
		return fmt.Errorf("failed to load memory image %s: %w", path, err)
	}

	fmt.Printf("loaded %d bytes from %s at %#08x\n", n, path, base)
	return nil
}
