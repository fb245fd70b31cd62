package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/ValentinKolb/vmIPC/rpc/transport"
	"github.com/ValentinKolb/vmIPC/rpc/transport/tcp"
	"github.com/ValentinKolb/vmIPC/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. VMIPC_TIMEOUT)
	EnvPrefix = "vmipc"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads the .env files and lets viper read matching environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupIPCClientFlags adds common IPC connection flags to a command
func SetupIPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, common.DefaultTimeoutSecond, WrapString("The timeout in seconds of the client"))

	key = "endpoint"
	cmd.PersistentFlags().String(key, "", WrapString("The address of the vmIPC server: a socket path for unix, host:port for tcp (defaults to "+common.DefaultUnixEndpoint+" or "+common.DefaultTCPEndpoint+")"))

	key = "retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to try the request"))

	key = "max-request-size"
	cmd.PersistentFlags().Int(key, common.DefaultMaxRequestSize, WrapString("The request size limit of the server in bytes"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Endpoint:       GetEndpoint(),
		TimeoutSecond:  viper.GetInt("timeout"),
		RetryCount:     viper.GetInt("retries"),
		MaxRequestSize: viper.GetInt("max-request-size"),
	}
}

// GetEndpoint returns the configured endpoint or the default of the selected transport
func GetEndpoint() string {
	if endpoint := viper.GetString("endpoint"); endpoint != "" {
		return endpoint
	}
	if viper.GetString("transport") == "tcp" {
		return common.DefaultTCPEndpoint
	}
	return common.DefaultUnixEndpoint
}

// GetClientTransport creates the client transport based on configuration
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix", "":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix", "":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// ParseUint parses a decimal, hex (0x) or octal (0o) number that fits into bits
func ParseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %d bit number %q", bits, s)
	}
	return v, nil
}

// ParseAddress parses a 32 bit memory address
func ParseAddress(s string) (uint32, error) {
	v, err := ParseUint(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}
