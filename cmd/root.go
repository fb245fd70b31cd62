package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/vmIPC/cmd/mem"
	"github.com/ValentinKolb/vmIPC/cmd/serve"
	"github.com/ValentinKolb/vmIPC/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "vmipc",
		Short: "memory access to a running virtual machine",
		Long: fmt.Sprintf(`vmIPC (v%s)

An IPC server and client for reading and writing the memory of a
running virtual machine over unix or tcp sockets.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of vmIPC",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vmIPC v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(mem.MemoryCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "unix", util.WrapString("transport to use (unix, tcp)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
