package mem

import (
	"github.com/ValentinKolb/vmIPC/cmd/util"
	"github.com/ValentinKolb/vmIPC/rpc/client"
	"github.com/spf13/cobra"
)

var (
	ipcClient *client.IPCClient

	// MemoryCommands represents the memory command group
	MemoryCommands = &cobra.Command{
		Use:               "mem",
		Short:             "Read and write the memory of a running virtual machine",
		PersistentPreRunE: setupIPCClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common IPC flags to the memory command
	util.SetupIPCClientFlags(MemoryCommands)

	// Add subcommands
	for _, cmd := range readCmds {
		MemoryCommands.AddCommand(cmd)
	}
	for _, cmd := range writeCmds {
		MemoryCommands.AddCommand(cmd)
	}
	MemoryCommands.AddCommand(batchCmd)
	MemoryCommands.AddCommand(perfTestCmd)
}

// setupIPCClient initializes the IPC client
func setupIPCClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	// Create the client
	ipcClient, err = client.NewIPCClient(*util.GetClientConfig(), t)
	return err
}
