package mem

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/vmIPC/cmd/util"
	"github.com/ValentinKolb/vmIPC/rpc/client"
	"github.com/ValentinKolb/vmIPC/rpc/common"
	"github.com/spf13/cobra"
)

var (
	readCmds = []*cobra.Command{
		newReadCmd(common.MsgRead8),
		newReadCmd(common.MsgRead16),
		newReadCmd(common.MsgRead32),
		newReadCmd(common.MsgRead64),
	}
	writeCmds = []*cobra.Command{
		newWriteCmd(common.MsgWrite8),
		newWriteCmd(common.MsgWrite16),
		newWriteCmd(common.MsgWrite32),
		newWriteCmd(common.MsgWrite64),
	}
	batchCmd = &cobra.Command{
		Use:   "batch [command]...",
		Short: "Executes several commands in one request",
		Long: `Executes several commands in one request. Commands are executed in the given order
and the results of all reads are printed in the same order.

Format: rN:ADDR for reads and wN:ADDR=VALUE for writes (N = 8, 16, 32, 64)

Example: vmipc mem batch w32:0x1000=0xdeadbeef r32:0x1000 r8:0x1003`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := client.NewBatch()
			for _, arg := range args {
				if err := addCommand(batch, arg); err != nil {
					return err
				}
			}

			results, err := ipcClient.Exec(batch)
			if err != nil {
				return err
			}

			i := 0
			for _, arg := range args {
				if strings.Contains(arg, "=") {
					continue
				}
				fmt.Printf("%s = %#x\n", arg, results[i])
				i++
			}
			fmt.Printf("executed %d commands\n", batch.Len())
			return nil
		},
	}
)

// newReadCmd creates the command for a single read of op's width
func newReadCmd(op common.Opcode) *cobra.Command {
	info, _ := op.Info()
	return &cobra.Command{
		Use:   fmt.Sprintf("%s [addr]", op),
		Short: fmt.Sprintf("Reads %d byte(s) at an address", info.Width),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := util.ParseAddress(args[0])
			if err != nil {
				return err
			}
			results, err := ipcClient.Exec(client.NewBatch().Add(op, addr, 0))
			if err != nil {
				return err
			}
			fmt.Printf("addr=%#08x, value=%#x (%d)\n", addr, results[0], results[0])
			return nil
		},
	}
}

// newWriteCmd creates the command for a single write of op's width
func newWriteCmd(op common.Opcode) *cobra.Command {
	info, _ := op.Info()
	return &cobra.Command{
		Use:   fmt.Sprintf("%s [addr] [value]", op),
		Short: fmt.Sprintf("Writes %d byte(s) at an address", info.Width),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := util.ParseAddress(args[0])
			if err != nil {
				return err
			}
			value, err := util.ParseUint(args[1], info.Width*8)
			if err != nil {
				return err
			}
			if _, err := ipcClient.Exec(client.NewBatch().Add(op, addr, value)); err != nil {
				return err
			}
			fmt.Println("written successfully")
			return nil
		},
	}
}

// addCommand parses a batch argument (r32:ADDR or w32:ADDR=VALUE) and adds it to batch
func addCommand(batch *client.Batch, arg string) error {
	name, operand, ok := strings.Cut(arg, ":")
	if !ok {
		return fmt.Errorf("invalid command %q (expected OP:ADDR or OP:ADDR=VALUE)", arg)
	}

	op, err := common.ParseOpcode(name)
	if err != nil {
		return err
	}
	info, _ := op.Info()

	addrStr, valueStr, hasValue := strings.Cut(operand, "=")
	if hasValue != info.Write {
		if info.Write {
			return fmt.Errorf("write command %q needs a value (%s:ADDR=VALUE)", arg, name)
		}
		return fmt.Errorf("read command %q takes no value", arg)
	}

	addr, err := util.ParseAddress(addrStr)
	if err != nil {
		return err
	}

	var value uint64
	if hasValue {
		if value, err = util.ParseUint(valueStr, info.Width*8); err != nil {
			return err
		}
	}

	batch.Add(op, addr, value)
	return nil
}
