package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"voxnote/internal/ipc"
)

var socketPath string

var rootCmd = &cobra.Command{
	Use:   "voxnote-ctl",
	Short: "Control a running voxnote daemon",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", ipc.DefaultSocketPath(), "Control socket path")

	for _, c := range []struct{ cmd, short string }{
		{ipc.CmdToggle, "Enable or mute notifications"},
		{ipc.CmdTest, "Play a test notification"},
		{ipc.CmdReplay, "Replay the last notification"},
		{ipc.CmdRandom, "Play a random ambient chat clip"},
		{ipc.CmdNight, "Play the midnight clip"},
		{ipc.CmdReload, "Reload voice clips from disk"},
		{ipc.CmdStatus, "Show daemon status"},
	} {
		rootCmd.AddCommand(&cobra.Command{
			Use:   c.cmd,
			Short: c.short,
			Args:  cobra.NoArgs,
			Run:   send(c.cmd),
		})
	}
}

func send(cmd string) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, args []string) {
		reply, err := ipc.SendCommand(socketPath, ipc.ControlMessage{Cmd: cmd, Args: args})
		if err != nil {
			exitErr(cmd, err)
		}
		printData(reply.Data)
	}
}

func printData(data map[string]string) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-9s %s\n", k+":", data[k])
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
