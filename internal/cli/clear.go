package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear <npc-id>",
		Short: "Delete an NPC's memory record",
		Args:  cobra.ExactArgs(1),
		Run:   runClear,
	}
	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	st, _, err := openStorage()
	if err != nil {
		exitErr("open storage", err)
	}
	defer st.Close()

	if err := st.DeleteMemory(context.Background(), args[0]); err != nil {
		exitErr("delete memory", err)
	}
	fmt.Printf("cleared memory for %s\n", args[0])
}
