package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "view <npc-id>",
		Short: "Print an NPC's memory record as JSON",
		Args:  cobra.ExactArgs(1),
		Run:   runView,
	}
	RootCmd.AddCommand(cmd)
}

func runView(cmd *cobra.Command, args []string) {
	st, _, err := openStorage()
	if err != nil {
		exitErr("open storage", err)
	}
	defer st.Close()

	record, err := st.LoadMemory(context.Background(), args[0])
	if err != nil {
		exitErr("load memory", err)
	}
	if record == nil {
		fmt.Fprintf(os.Stderr, "no memory record for %s\n", args[0])
		os.Exit(1)
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		exitErr("encode record", err)
	}
	fmt.Println(string(out))
}
