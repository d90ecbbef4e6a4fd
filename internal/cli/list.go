package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List NPCs with stored memory",
		Run:   runList,
	}
	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	st, _, err := openStorage()
	if err != nil {
		exitErr("open storage", err)
	}
	defer st.Close()

	ids, err := st.ListNPCs(context.Background())
	if err != nil {
		exitErr("list npcs", err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}
