package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var apiURL string

func init() {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Ask a running API server to flush all dirty NPC memory",
		Run:   runFlush,
	}
	cmd.Flags().StringVar(&apiURL, "addr", "http://localhost:8080", "Base URL of the API server")
	RootCmd.AddCommand(cmd)
}

func runFlush(cmd *cobra.Command, args []string) {
	client := &http.Client{Timeout: 30 * time.Second}
	url := strings.TrimRight(apiURL, "/") + "/v1/admin/memories/save"

	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		exitErr("call api", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		exitErr("flush", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	fmt.Println(strings.TrimSpace(string(body)))
}
