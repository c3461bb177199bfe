package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/clocktower"
	"github.com/aretw0/clocktower/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve stored games to MCP hosts",
	Long: `Starts a Model Context Protocol server exposing stored games read-only:
summaries, public events, participant views and, once a game is over, its grimoire.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeStore, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := mcp.NewServer(sessions, clocktower.Version, logger)
		transport, _ := cmd.Flags().GetString("transport")
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			port, _ := cmd.Flags().GetInt("port")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ServeSSE(ctx, fmt.Sprintf(":%d", port), fmt.Sprintf("http://localhost:%d", port))
		}
		return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
