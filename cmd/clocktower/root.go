package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/clocktower/internal/logging"
	"github.com/spf13/cobra"
)

var logger = logging.NewNop()

var rootCmd = &cobra.Command{
	Use:   "clocktower",
	Short: "Clocktower is a storyteller engine for Blood on the Clocktower",
	Long: `Clocktower runs games of Blood on the Clocktower between external agents,
keeps every game as a replayable event log and serves stored games over HTTP and MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(raw)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("log-json"); asJSON {
			logger = logging.NewJSON(os.Stderr, level)
		} else {
			logger = logging.New(level)
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.Bool("log-json", false, "Log JSON records to stderr")
	pf.String("store", "file", "Game store: memory, file or redis")
	pf.String("dir", ".clocktower/games", "Directory of the file store")
	pf.String("redis-addr", "localhost:6379", "Redis address")
	pf.String("redis-password", "", "Redis password")
	pf.Int("redis-db", 0, "Redis database")
	pf.Duration("ttl", 0, "Expiration of stored games (redis only, 0 keeps them)")
	pf.StringSlice("redact", nil, "Regular expressions masked in stored statements")
}
