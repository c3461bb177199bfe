package main

import (
	"fmt"

	"github.com/aretw0/clocktower"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of clocktower",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("clocktower version %s\n", clocktower.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
