package main

import (
	"fmt"

	"github.com/aretw0/clocktower/pkg/adapters/loam"
	"github.com/aretw0/clocktower/pkg/script"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [script.yaml...]",
	Short: "Check scripts for consistency",
	Long: `Checks that every character of a script exists and sits in the right group,
and that the night orders only wake characters of the script. With --scripts-dir,
every script document of the library is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("scripts-dir")
		if dir == "" && len(args) == 0 {
			return fmt.Errorf("nothing to validate: pass script files or --scripts-dir")
		}
		failed := 0
		report := func(name string, err error) {
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", name, err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", name)
		}

		for _, path := range args {
			_, err := script.Load(path)
			report(path, err)
		}
		if dir != "" {
			lib, err := loam.Open(dir)
			if err != nil {
				return err
			}
			ids, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				_, err := lib.Get(cmd.Context(), id)
				report(id, err)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d script(s) are invalid", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("scripts-dir", "", "Directory of markdown script documents")
}
