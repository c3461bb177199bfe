package main

import (
	"fmt"

	"github.com/aretw0/clocktower/pkg/adapters/loam"
	"github.com/aretw0/clocktower/pkg/script"
	"github.com/spf13/cobra"
)

func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().String("script", "", "Script YAML file, or a script id when --scripts-dir is set (default: Trouble Brewing)")
	cmd.Flags().String("scripts-dir", "", "Directory of markdown script documents")
}

func resolveScript(cmd *cobra.Command) (*script.Script, error) {
	name, _ := cmd.Flags().GetString("script")
	dir, _ := cmd.Flags().GetString("scripts-dir")
	switch {
	case dir != "" && name != "":
		lib, err := loam.Open(dir)
		if err != nil {
			return nil, err
		}
		return lib.Get(cmd.Context(), name)
	case dir != "":
		return nil, fmt.Errorf("--scripts-dir needs --script to pick a script")
	case name != "":
		return script.Load(name)
	}
	return script.TroubleBrewing(), nil
}
