package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/clocktower/internal/presentation/graph"
	"github.com/aretw0/clocktower/internal/presentation/tui"
	"github.com/aretw0/clocktower/internal/runtime"
	"github.com/aretw0/clocktower/pkg/adapters/file"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay [game-id]",
	Short: "Replay a stored game",
	Long: `Rebuilds a game from its event log, read from the store or from a JSONL file,
and narrates it. With --seat, prints what that participant had observed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	f := replayCmd.Flags()
	f.String("file", "", "Read the log from a JSONL file instead of the store")
	f.Int("seat", -1, "Print the view of this seat as JSON")
	f.Bool("graph", false, "Print the nominations as a Mermaid chart")
	f.Bool("reveal", false, "Reveal characters (grimoire and chart)")
	f.String("export", "", "Write the log to this JSONL file")
	f.Bool("json", false, "Narrate events as JSON lines")
	f.Bool("storyteller", false, "Narrate private and storyteller events too")
}

func runReplay(cmd *cobra.Command, args []string) error {
	events, id, err := loadLog(cmd, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if export, _ := cmd.Flags().GetString("export"); export != "" {
		f, err := os.Create(export)
		if err != nil {
			return err
		}
		if err := file.Encode(f, events); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("log exported", "game", id, "path", export, "events", len(events))
	}

	if seat, _ := cmd.Flags().GetInt("seat"); seat >= 0 {
		view, err := runtime.ReplayView(events, domain.Seat(seat))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	g, err := runtime.Replay(events)
	if err != nil {
		return fmt.Errorf("replay %s: %w", id, err)
	}
	reveal, _ := cmd.Flags().GetBool("reveal")

	if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
		fmt.Fprint(out, graph.GenerateMermaid(events, &graph.Overlay{Reveal: reveal && g.Over}))
		return nil
	}

	if err := narrator(cmd, out).Narrate(cmd.Context(), events); err != nil {
		return err
	}
	if !g.Over {
		fmt.Fprintf(out, "Game %s is still in progress (%s %d).\n", id, g.Phase, g.Round)
		return nil
	}
	fmt.Fprintln(out, tui.Verdict(g.Winner, g.Reason, g.Round))
	if reveal {
		printGrimoire(out, "Grimoire of "+id, g.Entries(), tui.IsInteractive(os.Stdout))
	}
	return nil
}

func loadLog(cmd *cobra.Command, args []string) ([]domain.Event, string, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		events, err := file.Decode(f)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return events, path, nil
	}
	if len(args) == 0 {
		return nil, "", errors.New("a game id or --file is required")
	}

	sessions, closeStore, err := openSessions(cmd)
	if err != nil {
		return nil, "", err
	}
	defer closeStore()
	events, err := sessions.Load(cmd.Context(), args[0])
	if err != nil {
		return nil, "", err
	}
	return events, args[0], nil
}
