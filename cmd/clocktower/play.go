package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/clocktower"
	"github.com/aretw0/clocktower/internal/presentation/tui"
	"github.com/aretw0/clocktower/pkg/adapters/process"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/observability"
	"github.com/aretw0/clocktower/pkg/runner"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game to completion",
	Long: `Seats the players, deals characters and plays until a team wins.

By default every participant makes random legal choices. With --agent, decision
requests are written to stdout as JSON lines and answered on stdin, and the
narration moves to stderr. With --agents, the seats listed in the file are
played by local commands that read each request on stdin and print their
decision on stdout; the remaining seats play randomly.`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	f := playCmd.Flags()
	f.Int("players", 7, "Number of players (5 to 15)")
	f.StringSlice("names", nil, "Player names, in seat order (overrides --players)")
	f.Uint64("seed", 0, "Random seed (default: random)")
	f.String("id", "", "Game id (default: a random UUID)")
	f.Bool("agent", false, "Exchange decisions as JSON lines over stdin/stdout")
	f.String("agents", "", "YAML or JSON file assigning seats to agent commands")
	f.Bool("json", false, "Narrate events as JSON lines")
	f.Bool("storyteller", false, "Narrate private and storyteller events too")
	f.Bool("reveal", false, "Print the grimoire when the game ends")
	f.Duration("timeout", clocktower.DefaultConfig().DecisionTimeout, "Time limit of every decision")
	f.Int("max-rounds", clocktower.DefaultConfig().MaxRounds, "Round limit")
	f.String("virgin", string(clocktower.ExecuteNominee), "Who the Virgin's ability executes: nominee or nominator")
	addScriptFlags(playCmd)
}

func playerNames(cmd *cobra.Command) []string {
	if names, _ := cmd.Flags().GetStringSlice("names"); len(names) > 0 {
		return names
	}
	n, _ := cmd.Flags().GetInt("players")
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Player %d", i+1)
	}
	return names
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeStore, err := openSessions(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	s, err := resolveScript(cmd)
	if err != nil {
		return err
	}

	cfg := clocktower.DefaultConfig()
	cfg.DecisionTimeout, _ = cmd.Flags().GetDuration("timeout")
	cfg.MaxRounds, _ = cmd.Flags().GetInt("max-rounds")
	virgin, _ := cmd.Flags().GetString("virgin")
	cfg.VirginPolicy = clocktower.VirginPolicy(virgin)
	if cfg.VirginPolicy != clocktower.ExecuteNominator && cfg.VirginPolicy != clocktower.ExecuteNominee {
		return fmt.Errorf("unknown virgin policy %q", virgin)
	}

	opts := []clocktower.Option{
		clocktower.WithScript(s),
		clocktower.WithConfig(cfg),
		clocktower.WithSessions(sessions),
		clocktower.WithLogger(logger),
		clocktower.WithLifecycleHooks(observability.DebugHooks(logger)),
		clocktower.WithMiddleware(runner.LoggingMiddleware(logger), runner.SanitizeMiddleware()),
	}
	seed := rand.Uint64()
	if cmd.Flags().Changed("seed") {
		seed, _ = cmd.Flags().GetUint64("seed")
	}
	opts = append(opts, clocktower.WithSeed(seed))
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		opts = append(opts, clocktower.WithID(id))
	}

	out := cmd.OutOrStdout()
	if agent, _ := cmd.Flags().GetBool("agent"); agent {
		opts = append(opts, clocktower.WithProvider(runner.NewJSONProvider(os.Stdin, os.Stdout)))
		out = cmd.ErrOrStderr()
	} else if path, _ := cmd.Flags().GetString("agents"); path != "" {
		agents, err := process.LoadAgents(path)
		if err != nil {
			return err
		}
		opts = append(opts, clocktower.WithProvider(process.NewProvider(
			process.WithAgents(agents),
			process.WithFallback(runner.NewRandomProvider(seed)),
			process.WithBaseDir(filepath.Dir(path)),
		)))
	}
	interactive := out == os.Stdout && tui.IsInteractive(os.Stdout)
	opts = append(opts, clocktower.WithNarrator(narrator(cmd, out)))

	if interactive {
		tui.PrintBanner(out)
	}
	game, err := clocktower.New(playerNames(cmd), opts...)
	if err != nil {
		return err
	}
	logger.Info("playing", "game", game.ID(), "script", s.Name)

	record, err := game.Play(ctx)
	if err != nil {
		return fmt.Errorf("game %s: %w", game.ID(), err)
	}

	fmt.Fprintln(out, tui.Verdict(record.Winner, record.Reason, record.Rounds))
	if reveal, _ := cmd.Flags().GetBool("reveal"); reveal {
		printGrimoire(out, "Grimoire of "+record.ID, game.Grimoire(), interactive)
	}
	return nil
}

func narrator(cmd *cobra.Command, out io.Writer) runner.Narrator {
	storyteller, _ := cmd.Flags().GetBool("storyteller")
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		n := runner.NewJSONNarrator(out)
		if !storyteller {
			n.Filter = func(evt domain.Event) bool { return evt.Visibility == domain.VisibilityPublic }
		}
		return n
	}
	n := runner.NewTextNarrator(out)
	n.Storyteller = storyteller
	return n
}

func printGrimoire(out io.Writer, title string, entries []domain.GrimoireEntry, interactive bool) {
	md := tui.GrimoireMarkdown(title, entries)
	if interactive {
		if rendered, err := tui.NewRenderer()(md); err == nil {
			md = rendered
		}
	}
	fmt.Fprintln(out, strings.TrimRight(md, "\n"))
}
