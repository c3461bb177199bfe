package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/muesli/termenv"
)

// GrimoireMarkdown renders the storyteller's grimoire as a markdown table.
func GrimoireMarkdown(title string, entries []domain.GrimoireEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	sb.WriteString("| Seat | Player | Character | Team | State | Reminders |\n")
	sb.WriteString("|---:|---|---|---|---|---|\n")
	for _, e := range entries {
		state := "alive"
		if !e.Alive {
			state = "dead"
		}
		reminders := make([]string, 0, len(e.Statuses))
		for _, s := range e.Statuses {
			reminders = append(reminders, string(s))
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s |\n",
			e.Seat, escapeCell(e.Name), e.Character, e.Character.Alignment(), state, strings.Join(reminders, ", "))
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// Verdict formats the end of a game, coloured by the winning team.
func Verdict(winner domain.Alignment, reason string, rounds int) string {
	p := termenv.ColorProfile()
	var team termenv.Style
	switch winner {
	case domain.Good:
		team = termenv.String("GOOD WINS").Foreground(p.Color("#60a5fa")).Bold()
	case domain.Evil:
		team = termenv.String("EVIL WINS").Foreground(p.Color("#ef4444")).Bold()
	default:
		team = termenv.String("NO WINNER").Faint()
	}
	return fmt.Sprintf("%s after %d round(s): %s", team, rounds, reason)
}
