package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/clocktower/pkg/domain"
)

// Narrator presents batches of new events.
type Narrator interface {
	Narrate(ctx context.Context, events []domain.Event) error
}

// NarratorFunc adapts a function to a Narrator.
type NarratorFunc func(ctx context.Context, events []domain.Event) error

func (f NarratorFunc) Narrate(ctx context.Context, events []domain.Event) error {
	return f(ctx, events)
}

// ContentRenderer is a function that transforms narration before it is written.
// This allows for rich terminal rendering without coupling this package to it.
type ContentRenderer func(string) (string, error)

// TextNarrator writes one human-readable line per event. By default only public
// events are narrated; Storyteller narrates everything.
type TextNarrator struct {
	Writer      io.Writer
	Renderer    ContentRenderer
	Storyteller bool
	Names       map[domain.Seat]string
}

// NewTextNarrator creates a narrator writing to w (stdout if nil).
func NewTextNarrator(w io.Writer) *TextNarrator {
	if w == nil {
		w = os.Stdout
	}
	return &TextNarrator{Writer: w, Names: make(map[domain.Seat]string)}
}

func (n *TextNarrator) Narrate(ctx context.Context, events []domain.Event) error {
	for _, evt := range events {
		if evt.Type == domain.EventGameSetup && evt.Setup != nil {
			for _, p := range evt.Setup.Seats {
				n.Names[p.Seat] = p.Name
			}
		}
		if evt.Visibility != domain.VisibilityPublic && !n.Storyteller {
			continue
		}
		line := n.describe(evt)
		if line == "" {
			continue
		}
		if n.Renderer != nil {
			if rendered, err := n.Renderer(line); err == nil {
				line = strings.TrimSpace(rendered)
			}
		}
		if _, err := fmt.Fprintln(n.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

func (n *TextNarrator) name(s domain.Seat) string {
	if name, ok := n.Names[s]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("seat %d", s)
}

func (n *TextNarrator) describe(evt domain.Event) string {
	switch evt.Type {
	case domain.EventPhaseChanged:
		return fmt.Sprintf("== %s %d ==", evt.Phase, evt.Round)
	case domain.EventDeath:
		return fmt.Sprintf("%s died (%s)", n.name(evt.Target), evt.Cause)
	case domain.EventExecution:
		return fmt.Sprintf("%s was executed", n.name(evt.Target))
	case domain.EventNominationsOpened:
		return "Nominations are open."
	case domain.EventNomination:
		return fmt.Sprintf("%s nominates %s", n.name(evt.Nomination.Nominator), n.name(evt.Nomination.Nominee))
	case domain.EventVote:
		return fmt.Sprintf("  %s votes %s", n.name(evt.Vote.Voter), evt.Vote.Choice)
	case domain.EventVoteClosed:
		return fmt.Sprintf("  %d for, %d needed", evt.Tally.For, evt.Tally.Threshold+1)
	case domain.EventSlayerShot:
		return fmt.Sprintf("%s shoots %s: %s", n.name(evt.Actor), n.name(evt.Target), evt.Reason)
	case domain.EventStatement:
		if evt.Visibility == domain.VisibilityPrivate {
			return fmt.Sprintf("%s (private): %s", n.name(evt.Actor), evt.Text)
		}
		return fmt.Sprintf("%s: %s", n.name(evt.Actor), evt.Text)
	case domain.EventGameOver:
		return fmt.Sprintf("Game over: %s wins (%s)", evt.Winner, evt.Reason)
	}
	if n.Storyteller {
		return fmt.Sprintf("[%s] %s actor=%d target=%d %s", evt.Visibility, evt.Type, evt.Actor, evt.Target, evt.Reason)
	}
	return ""
}

// JSONNarrator writes every event as a JSON line, optionally filtered.
type JSONNarrator struct {
	encoder *json.Encoder
	Filter  func(domain.Event) bool
}

// NewJSONNarrator creates a narrator writing JSON Lines to w.
func NewJSONNarrator(w io.Writer) *JSONNarrator {
	if w == nil {
		w = os.Stdout
	}
	return &JSONNarrator{encoder: json.NewEncoder(w)}
}

func (n *JSONNarrator) Narrate(ctx context.Context, events []domain.Event) error {
	for _, evt := range events {
		if n.Filter != nil && !n.Filter(evt) {
			continue
		}
		if err := n.encoder.Encode(evt); err != nil {
			return err
		}
	}
	return nil
}
