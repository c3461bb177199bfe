package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/clocktower/pkg/domain"
)

// Overlay selects what the chart reveals beyond public information.
type Overlay struct {
	// Reveal labels every seat with its true character.
	Reveal bool
}

type edge struct {
	from, to domain.Seat
	day      int
	tally    *domain.Tally
}

// GenerateMermaid draws a game's nominations as a Mermaid flowchart. Each seat is
// a node; each nomination is an edge from nominator to nominee labelled with the
// day and the vote count. Dead players are drawn as circles and the executed
// are highlighted.
func GenerateMermaid(events []domain.Event, overlay *Overlay) string {
	var seats []domain.SeatAssignment
	dead := map[domain.Seat]bool{}
	executed := map[domain.Seat]bool{}
	var edges []*edge
	var open *edge

	for _, evt := range events {
		switch evt.Type {
		case domain.EventGameSetup:
			if evt.Setup != nil {
				seats = evt.Setup.Seats
			}
		case domain.EventDeath:
			dead[evt.Target] = true
		case domain.EventExecution:
			executed[evt.Target] = true
		case domain.EventNomination:
			if evt.Nomination == nil {
				continue
			}
			open = &edge{from: evt.Nomination.Nominator, to: evt.Nomination.Nominee, day: evt.Round}
			edges = append(edges, open)
		case domain.EventVoteClosed:
			if open != nil && evt.Tally != nil {
				t := *evt.Tally
				open.tally = &t
				open = nil
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	for _, s := range seats {
		label := s.Name
		if overlay != nil && overlay.Reveal {
			label = fmt.Sprintf("%s <br/> %s", s.Name, s.Character)
		}
		label = strings.ReplaceAll(label, "\"", "'")
		opener, closer := "[", "]"
		if dead[s.Seat] {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(s.Seat), opener, label, closer)
	}

	for _, e := range edges {
		label := fmt.Sprintf("day %d", e.day)
		if e.tally != nil {
			label = fmt.Sprintf("day %d: %d/%d", e.day, e.tally.For, e.tally.Threshold+1)
		}
		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if e.tally != nil && e.tally.Executed {
			arrow = fmt.Sprintf("== \"%s\" ==>", label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(e.from), arrow, nodeID(e.to))
	}

	if len(executed) > 0 || len(dead) > 0 {
		sb.WriteString("\n    classDef dead fill:#eeeeee,stroke:#616161,color:#000;\n")
		sb.WriteString("    classDef executed fill:#ffcdd2,stroke:#b71c1c,stroke-width:3px,color:#000;\n")
		for _, s := range seats {
			switch {
			case executed[s.Seat]:
				fmt.Fprintf(&sb, "    class %s executed;\n", nodeID(s.Seat))
			case dead[s.Seat]:
				fmt.Fprintf(&sb, "    class %s dead;\n", nodeID(s.Seat))
			}
		}
	}
	return sb.String()
}

func nodeID(s domain.Seat) string {
	return fmt.Sprintf("seat%d", s)
}
