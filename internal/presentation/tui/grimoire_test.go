package tui

import (
	"os"
	"testing"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGrimoireMarkdown(t *testing.T) {
	entries := []domain.GrimoireEntry{
		{Seat: 0, Name: "Ann", Character: domain.Imp, Alive: true},
		{Seat: 1, Name: "B|b", Character: domain.Chef, Alive: false, Statuses: []domain.StatusKind{domain.StatusPoisoned}},
	}

	md := GrimoireMarkdown("Grimoire", entries)
	assert.Contains(t, md, "# Grimoire")
	assert.Contains(t, md, "| 0 | Ann | imp | evil | alive |  |")
	assert.Contains(t, md, "| 1 | B\\|b | chef | good | dead | poisoned |")
}

func TestVerdict(t *testing.T) {
	assert.Contains(t, Verdict(domain.Good, "the demon died", 3), "GOOD WINS")
	assert.Contains(t, Verdict(domain.Evil, "two players remain", 4), "after 4 round(s): two players remain")
	assert.Contains(t, Verdict("", "round limit", 20), "NO WINNER")
}

func TestRenderer(t *testing.T) {
	out, err := NewRenderer()("**bold**")
	assert.NoError(t, err)
	assert.Contains(t, out, "bold")
}

func TestIsInteractive(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	assert.NoError(t, err)
	defer f.Close()
	assert.False(t, IsInteractive(f))
	assert.False(t, IsInteractive(nil))
}
