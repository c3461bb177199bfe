package loam

import (
	"context"
	"testing"

	"github.com/aretw0/clocktower/internal/testutils"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallTown = `---
name: Small Town
townsfolk: [washerwoman, librarian, investigator, chef, empath, monk]
outsiders: [butler, saint]
minions: [poisoner, baron]
demons: [imp]
first_night: [poisoner, washerwoman, librarian, investigator, chef, empath, butler]
other_nights: [poisoner, monk, imp, empath, butler]
evil_info_min_players: 8
---
A short script for new players.`

const broken = `---
name: Broken
townsfolk: [washerwoman]
demons: [imp, imp]
---`

func seedLibrary(t *testing.T, files map[string]string) *Library {
	t.Helper()
	lib, err := Open(testutils.WriteTree(t, files))
	require.NoError(t, err)
	return lib
}

func TestLibrary_Get(t *testing.T) {
	lib := seedLibrary(t, map[string]string{"small-town.md": smallTown})

	s, err := lib.Get(context.Background(), "small-town")
	require.NoError(t, err)
	assert.Equal(t, "Small Town", s.Name)
	assert.Equal(t, "A short script for new players.", s.Description)
	assert.Contains(t, s.Townsfolk, domain.Monk)
	assert.Equal(t, []domain.Character{domain.Imp}, s.Demons)
	assert.Equal(t, 8, s.EvilInfoMinPlayers)
	assert.Equal(t, 2, s.BaronOutsiders, "unset rules keep their defaults")
}

func TestLibrary_InvalidScript(t *testing.T) {
	lib := seedLibrary(t, map[string]string{"broken.md": broken})

	_, err := lib.Get(context.Background(), "broken")
	assert.Error(t, err)
}

func TestLibrary_List(t *testing.T) {
	lib := seedLibrary(t, map[string]string{"small-town.md": smallTown, "broken.md": broken})

	ids, err := lib.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "small-town"}, ids)
}
