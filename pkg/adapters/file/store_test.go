package file_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/clocktower/pkg/adapters/file"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements EventStore
var _ ports.EventStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunEventStoreContract(t, store)
}

func TestFileStore_OneLinePerEvent(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	evt := domain.NewEvent(domain.EventPhaseChanged, domain.VisibilityPublic)
	evt.Seq = 1
	evt.Phase = domain.PhaseFirstNight
	evt.Round = 1
	require.NoError(t, store.Append(ctx, "g1", evt))

	data, err := os.ReadFile(filepath.Join(dir, "g1.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(data, []byte("\n")))
	assert.Contains(t, string(data), `"type":"phase_changed"`)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	_, err := store.Load(context.Background(), "../escape")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrGameNotFound)
}

func TestDecode_SkipsBlankLinesAndReportsBadOnes(t *testing.T) {
	events, err := file.Decode(bytes.NewBufferString("{\"seq\":1,\"type\":\"statement\"}\n\n{\"seq\":2,\"type\":\"statement\"}\n"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[1].Seq)

	_, err = file.Decode(bytes.NewBufferString("{\"seq\":1}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}
