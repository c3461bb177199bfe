package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/clocktower/internal/runtime"
	httpadapter "github.com/aretw0/clocktower/pkg/adapters/http"
	"github.com/aretw0/clocktower/pkg/adapters/memory"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var players = []string{"Ann", "Bob", "Cat", "Dan", "Eve", "Fay", "Gus"}

// fixture stores a finished game as "done" and a game still in its first night as "live".
func fixture(t *testing.T) (*httpadapter.Server, []domain.Event) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	done := runtime.NewEngine(nil, runner.NewRandomProvider(5), runtime.WithSeed(5))
	require.NoError(t, done.Setup(ctx, players, nil))
	require.NoError(t, done.Run(ctx))
	require.NoError(t, store.Append(ctx, "done", done.Events()...))

	live := runtime.NewEngine(nil, runner.NewRandomProvider(6), runtime.WithSeed(6))
	require.NoError(t, live.Setup(ctx, players, nil))
	require.NoError(t, live.Advance(ctx))
	require.NoError(t, store.Append(ctx, "live", live.Events()...))

	return httpadapter.NewServer(store, nil), done.Events()
}

func get(t *testing.T, h http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestServer_HealthAndInfo(t *testing.T) {
	srv, _ := fixture(t)
	h := srv.Handler()

	var health map[string]string
	assert.Equal(t, http.StatusOK, get(t, h, "/health", &health).Code)
	assert.Equal(t, "ok", health["status"])

	var info map[string]string
	rec := get(t, h, "/info", &info)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "clocktower-http", info["app"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_ListAndSummary(t *testing.T) {
	srv, events := fixture(t)
	h := srv.Handler()

	var list map[string][]string
	require.Equal(t, http.StatusOK, get(t, h, "/games", &list).Code)
	assert.Equal(t, []string{"done", "live"}, list["games"])

	var summary domain.GameSummary
	require.Equal(t, http.StatusOK, get(t, h, "/games/done", &summary).Code)
	assert.True(t, summary.Over)
	assert.NotEmpty(t, summary.Winner)
	assert.Equal(t, len(events), summary.Events)
	assert.Len(t, summary.Players, len(players))

	require.Equal(t, http.StatusOK, get(t, h, "/games/live", &summary).Code)
	assert.False(t, summary.Over)
	assert.Equal(t, domain.PhaseFirstNight, summary.Phase)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/games/missing", nil).Code)
}

func TestServer_EventsArePublicOnly(t *testing.T) {
	srv, events := fixture(t)
	h := srv.Handler()

	var public []domain.Event
	require.Equal(t, http.StatusOK, get(t, h, "/games/done/events", &public).Code)
	require.NotEmpty(t, public)
	for _, evt := range public {
		assert.Equal(t, domain.VisibilityPublic, evt.Visibility)
	}

	since := events[len(events)/2].Seq
	var tail []domain.Event
	require.Equal(t, http.StatusOK, get(t, h, fmt.Sprintf("/games/done/events?since=%d", since), &tail).Code)
	for _, evt := range tail {
		assert.Greater(t, evt.Seq, since)
	}
	assert.Equal(t, domain.EventGameOver, tail[len(tail)-1].Type)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/games/done/events?since=-1", nil).Code)
}

func TestServer_View(t *testing.T) {
	srv, events := fixture(t)
	h := srv.Handler()

	var view domain.View
	require.Equal(t, http.StatusOK, get(t, h, "/games/done/views/3", &view).Code)
	want, err := runtime.ReplayView(events, 3)
	require.NoError(t, err)
	assert.Equal(t, want.Character, view.Character)
	assert.Equal(t, want.Alignment, view.Alignment)
	assert.Len(t, view.Knowledge, len(want.Knowledge))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/games/done/views/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/games/done/views/ann", nil).Code)
}

func TestServer_GrimoireSealedUntilGameOver(t *testing.T) {
	srv, _ := fixture(t)
	h := srv.Handler()

	assert.Equal(t, http.StatusForbidden, get(t, h, "/games/live/grimoire", nil).Code)

	var entries []domain.GrimoireEntry
	require.Equal(t, http.StatusOK, get(t, h, "/games/done/grimoire", &entries).Code)
	require.Len(t, entries, len(players))
	var demons int
	for _, entry := range entries {
		if entry.Character.Kind() == domain.Demon {
			demons++
		}
	}
	assert.GreaterOrEqual(t, demons, 1)
}

func TestServer_StreamPublishesPublicEvents(t *testing.T) {
	srv, _ := fixture(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/games/live/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		t.Fatal("stream ended")
		return ""
	}
	assert.Equal(t, "connected", readData())

	hook := srv.Streams.Hook("live")
	secret := domain.NewEvent(domain.EventKnowledge, domain.VisibilityPrivate)
	secret.Seq = 10
	hook.OnEvent(ctx, secret)
	death := domain.NewEvent(domain.EventDeath, domain.VisibilityPublic)
	death.Seq, death.Target = 11, 2
	hook.OnEvent(ctx, death)

	var got domain.Event
	require.NoError(t, json.Unmarshal([]byte(readData()), &got))
	assert.Equal(t, uint64(11), got.Seq, "the private event never reaches the stream")
	assert.Equal(t, domain.EventDeath, got.Type)
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := httpadapter.NewStreamManager(nil)
	ch, cancel := sm.Subscribe("g")
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	sm.Publish("g", domain.NewEvent(domain.EventDeath, domain.VisibilityPublic))
}
