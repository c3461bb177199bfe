package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/script"
	"github.com/stretchr/testify/require"
)

// table is a scripted provider: every participant answers from fixed tables and
// passes during the day unless told otherwise.
type table struct {
	mu       sync.Mutex
	targets  map[domain.Seat][]int
	votes    map[domain.Seat]domain.VoteChoice
	day      func(req domain.DecisionRequest) domain.Decision
	requests []domain.DecisionRequest
}

func newTable() *table {
	return &table{
		targets: make(map[domain.Seat][]int),
		votes:   make(map[domain.Seat]domain.VoteChoice),
	}
}

func (tb *table) RequestAction(_ context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.requests = append(tb.requests, req)

	switch req.Schema.Kind {
	case domain.ActionChooseTargets:
		if t, ok := tb.targets[req.Seat]; ok {
			return domain.Decision{"targets": t}, nil
		}
		var first []int
		for _, c := range req.Schema.Candidates[:req.Schema.MinTargets] {
			first = append(first, int(c))
		}
		return domain.Decision{"targets": first}, nil
	case domain.ActionVote:
		if v, ok := tb.votes[req.Seat]; ok {
			return domain.Decision{"vote": string(v)}, nil
		}
		return domain.Decision{"vote": "against"}, nil
	default:
		if tb.day != nil {
			return tb.day(req), nil
		}
		return domain.Decision{"action": "pass"}, nil
	}
}

func (tb *table) requestsOf(kind domain.ActionKind) []domain.DecisionRequest {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	var out []domain.DecisionRequest
	for _, r := range tb.requests {
		if r.Schema.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("player-%d", i)
	}
	return out
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("k%d", n)
	}
}

// newGame seats len(chars) players with the given characters.
func newGame(t *testing.T, provider *table, chars []domain.Character, opts ...EngineOption) *Engine {
	t.Helper()
	return newGameOn(t, script.TroubleBrewing(), provider, chars, opts...)
}

func newGameOn(t *testing.T, s *script.Script, provider ports.DecisionProvider, chars []domain.Character, opts ...EngineOption) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DecisionTimeout = time.Second
	base := []EngineOption{WithSeed(7), WithIDGenerator(sequentialIDs()), WithConfig(cfg)}
	e := NewEngine(s, provider, append(base, opts...)...)
	require.NoError(t, e.Setup(context.Background(), names(len(chars)), chars))
	return e
}

// interrupter cancels the game the first time a matching request arrives, and
// otherwise answers from the table.
type interrupter struct {
	*table
	cancel context.CancelFunc

	mu    sync.Mutex
	fired bool
	match func(domain.DecisionRequest) bool
}

func (in *interrupter) RequestAction(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	in.mu.Lock()
	hit := !in.fired && in.match != nil && in.match(req)
	if hit {
		in.fired = true
	}
	in.mu.Unlock()
	if !hit {
		return in.table.RequestAction(ctx, req)
	}
	in.cancel()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (in *interrupter) arm(match func(domain.DecisionRequest) bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.match = match
}

// toDay plays the first night and moves to the first day.
func toDay(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.Advance(ctx))
	require.NoError(t, e.Step(ctx))
	require.NoError(t, e.Advance(ctx))
	require.Equal(t, domain.PhaseDay, e.Phase())
}

// toNight finishes the current day with everyone passing and enters the next night.
func toNight(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.Step(ctx))
	require.NoError(t, e.Advance(ctx))
	require.Equal(t, domain.PhaseNight, e.Phase())
}

func openNominations(t *testing.T, e *Engine) {
	t.Helper()
	_, err := e.emit(context.Background(), domain.NewEvent(domain.EventNominationsOpened, domain.VisibilityPublic))
	require.NoError(t, err)
}

func eventsOf(e *Engine, typ domain.EventType) []domain.Event {
	return e.log.OfType(typ)
}

func knowledgeFor(e *Engine, seat domain.Seat, ability domain.Character) []domain.KnowledgeItem {
	var out []domain.KnowledgeItem
	for _, evt := range eventsOf(e, domain.EventKnowledge) {
		if evt.Knowledge.Recipient == seat && evt.Knowledge.Ability == ability {
			out = append(out, *evt.Knowledge)
		}
	}
	return out
}
