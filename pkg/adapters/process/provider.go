package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
)

// ErrNoAgent is returned for a seat with no agent and no fallback provider.
var ErrNoAgent = errors.New("no agent plays this seat")

// RegisteredAgent is an allowed command.
type RegisteredAgent struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Provider implements ports.DecisionProvider by running a local process for
// every decision. Only registered commands run (allow-listing).
//
// The process receives the domain.DecisionRequest as JSON on stdin and must
// print a JSON object (the domain.Decision) on stdout. The seat, attempt and
// action kind are also exported as CLOCKTOWER_* environment variables.
type Provider struct {
	mu       sync.RWMutex
	registry map[string]RegisteredAgent
	seats    map[domain.Seat]string
	fallback ports.DecisionProvider
	baseDir  string
}

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithAgents registers the agents of a loaded config and assigns their seats.
func WithAgents(agents map[string]AgentConfig) ProviderOption {
	return func(p *Provider) {
		names := make([]string, 0, len(agents))
		for name := range agents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			agent := agents[name]
			p.Register(name, RegisteredAgent{Command: agent.Command, Args: agent.Args, Env: agent.Environment})
			for _, seat := range agent.Seats {
				p.Assign(domain.Seat(seat), name)
			}
		}
	}
}

// WithFallback answers the seats no agent was assigned to.
func WithFallback(fallback ports.DecisionProvider) ProviderOption {
	return func(p *Provider) {
		p.fallback = fallback
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) ProviderOption {
	return func(p *Provider) {
		p.baseDir = dir
	}
}

// NewProvider creates a new process provider.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		registry: make(map[string]RegisteredAgent),
		seats:    make(map[domain.Seat]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register adds a trusted command to the allow-list.
func (p *Provider) Register(name string, agent RegisteredAgent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registry[name] = agent
}

// Assign makes the named agent play seat.
func (p *Provider) Assign(seat domain.Seat, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seats[seat] = name
}

// RequestAction implements ports.DecisionProvider.
func (p *Provider) RequestAction(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	p.mu.RLock()
	name, assigned := p.seats[req.Seat]
	agent, registered := p.registry[name]
	p.mu.RUnlock()

	if !assigned {
		if p.fallback == nil {
			return nil, fmt.Errorf("seat %d: %w", req.Seat, ErrNoAgent)
		}
		return p.fallback.RequestAction(ctx, req)
	}
	if !registered {
		return nil, fmt.Errorf("agent not registered: %s", name)
	}

	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	// The request travels on stdin, never as command flags.
	cmd := exec.CommandContext(ctx, agent.Command, agent.Args...)
	cmd.Dir = p.baseDir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Env = append(cmd.Environ(),
		"CLOCKTOWER_SEAT="+strconv.Itoa(int(req.Seat)),
		"CLOCKTOWER_ATTEMPT="+strconv.Itoa(req.Attempt),
		"CLOCKTOWER_ACTION="+string(req.Schema.Kind),
	)
	for k, v := range agent.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("agent %s failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	var decision domain.Decision
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &decision); err != nil {
		return nil, fmt.Errorf("agent %s answered %q: %w", name, strings.TrimSpace(stdout.String()), err)
	}
	return decision, nil
}
