package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/clocktower/pkg/domain"
)

// ErrProviderClosed is returned once the decision stream has ended.
var ErrProviderClosed = errors.New("decision stream closed")

// JSONRequest is one line written by JSONProvider.
type JSONRequest struct {
	ID      uint64                 `json:"id"`
	Request domain.DecisionRequest `json:"request"`
}

// JSONReply is one line read by JSONProvider. The ID must echo the request's.
type JSONReply struct {
	ID       uint64          `json:"id"`
	Decision domain.Decision `json:"decision"`
	Error    string          `json:"error,omitempty"`
}

type reply struct {
	decision domain.Decision
	err      error
}

// JSONProvider exchanges decisions with an external host as JSON Lines: every
// request is written as a JSONRequest and answered by a JSONReply carrying the
// same id. Requests may be outstanding concurrently and replies may arrive in
// any order. Replies to requests that already gave up are dropped.
type JSONProvider struct {
	reader *bufio.Reader

	wmu     sync.Mutex
	encoder *json.Encoder

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan reply
	closed  error

	startOnce sync.Once
}

// NewJSONProvider creates a provider writing requests to w and reading replies from r.
func NewJSONProvider(r io.Reader, w io.Writer) *JSONProvider {
	return &JSONProvider{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
		pending: make(map[uint64]chan reply),
	}
}

// RequestAction implements ports.DecisionProvider.
func (p *JSONProvider) RequestAction(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	p.startOnce.Do(func() { go p.pump() })

	p.mu.Lock()
	if p.closed != nil {
		p.mu.Unlock()
		return nil, p.closed
	}
	p.nextID++
	id := p.nextID
	ch := make(chan reply, 1)
	p.pending[id] = ch
	p.mu.Unlock()
	defer p.forget(id)

	p.wmu.Lock()
	err := p.encoder.Encode(JSONRequest{ID: id, Request: req})
	p.wmu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write decision request: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.decision, r.err
	}
}

func (p *JSONProvider) forget(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, id)
}

// pump reads replies until the stream ends and routes them to their requests.
func (p *JSONProvider) pump() {
	for {
		line, err := p.reader.ReadString('\n')
		if text := strings.TrimSpace(line); text != "" {
			p.route(text)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrProviderClosed
			}
			p.close(err)
			return
		}
	}
}

func (p *JSONProvider) route(line string) {
	var msg JSONReply
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return
	}
	r := reply{decision: msg.Decision}
	if msg.Error != "" {
		r.err = errors.New(msg.Error)
	}

	p.mu.Lock()
	ch, ok := p.pending[msg.ID]
	delete(p.pending, msg.ID)
	p.mu.Unlock()
	if ok {
		ch <- r
	}
}

func (p *JSONProvider) close(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = err
	for id, ch := range p.pending {
		ch <- reply{err: err}
		delete(p.pending, id)
	}
}
