package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
)

const ext = ".jsonl"

// maxLine bounds a single encoded event.
const maxLine = 1 << 20

// Store implements ports.EventStore using the local filesystem.
// Each game is one JSON Lines file, one event per line.
type Store struct {
	BasePath string
	mu       sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".clocktower/games".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".clocktower", "games")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(gameID string) (string, error) {
	if gameID == "" {
		return "", fmt.Errorf("gameID cannot be empty")
	}
	if strings.ContainsAny(gameID, `/\`) || gameID == "." || gameID == ".." {
		return "", fmt.Errorf("invalid gameID %q", gameID)
	}
	return filepath.Join(s.BasePath, gameID+ext), nil
}

// Append writes events to the end of the game file and syncs it.
func (s *Store) Append(ctx context.Context, gameID string, events ...domain.Event) error {
	path, err := s.path(gameID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(path)
	if err != nil && !errors.Is(err, domain.ErrGameNotFound) {
		return err
	}
	var last uint64
	if len(existing) > 0 {
		last = existing[len(existing)-1].Seq
	}
	if err := ports.CheckSequence(gameID, last, events); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure game directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open game file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, events); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync game file: %w", err)
	}
	return nil
}

// Load reads the whole game file.
func (s *Store) Load(ctx context.Context, gameID string) ([]domain.Event, error) {
	path, err := s.path(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(path)
}

func (s *Store) read(path string) ([]domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to read game file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Delete removes the game file.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	path, err := s.path(gameID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete game file: %w", err)
	}
	return nil
}

// List returns the stored game IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	var games []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ext {
			games = append(games, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	sort.Strings(games)
	return games, nil
}

// Encode writes events as JSON Lines.
func Encode(w io.Writer, events []domain.Event) error {
	enc := json.NewEncoder(w)
	for _, evt := range events {
		if err := enc.Encode(evt); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", evt.Seq, err)
		}
	}
	return nil
}

// Decode reads JSON Lines events until EOF. Blank lines are skipped.
func Decode(r io.Reader) ([]domain.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	var events []domain.Event
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var evt domain.Event
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan events: %w", err)
	}
	return events, nil
}
