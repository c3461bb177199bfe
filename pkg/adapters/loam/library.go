package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/clocktower/pkg/script"
	"github.com/aretw0/loam"
)

// Library serves custom scripts stored as markdown documents with YAML
// frontmatter in a loam repository.
type Library struct {
	Repo *loam.TypedRepository[ScriptMetadata]
}

// New creates a library over an existing typed repository.
func New(repo *loam.TypedRepository[ScriptMetadata]) *Library {
	return &Library{Repo: repo}
}

// Open opens dir as a read-only script library.
func Open(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath, loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ScriptMetadata](repo)), nil
}

// Get loads and validates the script document with the given id.
func (l *Library) Get(ctx context.Context, id string) (*script.Script, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	s, err := doc.Data.toScript(trimExtension(doc.ID), strings.TrimSpace(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", id, err)
	}
	return s, nil
}

// List returns the ids of every script document, sorted.
func (l *Library) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, trimExtension(doc.ID))
	}
	slices.Sort(ids)
	return ids, nil
}

func trimExtension(id string) string {
	if ext := filepath.Ext(id); ext != "" {
		id = strings.TrimSuffix(id, ext)
	}
	return filepath.ToSlash(id)
}
