package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/storage"
)

// ScopeMode selects the key chunk indices are allocated under.
type ScopeMode int

const (
	// ScopeByFigure numbers chunks across all papers of a figure.
	ScopeByFigure ScopeMode = iota
	// ScopeByPaper numbers chunks within each (figure, paper) pair.
	ScopeByPaper
)

func (m ScopeMode) String() string {
	if m == ScopeByPaper {
		return "paper"
	}
	return "figure"
}

// ParseScopeMode maps "figure" or "paper" to a ScopeMode.
func ParseScopeMode(s string) (ScopeMode, error) {
	switch s {
	case "", "figure":
		return ScopeByFigure, nil
	case "paper":
		return ScopeByPaper, nil
	default:
		return 0, fmt.Errorf("%w: unknown scope mode %q", ErrInvalidOption, s)
	}
}

// Scope returns the allocation scope of stmt.
func (m ScopeMode) Scope(stmt *core.PositionStatement) core.Scope {
	scope := core.Scope{FigureID: stmt.Figure()}
	if m == ScopeByPaper {
		scope.PaperTitle = stmt.Paper()
	}
	return scope
}

// NextIndex returns the index the next chunk of scope should use:
// one past the highest stored index, or start when the scope is empty.
func NextIndex(ctx context.Context, repo storage.ChunkRepository, scope core.Scope, start int) (int, error) {
	maxIndex, found, err := repo.MaxIndex(ctx, scope)
	if err != nil {
		return 0, err
	}
	if !found {
		return start, nil
	}
	return maxIndex + 1, nil
}

// allocator hands out indices for one run. It assumes a single writer
// per scope for the duration of the run.
type allocator struct {
	repo  storage.ChunkRepository
	start int
	next  map[core.Scope]int
	order []core.Scope
}

func newAllocator(repo storage.ChunkRepository, start int) *allocator {
	return &allocator{
		repo:  repo,
		start: start,
		next:  make(map[core.Scope]int),
	}
}

// resolve looks up scope once; later calls are no-ops.
func (a *allocator) resolve(ctx context.Context, scope core.Scope) error {
	if _, ok := a.next[scope]; ok {
		return nil
	}
	next, err := NextIndex(ctx, a.repo, scope, a.start)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIndexLookup, scope, err)
	}
	a.next[scope] = next
	a.order = append(a.order, scope)
	return nil
}

// refresh re-reads scope from the store after another writer took an index.
func (a *allocator) refresh(ctx context.Context, scope core.Scope) error {
	next, err := NextIndex(ctx, a.repo, scope, a.start)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIndexLookup, scope, err)
	}
	// The conflicting index is taken either way.
	a.next[scope] = max(next, a.next[scope]+1)
	return nil
}

// peek returns the index the next chunk of scope would get.
func (a *allocator) peek(scope core.Scope) int {
	return a.next[scope]
}

// commit consumes the current index of scope.
func (a *allocator) commit(scope core.Scope) {
	a.next[scope]++
}
