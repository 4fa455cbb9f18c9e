// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package audit verifies a stored corpus after ingestion.
//
// For every scope it checks that chunk indices are contiguous and that all
// embeddings share one length. Scopes are inspected concurrently on a
// bounded worker pool; the store is only read.
package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/storage"
)

var (
	// ErrAuditorRequired is returned when no store is supplied.
	ErrAuditorRequired = errors.New("chunk auditor is required")
)

// IssueKind classifies a problem found in a scope.
type IssueKind int

const (
	// IssueGaps means some indices between the lowest and highest are unused.
	IssueGaps IssueKind = iota
	// IssueMixedDimensions means embeddings of different lengths are stored.
	IssueMixedDimensions
	// IssueDimensionMismatch means stored embeddings differ from the expected length.
	IssueDimensionMismatch
	// IssueDuplicateIndices means several chunks share an index.
	IssueDuplicateIndices
)

func (k IssueKind) String() string {
	switch k {
	case IssueGaps:
		return "gaps"
	case IssueMixedDimensions:
		return "mixed_dimensions"
	case IssueDimensionMismatch:
		return "dimension_mismatch"
	case IssueDuplicateIndices:
		return "duplicate_indices"
	default:
		return "unknown"
	}
}

// Issue is one problem in one scope.
type Issue struct {
	Scope  core.Scope
	Kind   IssueKind
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Scope, i.Kind, i.Detail)
}

// Report is the outcome of an audit.
type Report struct {
	Scopes []*core.ScopeStats
	Issues []Issue
}

// OK reports whether no issue was found.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// Chunks returns the total number of chunks across all scopes.
func (r *Report) Chunks() int {
	total := 0
	for _, s := range r.Scopes {
		total += s.Count
	}
	return total
}

// Write prints one line per scope followed by the issues.
func (r *Report) Write(w io.Writer) error {
	for _, s := range r.Scopes {
		_, err := fmt.Fprintf(w, "%-40s chunks=%d indices=%d..%d dims=%v\n",
			s.Scope, s.Count, s.MinIndex, s.MaxIndex, s.Dimensions)
		if err != nil {
			return err
		}
	}
	for _, issue := range r.Issues {
		if _, err := fmt.Fprintf(w, "ISSUE %s\n", issue); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d scopes, %d chunks, %d issues\n", len(r.Scopes), r.Chunks(), len(r.Issues))
	return err
}

// Check lists the issues of one scope. With dimensions zero, only mixed
// lengths are reported.
func Check(stats *core.ScopeStats, dimensions int) []Issue {
	var issues []Issue
	if gaps := stats.Gaps(); gaps > 0 {
		issues = append(issues, Issue{
			Scope:  stats.Scope,
			Kind:   IssueGaps,
			Detail: fmt.Sprintf("%d unused indices between %d and %d", gaps, stats.MinIndex, stats.MaxIndex),
		})
	}
	if dup := stats.Count - stats.DistinctIndices; dup > 0 {
		issues = append(issues, Issue{
			Scope:  stats.Scope,
			Kind:   IssueDuplicateIndices,
			Detail: fmt.Sprintf("%d chunks reuse an index", dup),
		})
	}
	if stats.MixedDimensions() {
		issues = append(issues, Issue{
			Scope:  stats.Scope,
			Kind:   IssueMixedDimensions,
			Detail: fmt.Sprintf("lengths %v", stats.Dimensions),
		})
	}
	if dimensions > 0 {
		for _, dim := range stats.Dimensions {
			if dim != dimensions {
				issues = append(issues, Issue{
					Scope:  stats.Scope,
					Kind:   IssueDimensionMismatch,
					Detail: fmt.Sprintf("found %d, want %d", dim, dimensions),
				})
			}
		}
	}
	return issues
}

// Auditor inspects every scope of a store.
type Auditor struct {
	store      storage.ChunkAuditor
	pool       *ants.Pool
	byPaper    bool
	dimensions int
	logger     *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor) error

// WithPoolSize sets how many scopes are inspected at once.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(a *Auditor) error {
		if size < 1 {
			size = 1
		}
		if a.pool != nil {
			a.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		a.pool = pool
		return nil
	}
}

// WithByPaper audits (figure, paper) scopes instead of whole figures.
func WithByPaper(byPaper bool) Option {
	return func(a *Auditor) error {
		a.byPaper = byPaper
		return nil
	}
}

// WithDimensions sets the embedding length every chunk should have.
func WithDimensions(dimensions int) Option {
	return func(a *Auditor) error {
		if dimensions < 0 {
			return fmt.Errorf("negative dimensions %d", dimensions)
		}
		a.dimensions = dimensions
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAuditor creates an auditor over store. Call Release when done.
func NewAuditor(store storage.ChunkAuditor, opts ...Option) (*Auditor, error) {
	if store == nil {
		return nil, ErrAuditorRequired
	}

	a := &Auditor{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			a.Release()
			return nil, err
		}
	}

	if a.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
		if err != nil {
			return nil, err
		}
		a.pool = pool
	}
	a.logger = a.logger.With("component", "audit")
	return a, nil
}

// Release stops the worker pool.
// The auditor should not be used after calling Release.
func (a *Auditor) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// Run inspects every scope and returns the report in scope order.
// The first store error aborts the audit.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	scopes, err := a.store.Scopes(ctx, a.byPaper)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	a.logger.Debug("audit started", "scopes", len(scopes), "by_paper", a.byPaper)

	stats := make([]*core.ScopeStats, len(scopes))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for i, scope := range scopes {
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				setErr(err)
				return
			}
			s, err := a.store.ScopeStats(ctx, scope)
			if err != nil {
				setErr(fmt.Errorf("%s: %w", scope, err))
				return
			}
			stats[i] = s
		})
		if err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	report := &Report{Scopes: stats}
	for _, s := range stats {
		issues := Check(s, a.dimensions)
		for _, issue := range issues {
			a.logger.Warn("audit issue", "scope", issue.Scope.String(), "kind", issue.Kind.String(), "detail", issue.Detail)
		}
		report.Issues = append(report.Issues, issues...)
	}

	a.logger.Info("audit finished", "scopes", len(stats), "chunks", report.Chunks(), "issues", len(report.Issues))
	return report, nil
}
