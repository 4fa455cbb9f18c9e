package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditor struct {
	scopes   []core.Scope
	stats    map[core.Scope]*core.ScopeStats
	scopeErr error
	statsErr error
}

func (f *fakeAuditor) Scopes(ctx context.Context, byPaper bool) ([]core.Scope, error) {
	return f.scopes, f.scopeErr
}

func (f *fakeAuditor) ScopeStats(ctx context.Context, scope core.Scope) (*core.ScopeStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats[scope], nil
}

func insert(t *testing.T, repo *badger.ChunkRepository, figure, paper string, index, dims int) {
	t.Helper()
	embedding := make([]float32, dims)
	embedding[0] = 1
	err := repo.Insert(context.Background(), &core.Chunk{
		Author:      figure,
		FigureID:    figure,
		PaperTitle:  paper,
		Content:     fmt.Sprintf("%s chunk %d", figure, index),
		Embedding:   embedding,
		ChunkIndex:  index,
		ContentHash: fmt.Sprintf("%s-%s-%d", figure, paper, index),
	})
	require.NoError(t, err)
}

func newTestRepository(t *testing.T) *badger.ChunkRepository {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestAuditor_Run(t *testing.T) {
	repo := newTestRepository(t)
	insert(t, repo, "marx", "Capital", 0, 3)
	insert(t, repo, "marx", "Capital", 1, 3)
	insert(t, repo, "marx", "Grundrisse", 3, 3)
	insert(t, repo, "mises", "Human Action", 0, 3)
	insert(t, repo, "mises", "Human Action", 1, 4)

	auditor, err := NewAuditor(repo, WithPoolSize(2))
	require.NoError(t, err)
	defer auditor.Release()

	report, err := auditor.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Scopes, 2)
	assert.Equal(t, "marx", report.Scopes[0].Scope.FigureID)
	assert.Equal(t, "mises", report.Scopes[1].Scope.FigureID)
	assert.Equal(t, 5, report.Chunks())
	assert.False(t, report.OK())

	require.Len(t, report.Issues, 2)
	assert.Equal(t, IssueGaps, report.Issues[0].Kind)
	assert.Equal(t, "marx", report.Issues[0].Scope.FigureID)
	assert.Equal(t, IssueMixedDimensions, report.Issues[1].Kind)
	assert.Equal(t, "mises", report.Issues[1].Scope.FigureID)
}

func TestAuditor_RunByPaper(t *testing.T) {
	repo := newTestRepository(t)
	insert(t, repo, "marx", "Capital", 0, 3)
	insert(t, repo, "marx", "Capital", 1, 3)
	insert(t, repo, "marx", "Grundrisse", 0, 3)

	auditor, err := NewAuditor(repo, WithByPaper(true), WithDimensions(3))
	require.NoError(t, err)
	defer auditor.Release()

	report, err := auditor.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Scopes, 2)
	assert.True(t, report.OK())
}

func TestAuditor_RunEmpty(t *testing.T) {
	auditor, err := NewAuditor(newTestRepository(t))
	require.NoError(t, err)
	defer auditor.Release()

	report, err := auditor.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Scopes)
	assert.True(t, report.OK())
}

func TestAuditor_Errors(t *testing.T) {
	_, err := NewAuditor(nil)
	assert.ErrorIs(t, err, ErrAuditorRequired)

	_, err = NewAuditor(&fakeAuditor{}, WithDimensions(-1))
	assert.Error(t, err)

	boom := errors.New("connection refused")
	auditor, err := NewAuditor(&fakeAuditor{scopeErr: boom})
	require.NoError(t, err)
	defer auditor.Release()
	_, err = auditor.Run(context.Background())
	assert.ErrorIs(t, err, boom)

	failing, err := NewAuditor(&fakeAuditor{
		scopes:   []core.Scope{{FigureID: "marx"}, {FigureID: "mises"}},
		statsErr: boom,
	}, WithPoolSize(1))
	require.NoError(t, err)
	defer failing.Release()
	_, err = failing.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAuditor_Canceled(t *testing.T) {
	scope := core.Scope{FigureID: "marx"}
	auditor, err := NewAuditor(&fakeAuditor{
		scopes: []core.Scope{scope},
		stats:  map[core.Scope]*core.ScopeStats{scope: {Scope: scope}},
	})
	require.NoError(t, err)
	defer auditor.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = auditor.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck(t *testing.T) {
	scope := core.Scope{FigureID: "marx"}

	tests := []struct {
		name       string
		stats      core.ScopeStats
		dimensions int
		want       []IssueKind
	}{
		{
			name:  "contiguous",
			stats: core.ScopeStats{Scope: scope, Count: 3, MinIndex: 0, MaxIndex: 2, DistinctIndices: 3, Dimensions: []int{1536}},
		},
		{
			name:  "gaps",
			stats: core.ScopeStats{Scope: scope, Count: 3, MinIndex: 0, MaxIndex: 5, DistinctIndices: 3, Dimensions: []int{1536}},
			want:  []IssueKind{IssueGaps},
		},
		{
			name:  "duplicate indices",
			stats: core.ScopeStats{Scope: scope, Count: 4, MinIndex: 0, MaxIndex: 2, DistinctIndices: 3, Dimensions: []int{1536}},
			want:  []IssueKind{IssueDuplicateIndices},
		},
		{
			name:       "mixed and unexpected",
			stats:      core.ScopeStats{Scope: scope, Count: 2, MinIndex: 0, MaxIndex: 1, DistinctIndices: 2, Dimensions: []int{1536, 3072}},
			dimensions: 1536,
			want:       []IssueKind{IssueMixedDimensions, IssueDimensionMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []IssueKind
			for _, issue := range Check(&tt.stats, tt.dimensions) {
				got = append(got, issue.Kind)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReport_Write(t *testing.T) {
	scope := core.Scope{FigureID: "marx"}
	report := &Report{
		Scopes: []*core.ScopeStats{{Scope: scope, Count: 2, MaxIndex: 3, DistinctIndices: 2, Dimensions: []int{1536}}},
		Issues: []Issue{{Scope: scope, Kind: IssueGaps, Detail: "2 unused indices between 0 and 3"}},
	}

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf))
	assert.Contains(t, buf.String(), "chunks=2 indices=0..3 dims=[1536]")
	assert.Contains(t, buf.String(), "ISSUE marx: gaps (2 unused indices between 0 and 3)")
	assert.Contains(t, buf.String(), "1 scopes, 2 chunks, 1 issues")
}
