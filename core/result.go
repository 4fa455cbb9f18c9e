package core

import "slices"

// ItemState is the position of one statement in the ingestion state machine.
//
//	Pending -> Embedding -> {EmbeddingFailed | Embedded}
//	Embedded -> Persisting -> {Persisted | DuplicateSkipped | PersistFailed}
type ItemState int

const (
	StatePending ItemState = iota
	StateEmbedding
	StateEmbeddingFailed
	StateEmbedded
	StatePersisting
	StatePersisted
	StateDuplicateSkipped
	StatePersistFailed
)

var itemStateNames = map[ItemState]string{
	StatePending:          "pending",
	StateEmbedding:        "embedding",
	StateEmbeddingFailed:  "embedding_failed",
	StateEmbedded:         "embedded",
	StatePersisting:       "persisting",
	StatePersisted:        "persisted",
	StateDuplicateSkipped: "duplicate_skipped",
	StatePersistFailed:    "persist_failed",
}

// String returns the snake_case name of the state.
func (s ItemState) String() string {
	if name, ok := itemStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further transition follows s within a run.
func (s ItemState) IsTerminal() bool {
	switch s {
	case StateEmbeddingFailed, StatePersisted, StateDuplicateSkipped, StatePersistFailed:
		return true
	}
	return false
}

// IsFailure reports whether s is a terminal failure.
func (s ItemState) IsFailure() bool {
	return s == StateEmbeddingFailed || s == StatePersistFailed
}

// Failure identifies a statement that did not persist, for manual re-runs.
type Failure struct {
	Position int    // Zero-based position in the run's input
	Topic    string
	Prefix   string // Leading text of the statement
	State    ItemState
	Err      string
}

// Result summarizes one ingestion run.
type Result struct {
	Processed int
	Persisted int
	Skipped   int // Duplicates already present in the store
	Failed    int
	Limited   bool // Run stopped early at the persist limit
	Failures  []Failure
}

// Record counts a terminal state.
func (r *Result) Record(state ItemState) {
	if !state.IsTerminal() {
		return
	}
	r.Processed++
	switch state {
	case StatePersisted:
		r.Persisted++
	case StateDuplicateSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// AddFailure records a failed statement.
func (r *Result) AddFailure(f Failure) {
	r.Failures = append(r.Failures, f)
}

// ScopeStats describes what the store holds for one scope.
type ScopeStats struct {
	Scope           Scope
	Count           int
	MinIndex        int
	MaxIndex        int
	DistinctIndices int
	Dimensions      []int // Distinct embedding lengths, ascending
}

// Gaps returns how many indices between MinIndex and MaxIndex are unused.
func (s *ScopeStats) Gaps() int {
	if s.DistinctIndices == 0 {
		return 0
	}
	return (s.MaxIndex - s.MinIndex + 1) - s.DistinctIndices
}

// MixedDimensions reports whether more than one embedding length is stored.
func (s *ScopeStats) MixedDimensions() bool {
	return len(s.Dimensions) > 1
}

// AddDimension records an embedding length, keeping Dimensions sorted and unique.
func (s *ScopeStats) AddDimension(dim int) {
	i, found := slices.BinarySearch(s.Dimensions, dim)
	if !found {
		s.Dimensions = slices.Insert(s.Dimensions, i, dim)
	}
}
