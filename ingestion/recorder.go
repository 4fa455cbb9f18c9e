package ingestion

import (
	"time"

	"github.com/poiesic/doxa/core"
)

// Recorder observes a run. Implementations must be cheap; they are called
// inline for every statement.
type Recorder interface {
	// RecordOutcome receives the terminal state of each statement.
	RecordOutcome(state core.ItemState)

	// RecordEmbedding receives the latency and result of each embedding call.
	RecordEmbedding(elapsed time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordOutcome(core.ItemState)         {}
func (noopRecorder) RecordEmbedding(time.Duration, error) {}
