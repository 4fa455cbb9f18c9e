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

package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/doxa/core"
)

// DefaultProgressEvery is how many statements pass between progress lines.
const DefaultProgressEvery = 20

// ProgressTracker writes periodic progress lines for a run.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	reportInterval int
	result         core.Result
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: total number of statements in the run
// reportInterval: report progress every N statements
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = DefaultProgressEvery
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.result = core.Result{}
	p.lastReported = 0
}

// Record counts one finished statement and reports when an interval is crossed.
func (p *ProgressTracker) Record(state core.ItemState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.result.Record(state)
	if p.result.Processed-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.result.Processed
	}
}

// Finish prints the final line unless it was just printed.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	if p.result.Processed != p.lastReported || p.result.Processed == 0 {
		p.report()
		p.lastReported = p.result.Processed
	}
	p.started = false
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startTime.IsZero() {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.result.Processed) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.result.Processed) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "Progress: %d/%d (%.1f%%) persisted=%d skipped=%d failed=%d - %.1f statements/s\n",
		p.result.Processed, p.total, percentage,
		p.result.Persisted, p.result.Skipped, p.result.Failed, rate)
}
