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
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle paces calls to the embedding service.
// Wait blocks until the next call may start or ctx is done.
type Throttle interface {
	Wait(ctx context.Context) error
}

// NoopThrottle never waits.
type NoopThrottle struct{}

func (NoopThrottle) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Defaults for PacingThrottle.
const (
	DefaultPacingEvery = 5
	DefaultPacingDelay = time.Second
)

// PacingThrottle pauses for a fixed delay after every N calls.
type PacingThrottle struct {
	every int
	delay time.Duration
	calls int
	sleep func(ctx context.Context, d time.Duration) error
	mu    sync.Mutex
}

// NewPacingThrottle pauses for delay after every 'every' calls.
func NewPacingThrottle(every int, delay time.Duration) (*PacingThrottle, error) {
	if every < 1 {
		return nil, fmt.Errorf("%w: pacing interval must be at least 1, got %d", ErrInvalidOption, every)
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: negative pacing delay %s", ErrInvalidOption, delay)
	}
	return &PacingThrottle{every: every, delay: delay, sleep: sleepContext}, nil
}

func (t *PacingThrottle) Wait(ctx context.Context) error {
	t.mu.Lock()
	calls := t.calls
	t.calls++
	t.mu.Unlock()

	if calls > 0 && calls%t.every == 0 && t.delay > 0 {
		return t.sleep(ctx, t.delay)
	}
	return ctx.Err()
}

// RateThrottle spaces calls with a token bucket.
type RateThrottle struct {
	limiter *rate.Limiter
}

// NewRateThrottle allows perSecond calls per second with the given burst.
func NewRateThrottle(perSecond float64, burst int) (*RateThrottle, error) {
	if perSecond <= 0 {
		return nil, fmt.Errorf("%w: rate must be positive, got %g", ErrInvalidOption, perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateThrottle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}, nil
}

func (t *RateThrottle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
