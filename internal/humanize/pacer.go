// Package humanize paces browser actions the way a person would, with
// random pauses and imperfect typing.
package humanize

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer decides how long to wait between actions.
//
// note: fault injection point
type Pacer interface {
	// Between returns a duration in [min, max].
	Between(min, max time.Duration) time.Duration
	// Pause sleeps for a duration in [min, max], it returns early with the
	// context's error when the context is done.
	Pause(ctx context.Context, min, max time.Duration) error
	// Float returns a number in [0, 1).
	Float() float64
	// IntN returns a number in [0, n).
	IntN(n int) int
}

// RandomPacer is the Pacer used against real shops.
type RandomPacer struct {
	mutex sync.Mutex
	rng   *rand.Rand
}

// NewRandomPacer creates a RandomPacer, a nil `rng` uses the global source.
func NewRandomPacer(rng *rand.Rand) *RandomPacer {
	return &RandomPacer{rng: rng}
}

func (p *RandomPacer) Float() float64 {
	if p.rng == nil {
		return rand.Float64()
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.rng.Float64()
}

func (p *RandomPacer) IntN(n int) int {
	if p.rng == nil {
		return rand.IntN(n)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.rng.IntN(n)
}

func (p *RandomPacer) Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(p.Float()*float64(max-min))
}

func (p *RandomPacer) Pause(ctx context.Context, min, max time.Duration) error {
	return sleep(ctx, p.Between(min, max))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoPacer never waits and makes no mistakes, it is meant for tests and
// for sites which do not care about pacing.
type NoPacer struct{}

func (NoPacer) Between(min, _ time.Duration) time.Duration { return 0 }

func (NoPacer) Pause(ctx context.Context, _, _ time.Duration) error {
	return ctx.Err()
}

// Float always returns 1 so probability checks never pass.
func (NoPacer) Float() float64 { return 1 }

func (NoPacer) IntN(int) int { return 0 }
