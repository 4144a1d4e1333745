package sweep

import (
	"context"
	"math"
	"sync"
	"time"
)

// Budget is a token bucket bounding how many sweeps may run per second. A
// nil Budget allows everything.
type Budget struct {
	rate     float64
	capacity float64
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// BudgetStatus describes the current state of a Budget.
type BudgetStatus struct {
	Rate        float64
	Capacity    float64
	Remaining   float64
	Utilization float64
	RefillIn    time.Duration
}

// NewBudget returns a bucket refilled at rate tokens per second, or nil when
// rate is not positive.
func NewBudget(rate float64) *Budget {
	if rate <= 0 {
		return nil
	}
	return &Budget{
		rate:     rate,
		capacity: math.Max(rate, 1),
		tokens:   math.Max(rate, 1),
		lastFill: time.Now(),
	}
}

// Allow takes a token if one is available.
func (b *Budget) Allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Wait blocks until a token is available or ctx is done.
func (b *Budget) Wait(ctx context.Context) error {
	if b == nil {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.mu.Lock()
		b.refillLocked(time.Now())
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (b *Budget) refillLocked(now time.Time) {
	if now.Before(b.lastFill) {
		b.lastFill = now
		return
	}
	elapsed := now.Sub(b.lastFill)
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(b.capacity, b.tokens+elapsed.Seconds()*b.rate)
	b.lastFill = now
}

// Status reports the bucket's current utilisation.
func (b *Budget) Status() BudgetStatus {
	if b == nil {
		return BudgetStatus{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())

	remaining := b.tokens
	used := math.Max(b.capacity-remaining, 0)
	utilization := 0.0
	if b.capacity > 0 {
		utilization = math.Min(used/b.capacity, 1)
	}
	var refillIn time.Duration
	if used > 0 {
		refillIn = time.Duration(used / b.rate * float64(time.Second))
	}
	return BudgetStatus{
		Rate:        b.rate,
		Capacity:    b.capacity,
		Remaining:   remaining,
		Utilization: utilization,
		RefillIn:    refillIn,
	}
}
