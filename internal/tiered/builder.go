package tiered

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/rawblock/universe-engine/pkg/models"
	"github.com/sony/gobreaker"
)

// SovereignDeadline bounds a single Sovereign fetch attempt; a query
// that outruns it is treated the same as a connection failure.
const SovereignDeadline = 300 * time.Millisecond

// sovereignFetcher is the interface Builder's circuit breaker wraps.
// SovereignSource satisfies it against a real database; tests satisfy
// it with a fake to exercise breaker trip/reset behavior without one.
type sovereignFetcher interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

type ambassadorFetcher interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

// Builder resolves one Snapshot per call by falling through
// Sovereign -> last-known-good -> Ambassador -> Sentinel. Sovereign
// calls run behind a circuit breaker so a struggling database is not
// hammered with requests that are overwhelmingly likely to time out
// again.
type Builder struct {
	sovereign  sovereignFetcher
	ambassador ambassadorFetcher
	sentinel   *SentinelSource
	breaker    *gobreaker.CircuitBreaker

	mu   sync.Mutex
	last *models.Snapshot
}

// NewBuilder wires the three tiers and a breaker that trips after 3
// consecutive Sovereign failures and stays open for 30 seconds.
func NewBuilder(sovereign *SovereignSource, ambassador *AmbassadorSource, sentinel *SentinelSource) *Builder {
	b := &Builder{ambassador: ambassador, sentinel: sentinel}
	if sovereign != nil {
		// Leave the interface nil when no database is wired, so
		// tryBuild's nil check skips Sovereign.
		b.sovereign = sovereign
	}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "universe-sovereign",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[tiered] breaker %s: %s -> %s", name, from, to)
		},
	})
	return b
}

// Build resolves one Snapshot, trying Sovereign first. A Sovereign
// success refreshes the cached last-known-good snapshot. A Sovereign
// failure (breaker open, deadline exceeded, or query error) falls back
// to the cached snapshot if one exists, otherwise to Ambassador, and
// finally to Sentinel — which cannot itself fail.
func (b *Builder) Build(ctx context.Context) models.Snapshot {
	if snap, ok := b.tryBuild(ctx); ok {
		return snap
	}

	b.mu.Lock()
	cached := b.last
	b.mu.Unlock()
	if cached != nil {
		return *cached
	}

	if b.ambassador != nil {
		if snap, err := b.ambassador.Fetch(ctx); err == nil {
			return snap
		}
	}

	snap, _ := b.sentinel.Fetch(ctx)
	return snap
}

// sovereignState tags the outcome of one Sovereign fetch attempt so
// tryBuild can pattern-match instead of treating any non-error result
// as usable.
type sovereignState int

const (
	sovereignOk sovereignState = iota
	sovereignEmpty
	sovereignTimedOut
	sovereignErr
)

// classifySovereign tags a Fetch outcome. A zero-row registry is Empty,
// not Ok — it is a legitimate database state (nothing materialized
// yet), not an infrastructure failure, so it must not count against
// the breaker the way TimedOut/Err do.
func classifySovereign(snap models.Snapshot, err error) sovereignState {
	switch {
	case err == nil && len(snap.Assets) > 0:
		return sovereignOk
	case err == nil:
		return sovereignEmpty
	case errors.Is(err, context.DeadlineExceeded):
		return sovereignTimedOut
	default:
		return sovereignErr
	}
}

func (b *Builder) tryBuild(ctx context.Context) (models.Snapshot, bool) {
	if b.sovereign == nil {
		return models.Snapshot{}, false
	}

	result, execErr := b.breaker.Execute(func() (interface{}, error) {
		deadlineCtx, cancel := context.WithTimeout(ctx, SovereignDeadline)
		defer cancel()
		return b.sovereign.Fetch(deadlineCtx)
	})

	var snap models.Snapshot
	if s, ok := result.(models.Snapshot); ok {
		snap = s
	}

	switch classifySovereign(snap, execErr) {
	case sovereignOk:
		b.mu.Lock()
		b.last = &snap
		b.mu.Unlock()
		return snap, true
	case sovereignEmpty:
		log.Printf("[tiered] sovereign registry empty, falling back")
		return models.Snapshot{}, false
	case sovereignTimedOut:
		log.Printf("[tiered] sovereign fetch timed out, falling back")
		return models.Snapshot{}, false
	default:
		if errors.Is(execErr, gobreaker.ErrOpenState) {
			log.Printf("[tiered] sovereign circuit open, falling back")
		} else {
			log.Printf("[tiered] sovereign fetch failed: %v", execErr)
		}
		return models.Snapshot{}, false
	}
}
