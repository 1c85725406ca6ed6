package tiered

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rawblock/universe-engine/pkg/models"
	"github.com/sony/gobreaker"
)

type fakeSovereign struct {
	fail  func() bool
	calls int32
}

func (f *fakeSovereign) Fetch(ctx context.Context) (models.Snapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail() {
		return models.Snapshot{}, errors.New("connection refused")
	}
	return models.Snapshot{Tier: models.TierSovereign, Assets: []models.UniverseAsset{{Symbol: "OK"}}}, nil
}

func newTestBuilder(sovereign sovereignFetcher) *Builder {
	b := &Builder{
		sovereign:  sovereign,
		ambassador: NewAmbassadorSource("test"),
		sentinel:   NewSentinelSource(),
	}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "test",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return b
}

func TestBuildFallsBackToAmbassadorWhenSovereignFails(t *testing.T) {
	b := newTestBuilder(&fakeSovereign{fail: func() bool { return true }})
	snap := b.Build(context.Background())
	if snap.Tier != models.TierAmbassador {
		t.Fatalf("Tier = %v, want Ambassador", snap.Tier)
	}
}

func TestBuildPrefersLastKnownGoodOverAmbassador(t *testing.T) {
	failing := false
	fs := &fakeSovereign{fail: func() bool { return failing }}
	b := newTestBuilder(fs)

	snap := b.Build(context.Background())
	if snap.Tier != models.TierSovereign {
		t.Fatalf("first Build() Tier = %v, want Sovereign", snap.Tier)
	}

	failing = true
	snap2 := b.Build(context.Background())
	if snap2.Tier != models.TierSovereign {
		t.Fatalf("Build() after failure Tier = %v, want cached Sovereign tier", snap2.Tier)
	}
	if len(snap2.Assets) != 1 || snap2.Assets[0].Symbol != "OK" {
		t.Fatalf("cached snapshot contents = %+v, want the first successful fetch", snap2.Assets)
	}
}

// TestBreakerTripsAfterThreeConsecutiveFailures checks that three
// consecutive Sovereign failures trip the breaker open, and no further
// Sovereign call is attempted while it is open — Build falls back
// without incrementing the fake's call count.
func TestBreakerTripsAfterThreeConsecutiveFailures(t *testing.T) {
	fs := &fakeSovereign{fail: func() bool { return true }}
	b := newTestBuilder(fs)

	for i := 0; i < 3; i++ {
		b.Build(context.Background())
	}
	callsAtTrip := atomic.LoadInt32(&fs.calls)
	if callsAtTrip != 3 {
		t.Fatalf("calls after 3 failures = %d, want 3", callsAtTrip)
	}

	for i := 0; i < 5; i++ {
		b.Build(context.Background())
	}
	callsAfterOpen := atomic.LoadInt32(&fs.calls)
	if callsAfterOpen != callsAtTrip {
		t.Fatalf("calls while breaker open = %d, want unchanged from %d", callsAfterOpen, callsAtTrip)
	}
}

type emptySovereign struct{ calls int32 }

func (f *emptySovereign) Fetch(ctx context.Context) (models.Snapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	return models.Snapshot{Tier: models.TierSovereign}, nil
}

// TestBuildFallsBackOnEmptySovereignRegistry checks that a zero-row
// Sovereign result is treated as Empty, not Ok, and falls through to
// Ambassador rather than being cached and served as the canonical
// snapshot.
func TestBuildFallsBackOnEmptySovereignRegistry(t *testing.T) {
	fs := &emptySovereign{}
	b := newTestBuilder(fs)

	snap := b.Build(context.Background())
	if snap.Tier != models.TierAmbassador {
		t.Fatalf("Tier = %v, want Ambassador when Sovereign registry is empty", snap.Tier)
	}

	// An empty result must not count against the breaker: it is not an
	// infrastructure failure.
	for i := 0; i < 10; i++ {
		b.Build(context.Background())
	}
	if atomic.LoadInt32(&fs.calls) != 11 {
		t.Fatalf("calls = %d, want 11 (breaker never opened on empty results)", fs.calls)
	}
}

func TestSentinelIsLastResort(t *testing.T) {
	b := &Builder{sentinel: NewSentinelSource()}
	snap := b.Build(context.Background())
	if snap.Tier != models.TierSentinel {
		t.Fatalf("Tier = %v, want Sentinel when no other tier is wired", snap.Tier)
	}
	if len(snap.Assets) != len(models.CanonicalSectors) {
		t.Fatalf("Sentinel asset count = %d, want %d", len(snap.Assets), len(models.CanonicalSectors))
	}
}
