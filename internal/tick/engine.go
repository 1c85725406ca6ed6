// Package tick implements the analytics tick engine: a bounded, single-
// threaded pass over a batch of price updates that feeds the CUSUM/RLS/
// VPIN detectors and patches the shared snapshot store's meta32 lane.
package tick

import (
	"math"
	"sync"

	"github.com/rawblock/universe-engine/internal/analytics"
	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/internal/store"
)

// DefaultWorkCapPerTick is the default bound on the number of symbol
// updates processed in a single Tick call; the remainder is deferred to
// the next call in FIFO order. It is overridable via the
// WORK_CAP_PER_TICK environment toggle at wiring time.
const DefaultWorkCapPerTick = 50_000

// Update is one symbol's price (and optional volume) observation for a
// tick.
type Update struct {
	Symbol string
	Price  float64
	Volume float64 // 0 if unknown
}

// Engine owns the per-asset detector banks and the shared global macro8
// lane, and serializes tick execution behind its own lock. A tick's
// patches reach the snapshot store in one UpdateBatch call, so a store
// reader sees either the pre-tick or the post-tick meta32 lane.
type Engine struct {
	mu sync.Mutex

	store   *store.VertexStore
	cusum   *analytics.CUSUMBank
	rls     *analytics.RLSBank
	vpin    *analytics.VPINBank
	lastPx  []float64
	macro8  uint8
	workCap int

	pending []Update // FIFO tail carried over from a capped tick
}

// New builds an Engine with detector banks sized for n slots, sharing
// the given snapshot store.
func New(s *store.VertexStore, n int, workCap int) *Engine {
	if workCap <= 0 {
		workCap = DefaultWorkCapPerTick
	}
	return &Engine{
		store:   s,
		cusum:   analytics.NewCUSUMBank(n),
		rls:     analytics.NewRLSBank(n),
		vpin:    analytics.NewVPINBank(n),
		lastPx:  make([]float64, n),
		workCap: workCap,
	}
}

// SetMacro8 updates the shared macro-regime lane applied to every
// meta32 word produced by subsequent ticks.
func (e *Engine) SetMacro8(macro8 uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macro8 = macro8
}

// Reset clears detector state for slot, for reuse after a death/birth
// cycle in the VoidPool.
func (e *Engine) Reset(slot uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cusum.Reset(slot)
	e.rls.Reset(slot)
	e.vpin.Reset(slot)
	if int(slot) < len(e.lastPx) {
		e.lastPx[slot] = 0
	}
}

// Tick processes up to workCap of the given updates (combined with any
// tail deferred from a prior capped tick, preserved FIFO), feeding each
// through CUSUM/RLS/VPIN and patching the store's meta32 lane. It
// returns the buffer indices that were updated. Symbols absent from
// indexOf, or whose slot has never been initialized, are skipped.
func (e *Engine) Tick(updates []Update, indexOf func(symbol string) (int, bool)) []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := append(e.pending, updates...)

	limit := len(all)
	if limit > e.workCap {
		limit = e.workCap
	}
	batch := all[:limit]
	e.pending = append([]Update(nil), all[limit:]...)

	patches := make(map[int]uint32, len(batch))
	updated := make([]int, 0, len(batch))
	stored := e.store.Len()

	for _, u := range batch {
		idx, ok := indexOf(u.Symbol)
		if !ok || idx < 0 || idx >= len(e.lastPx) || idx >= stored {
			continue
		}

		slot := uint32(idx)
		prevPrice := e.lastPx[slot]

		r := 0.0
		if prevPrice > 0 && u.Price > 0 {
			r = math.Log(u.Price / prevPrice)
		}

		shock8 := e.cusum.Update(slot, r)
		trend2 := e.rls.Update(slot, u.Price)
		risk8, vital6 := e.vpin.Update(slot, u.Price, u.Volume, prevPrice)

		meta := codec.PackMeta32(codec.Meta32{
			Shock8: shock8,
			Risk8:  risk8,
			Trend2: trend2,
			Vital6: vital6,
			Macro8: e.macro8,
		})

		patches[idx] = meta
		updated = append(updated, idx)
		e.lastPx[slot] = u.Price
	}

	if len(patches) > 0 {
		_ = e.store.UpdateBatch(patches)
	}

	return updated
}

// PendingCount reports how many updates remain deferred from a prior
// capped tick.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
