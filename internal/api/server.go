// Package api exposes the universe engine over HTTP and WebSocket:
// GET /snapshot, GET /stream, POST /materialize, GET
// /materialize/progress, and GET /health, behind a gin-based router,
// bearer-token middleware, and per-IP rate limiter.
package api

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/internal/delta"
	"github.com/rawblock/universe-engine/internal/materializer"
	"github.com/rawblock/universe-engine/internal/store"
	"github.com/rawblock/universe-engine/internal/tiered"
	"github.com/rawblock/universe-engine/internal/voidpool"
	"github.com/rawblock/universe-engine/pkg/models"
)

// slotHandle is the (slot, seq) pair a symbol currently holds in the
// VoidPool, needed to release it correctly on death.
type slotHandle struct {
	slot uint32
	seq  uint64
}

// Server holds every subsystem the router's handlers reach into: the
// live vertex store snapshot handlers read from, the tiered builder
// used to (re)populate it, the materializer triggered by
// POST /materialize, and the delta hub clients subscribe to.
type Server struct {
	store        *store.VertexStore
	builder      *tiered.Builder
	materializer *materializer.Materializer
	hub          *delta.Hub
	debug        bool

	vpool *voidpool.Pool
	slots map[string]slotHandle // only populated when vpool != nil

	mu   sync.RWMutex
	tier models.Tier
}

// NewServer wires a Server. hub and materializer may be nil in
// degraded/test configurations; handlers that need them report 503.
// vpool is nil unless ENABLE_VOIDPOOL is set, in which case
// RefreshStore acquires/releases its slots instead of rebuilding the
// store wholesale on every refresh.
func NewServer(st *store.VertexStore, builder *tiered.Builder, mat *materializer.Materializer, hub *delta.Hub, vpool *voidpool.Pool, debug bool) *Server {
	return &Server{
		store: st, builder: builder, materializer: mat, hub: hub, vpool: vpool, debug: debug,
		slots: make(map[string]slotHandle),
		tier:  models.TierSentinel,
	}
}

// CurrentTier reports the tier that last successfully populated the
// store.
func (s *Server) CurrentTier() models.Tier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tier
}

func (s *Server) setTier(t models.Tier) {
	s.mu.Lock()
	s.tier = t
	s.mu.Unlock()
}

// RefreshStore resolves one snapshot from the tiered builder and loads
// it into the live store, recording which tier produced it. Called
// once at startup and again after every successful materialization so
// /snapshot serves freshly swapped data without a process restart.
//
// With no VoidPool configured, the store is rebuilt wholesale: the
// buffer's order is just the snapshot's asset order. With a VoidPool,
// slot identity is preserved across refreshes instead: a symbol seen
// before keeps its buffer slot, a new symbol acquires one, and a
// symbol that has disappeared releases its slot (death) rather than
// leaving the whole buffer to be reshuffled.
func (s *Server) RefreshStore(ctx context.Context) error {
	if s.builder == nil {
		return fmt.Errorf("api: no tiered builder configured")
	}
	snap := s.builder.Build(ctx)
	s.setTier(snap.Tier)

	if s.vpool == nil {
		src := store.Source{
			Symbols: make([]string, len(snap.Assets)),
			AssetID: make([][16]byte, len(snap.Assets)),
			Records: make([]codec.Vertex28, len(snap.Assets)),
		}
		for i, a := range snap.Assets {
			src.Symbols[i] = a.Symbol
			src.AssetID[i] = [16]byte(models.CanonicalID(a.Symbol))
			src.Records[i] = codec.UnpackVertex28(snap.VertexBytes, i*codec.VertexStride)
		}
		return s.store.Initialize(src)
	}
	return s.refreshViaVoidPool(snap)
}

// refreshViaVoidPool births slots for symbols new to this snapshot,
// kills slots for symbols no longer present, and writes every
// surviving/new asset's vertex at its stable slot offset.
func (s *Server) refreshViaVoidPool(snap models.Snapshot) error {
	live := make(map[string]bool, len(snap.Assets))
	for _, a := range snap.Assets {
		live[a.Symbol] = true
	}

	for symbol, h := range s.slots {
		if live[symbol] {
			continue
		}
		if err := s.vpool.Release(h.slot, h.seq); err != nil {
			log.Printf("[api] voidpool release %s: %v", symbol, err)
		}
		s.store.RemoveSymbol(symbol)
		delete(s.slots, symbol)
	}

	for i, a := range snap.Assets {
		h, ok := s.slots[a.Symbol]
		if !ok {
			slot, seq, err := s.vpool.Acquire()
			if err != nil {
				return fmt.Errorf("api: acquiring slot for %s: %w", a.Symbol, err)
			}
			h = slotHandle{slot: slot, seq: seq}
			s.slots[a.Symbol] = h
		}

		rec := codec.UnpackVertex28(snap.VertexBytes, i*codec.VertexStride)
		assetID := [16]byte(models.CanonicalID(a.Symbol))
		if err := s.store.WriteVertexAt(int(h.slot), rec, a.Symbol, assetID); err != nil {
			return fmt.Errorf("api: writing vertex for %s at slot %d: %w", a.Symbol, h.slot, err)
		}
	}
	return nil
}

// snapshotFromStore builds the models.Snapshot the encoder needs out
// of the live store's current buffer. Only the asset count is
// reconstructed: Assets holds one zero-valued entry per record (no
// symbol or other per-asset field), since the encoder only consumes
// VertexBytes and len(Assets).
func (s *Server) snapshotFromStore() models.Snapshot {
	buf := s.store.Snapshot()
	n := len(buf) / codec.VertexStride
	return models.Snapshot{
		Assets:      make([]models.UniverseAsset, n),
		VertexBytes: buf,
		Tier:        s.CurrentTier(),
	}
}

// SnapshotSource is passed to delta.NewStreamer; it always serves the
// tiered builder directly rather than the (possibly stale) live store,
// so the stream reflects Sovereign/Ambassador/Sentinel fallback in
// real time.
func (s *Server) SnapshotSource(ctx context.Context) models.Snapshot {
	if s.builder == nil {
		return models.Snapshot{Tier: models.TierSentinel}
	}
	return s.builder.Build(ctx)
}
