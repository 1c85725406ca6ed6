package delta

import (
	"context"
	"log"
	"time"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// TickHz is the delta stream's broadcast cadence.
const TickHz = 10

// assetState is the minimal per-asset state the streamer diffs against
// on each tick.
type assetState struct {
	sector   string
	fidelity float32
}

// Streamer polls a snapshot source on a fixed cadence and broadcasts
// the minimal set of frames describing what changed since the last
// tick, rather than re-sending the whole universe.
type Streamer struct {
	hub    *Hub
	source func(ctx context.Context) models.Snapshot

	known map[string]assetState // symbol -> last broadcast state
}

// NewStreamer wires a Hub to a snapshot source function (typically
// (*tiered.Builder).Build).
func NewStreamer(hub *Hub, source func(ctx context.Context) models.Snapshot) *Streamer {
	return &Streamer{hub: hub, source: source, known: make(map[string]assetState)}
}

// Run broadcasts deltas at TickHz until ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / TickHz)
	defer ticker.Stop()

	log.Println("[delta] streamer started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[delta] streamer stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Streamer) tick(ctx context.Context) {
	snap := s.source(ctx)

	seen := make(map[string]bool, len(snap.Assets))
	for i, a := range snap.Assets {
		seen[a.Symbol] = true
		prior, known := s.known[a.Symbol]

		switch {
		case !known:
			id := models.CanonicalID(a.Symbol)
			off := i * codec.VertexStride
			var vertex []byte
			if off+codec.VertexStride <= len(snap.VertexBytes) {
				vertex = snap.VertexBytes[off : off+codec.VertexStride]
			}
			if err := s.hub.BroadcastFrame(Frame{
				Op: OpAssetAdd, AssetID: id[:], Symbol: a.Symbol, Sector: string(a.Sector),
				Vertex: vertex, Fidelity: a.Fidelity,
			}); err != nil {
				log.Printf("[delta] encode ASSET_ADD for %s: %v", a.Symbol, err)
			}
		case prior.fidelity != a.Fidelity:
			id := models.CanonicalID(a.Symbol)
			if err := s.hub.BroadcastFrame(Frame{
				Op: OpFidelityUpdate, AssetID: id[:], Symbol: a.Symbol, Fidelity: a.Fidelity,
			}); err != nil {
				log.Printf("[delta] encode FIDELITY_UPDATE for %s: %v", a.Symbol, err)
			}
		}
		s.known[a.Symbol] = assetState{sector: string(a.Sector), fidelity: a.Fidelity}
	}

	for symbol := range s.known {
		if seen[symbol] {
			continue
		}
		id := models.CanonicalID(symbol)
		if err := s.hub.BroadcastFrame(Frame{Op: OpAssetRemove, AssetID: id[:], Symbol: symbol}); err != nil {
			log.Printf("[delta] encode ASSET_REMOVE for %s: %v", symbol, err)
		}
		delete(s.known, symbol)
	}
}
