package tiered

import (
	"context"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// SentinelSource is the final, always-available fallback: one fixed
// asset per canonical sector, packed once at init time. It exists so
// that /snapshot always has something to return even if Ambassador's
// RNG path is somehow broken.
type SentinelSource struct {
	snapshot models.Snapshot
}

// NewSentinelSource builds the fixed mock snapshot.
func NewSentinelSource() *SentinelSource {
	var assets []models.UniverseAsset
	var vertexBytes []byte

	for i, sector := range models.CanonicalSectors {
		taxonomy32 := codec.PackTaxonomyCanonical(codec.Taxonomy32Canonical{
			Domain: uint8(i + 1), Industry: 1, RiskTier: 1, VolTier: 1,
		})
		v := codec.Vertex28{
			Lead:     taxonomy32,
			X:        0.5, Y: 0.5, Z: 0.5,
			Fidelity: 0.1,
		}
		packed, _ := v.Pack()
		assets = append(assets, models.UniverseAsset{
			Symbol: string(sector) + "-SENTINEL", Sector: sector,
			Taxonomy32: taxonomy32, Fidelity: 0.1,
			X: 0.5, Y: 0.5, Z: 0.5,
		})
		vertexBytes = append(vertexBytes, packed[:]...)
	}

	return &SentinelSource{snapshot: models.Snapshot{
		Assets:      assets,
		VertexBytes: vertexBytes,
		Tier:        models.TierSentinel,
	}}
}

// Fetch always succeeds, returning the fixed mock snapshot.
func (s *SentinelSource) Fetch(ctx context.Context) (models.Snapshot, error) {
	return s.snapshot, nil
}
