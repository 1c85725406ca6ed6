package tiered

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strconv"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// ambassadorRowsPerSector bounds the synthetic universe's size; large
// enough to look like a real universe on a dashboard, small enough to
// generate in well under the circuit breaker's deadline.
const ambassadorRowsPerSector = 64

// AmbassadorSource fabricates a plausible-looking universe when
// Sovereign is unavailable. Its seed is derived from the seed label it
// was built with, so repeated calls during one outage produce a stable
// synthetic universe rather than visibly re-shuffling every tick.
type AmbassadorSource struct {
	seedLabel string
}

// NewAmbassadorSource builds an AmbassadorSource whose synthetic output
// is deterministic for a given seedLabel (e.g. the calling deployment's
// name), so two replicas serving the same outage agree.
func NewAmbassadorSource(seedLabel string) *AmbassadorSource {
	return &AmbassadorSource{seedLabel: seedLabel}
}

// Fetch never errors: Ambassador has no external dependency to fail.
func (a *AmbassadorSource) Fetch(ctx context.Context) (models.Snapshot, error) {
	h := fnv.New64a()
	h.Write([]byte(a.seedLabel))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	var assets []models.UniverseAsset
	var vertexBytes []byte

	for sectorIdx, sector := range models.CanonicalSectors {
		for i := 0; i < ambassadorRowsPerSector; i++ {
			x, y, z := betaLike(rng), betaLike(rng), betaLike(rng)
			fidelity := betaLike(rng)
			riskTier := uint8(1 + rng.Intn(7))
			taxonomy32 := codec.PackTaxonomyCanonical(codec.Taxonomy32Canonical{
				Domain:   uint8(sectorIdx + 1),
				Industry: uint8(1 + rng.Intn(63)),
				RiskTier: riskTier,
				VolTier:  uint8(1 + rng.Intn(31)),
			})
			meta32 := codec.PackMeta32(codec.Meta32{Risk8: uint8(uint32(riskTier) * 36)})

			v := codec.Vertex28{
				Lead:     taxonomy32,
				Meta32:   meta32,
				X:        float32(x),
				Y:        float32(y),
				Z:        float32(z),
				Fidelity: float32(fidelity),
			}
			packed, err := v.Pack()
			if err != nil {
				continue
			}

			symbol := syntheticSymbol(sector, i)
			assets = append(assets, models.UniverseAsset{
				Symbol:     symbol,
				Sector:     sector,
				Taxonomy32: taxonomy32,
				Meta32:     meta32,
				Fidelity:   float32(fidelity),
				X:          float32(x), Y: float32(y), Z: float32(z),
			})
			vertexBytes = append(vertexBytes, packed[:]...)
		}
	}

	return models.Snapshot{
		Assets:      assets,
		VertexBytes: vertexBytes,
		Tier:        models.TierAmbassador,
	}, nil
}

// betaLike approximates a symmetric Beta(3,3)-shaped distribution over
// [0,1] via the Irwin-Hall/Bates construction: the mean of independent
// uniforms concentrates mass near 0.5 the way a real sector's asset
// cloud clusters rather than spreading uniformly to the corners.
func betaLike(rng *rand.Rand) float64 {
	sum := 0.0
	const n = 3
	for i := 0; i < n; i++ {
		sum += rng.Float64()
	}
	return sum / n
}

func syntheticSymbol(sector models.Sector, i int) string {
	return string(sector) + "-SYN-" + strconv.Itoa(i)
}
