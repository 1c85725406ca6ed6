package materializer

import (
	"hash/fnv"
	"math/bits"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// StagingRow is one fully-computed row ready for collision repair and
// staging-table insert: a packed Vertex28 plus the unpacked fields the
// repair pass and the atomic swap need individually.
type StagingRow struct {
	Symbol     string
	Sector     models.Sector
	AssetID    [16]byte
	Morton63   uint64
	Taxonomy32 uint32
	Meta32     uint32
	X, Y, Z    float32
	Fidelity   float32
	Spin       float32
	Vertex     [codec.VertexStride]byte
}

// Bounds is the min/max observed per axis across the inventory being
// staged, used to normalize raw coordinates into [0,1]. A degenerate
// axis (Max == Min) falls back to the stable symbol hash for that row.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

func normalizeAxis(v *float64, lo, hi float64, symbol string, axis byte) float64 {
	if v == nil || hi <= lo {
		return hashUnit(symbol, axis)
	}
	n := (*v - lo) / (hi - lo)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// hashUnit derives a stable pseudo-coordinate in [0,1] from a symbol and
// an axis discriminator, used when the source has no coordinate for
// that axis. It is deterministic: the same symbol always lands at the
// same fallback point, so re-materialization stays idempotent.
func hashUnit(symbol string, axis byte) float64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{axis})
	return float64(h.Sum64()) / float64(^uint64(0))
}

// saltFromSymbol derives the 9-bit collision-repair salt seed for a
// symbol's initial placement, reusing the same hash family as
// hashUnit so the whole staging pipeline is grounded on one primitive.
func saltFromSymbol(symbol string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return h.Sum32()
}

func domainID(s models.Sector) uint8 {
	for i, c := range models.CanonicalSectors {
		if c == s {
			return uint8(i + 1)
		}
	}
	return 0
}

// fidelityFor implements the four-tier fidelity schedule: an asset with
// both a real price and a real sector classification renders at the
// highest tier, one with neither at the lowest.
func fidelityFor(hasPrice, hasSector bool) float32 {
	switch {
	case hasPrice && hasSector:
		return 0.92
	case hasPrice:
		return 0.84
	case hasSector:
		return 0.78
	default:
		return 0.62
	}
}

// ComputeStagingRow derives the full staged record for one assigned
// source row: normalized coordinates (falling back to a stable hash
// where the source lacks a coordinate), a canonical taxonomy32 word, a
// baseline meta32 prior (detectors overwrite this lane once the asset
// is live), a fidelity tier, and a spin value derived from the
// taxonomy word's parity scaled by risk tier. assignedSector is used in
// place of row.Sector so redistributed rows carry their receiving
// sector's domain id.
func ComputeStagingRow(row SourceRow, assignedSector models.Sector, b Bounds) (StagingRow, error) {
	hasSector := row.Sector != ""
	x := normalizeAxis(row.X, b.MinX, b.MaxX, row.Symbol, 'x')
	y := normalizeAxis(row.Y, b.MinY, b.MaxY, row.Symbol, 'y')
	z := normalizeAxis(row.Z, b.MinZ, b.MaxZ, row.Symbol, 'z')

	salt := saltFromSymbol(row.Symbol)
	morton := codec.PackMorton63Salted(x, y, z, salt)

	industry := row.Industry
	if industry == 0 {
		industry = 1
	}
	riskTier := row.RiskTier
	if riskTier == 0 {
		riskTier = 1
	}
	volTier := row.VolTier
	if volTier == 0 {
		volTier = 1
	}

	taxonomy32 := codec.PackTaxonomyCanonical(codec.Taxonomy32Canonical{
		Domain:   domainID(assignedSector),
		Industry: industry,
		RiskTier: riskTier,
		VolTier:  volTier,
	})

	liquidity := row.Liquidity
	meta32 := codec.PackMeta32(codec.Meta32{
		Shock8: 0,
		Risk8:  uint8(uint32(riskTier) * 36),
		Trend2: 0,
		Vital6: uint8(uint32(liquidity) * 21),
		Macro8: 0,
	})

	parity := uint8(bits.OnesCount32(taxonomy32) & 1)
	spin := float32(parity) * (float32(riskTier) / 7.0)

	fidelity := fidelityFor(row.HasPrice, hasSector)

	v := codec.Vertex28{
		Lead:     taxonomy32,
		Meta32:   meta32,
		X:        float32(x),
		Y:        float32(y),
		Z:        float32(z),
		Fidelity: fidelity,
		Spin:     spin,
	}
	packed, err := v.Pack()
	if err != nil {
		return StagingRow{}, err
	}

	return StagingRow{
		Symbol:     row.Symbol,
		Sector:     assignedSector,
		AssetID:    [16]byte(models.CanonicalID(row.Symbol)),
		Morton63:   morton,
		Taxonomy32: taxonomy32,
		Meta32:     meta32,
		X:          float32(x),
		Y:          float32(y),
		Z:          float32(z),
		Fidelity:   fidelity,
		Spin:       spin,
		Vertex:     packed,
	}, nil
}
