package materializer

import (
	"fmt"
	"sort"

	"github.com/rawblock/universe-engine/internal/codec"
)

// maxRepairAttempts bounds the per-row resample loop in RepairCollisions.
// A row that still collides after this many attempts is irreparable.
const maxRepairAttempts = 64

// RepairCollisions requires that every row's Morton63 code is unique
// across the batch. Rows are processed in a stable (Morton63, AssetID)
// order so repair is a deterministic function of its input regardless
// of call order, making the repair idempotent across repeated runs.
// The first row in each collision group keeps its code; every
// subsequent row is resampled — a new coordinate and a new salt derived
// from the symbol and the attempt number — until its code is unique or
// the attempt budget is exhausted, in which case ErrMortonIrreparable
// is returned naming the offending symbol.
func RepairCollisions(rows []StagingRow) ([]StagingRow, error) {
	out := make([]StagingRow, len(rows))
	copy(out, rows)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Morton63 != out[j].Morton63 {
			return out[i].Morton63 < out[j].Morton63
		}
		return lessAssetID(out[i].AssetID, out[j].AssetID)
	})

	seen := make(map[uint64]bool, len(out))
	for i := range out {
		row := &out[i]
		if !seen[row.Morton63] {
			seen[row.Morton63] = true
			continue
		}

		resolved := false
		for attempt := 1; attempt <= maxRepairAttempts; attempt++ {
			nx := hashUnit(fmt.Sprintf("%s#%d", row.Symbol, attempt), 'x')
			ny := hashUnit(fmt.Sprintf("%s#%d", row.Symbol, attempt), 'y')
			nz := hashUnit(fmt.Sprintf("%s#%d", row.Symbol, attempt), 'z')
			salt := saltFromSymbol(row.Symbol) ^ uint32(attempt)
			candidate := codec.PackMorton63Salted(nx, ny, nz, salt)
			if seen[candidate] {
				continue
			}

			v := codec.Vertex28{
				Lead:     row.Taxonomy32,
				Meta32:   row.Meta32,
				X:        float32(nx),
				Y:        float32(ny),
				Z:        float32(nz),
				Fidelity: row.Fidelity,
				Spin:     row.Spin,
			}
			packed, err := v.Pack()
			if err != nil {
				return nil, err
			}

			row.Morton63 = candidate
			row.X, row.Y, row.Z = float32(nx), float32(ny), float32(nz)
			row.Vertex = packed
			seen[candidate] = true
			resolved = true
			break
		}

		if !resolved {
			return nil, fmt.Errorf("%w: symbol=%s", ErrMortonIrreparable, row.Symbol)
		}
	}

	return out, nil
}

func lessAssetID(a, b [16]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
