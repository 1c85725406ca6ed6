package tiered

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// SovereignSource reads the materialized universe straight from
// Postgres. It is the only tier with an external dependency, and the
// only one the circuit breaker in Builder wraps.
type SovereignSource struct {
	pool *pgxpool.Pool
}

// NewSovereignSource wraps an already-connected pool.
func NewSovereignSource(pool *pgxpool.Pool) *SovereignSource {
	return &SovereignSource{pool: pool}
}

// Fetch loads every row of universe_assets into a Snapshot. It does not
// itself apply a deadline; callers (the circuit breaker in Builder) are
// expected to derive a bounded context.
func (s *SovereignSource) Fetch(ctx context.Context) (models.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, sector, vertex, taxonomy32, meta32, fidelity
		FROM universe_assets
		ORDER BY symbol`)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("tiered: sovereign query: %w", err)
	}
	defer rows.Close()

	var assets []models.UniverseAsset
	var vertexBytes []byte

	for rows.Next() {
		var symbol, sector string
		var vertex []byte
		var taxonomy32, meta32 int64
		var fidelity float32
		if err := rows.Scan(&symbol, &sector, &vertex, &taxonomy32, &meta32, &fidelity); err != nil {
			return models.Snapshot{}, fmt.Errorf("tiered: sovereign scan: %w", err)
		}
		if err := codec.ValidateVertexBlob(vertex); err != nil {
			return models.Snapshot{}, fmt.Errorf("tiered: sovereign row for %s: %w", symbol, err)
		}
		v := codec.UnpackVertex28(vertex, 0)
		assets = append(assets, models.UniverseAsset{
			Symbol:     symbol,
			Sector:     models.Sector(sector),
			Taxonomy32: uint32(taxonomy32),
			Meta32:     uint32(meta32),
			Fidelity:   fidelity,
			X:          v.X,
			Y:          v.Y,
			Z:          v.Z,
		})
		vertexBytes = append(vertexBytes, vertex...)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("tiered: sovereign rows: %w", err)
	}

	return models.Snapshot{
		Assets:      assets,
		VertexBytes: vertexBytes,
		Tier:        models.TierSovereign,
	}, nil
}
