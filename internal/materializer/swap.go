package materializer

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// advisoryLockKey serializes concurrent materialization attempts across
// every process talking to the database; only one writer ever holds the
// lock, everyone else's POST /materialize fails fast rather than
// queuing behind a long-running swap.
const advisoryLockKey = int64(0x554e49564552534d) // "UNIVERSM" in ASCII, folded to int64

// stagingTableName returns the UNLOGGED staging table for a sector,
// created by InitSchema and truncated and refilled by StageRows.
func stagingTableName(s models.Sector) string {
	return fmt.Sprintf("universe_staging_%s", toLowerSector(s))
}

func toLowerSector(s models.Sector) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// DB wraps the pgxpool connection used by the materializer's staging
// and swap phases. Queries are plain SQL with positional parameters:
// one owner type per shared resource, no query builder layered on top.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB wraps an already-connected pool.
func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// InitSchema creates the canonical table and the per-sector staging
// tables if they do not already exist.
func (d *DB) InitSchema(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS universe_assets (
			asset_id    BYTEA PRIMARY KEY,
			symbol      TEXT NOT NULL,
			sector      TEXT NOT NULL,
			morton63    BIGINT NOT NULL,
			vertex      BYTEA NOT NULL,
			taxonomy32  BIGINT NOT NULL,
			meta32      BIGINT NOT NULL,
			fidelity    REAL NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS universe_assets_morton63_idx ON universe_assets (morton63);
		CREATE UNIQUE INDEX IF NOT EXISTS universe_assets_symbol_idx ON universe_assets (symbol);
	`)
	if err != nil {
		return fmt.Errorf("materializer: init schema: %w", err)
	}

	for _, s := range models.CanonicalSectors {
		sql := fmt.Sprintf(`
			CREATE UNLOGGED TABLE IF NOT EXISTS %s (
				asset_id    BYTEA PRIMARY KEY,
				symbol      TEXT NOT NULL,
				sector      TEXT NOT NULL,
				morton63    BIGINT NOT NULL,
				vertex      BYTEA NOT NULL,
				taxonomy32  BIGINT NOT NULL,
				meta32      BIGINT NOT NULL,
				fidelity    REAL NOT NULL
			)`, stagingTableName(s))
		if _, err := d.pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("materializer: init staging table %s: %w", s, err)
		}
	}
	return nil
}

// StageRows truncates and refills the per-sector staging table for
// every sector represented in rows, batching inserts in chunks of 5000
// per spec's staging batch size.
func (d *DB) StageRows(ctx context.Context, rows []StagingRow) error {
	bySector := make(map[models.Sector][]StagingRow)
	for _, r := range rows {
		bySector[r.Sector] = append(bySector[r.Sector], r)
	}

	for sector, sectorRows := range bySector {
		table := stagingTableName(sector)
		if _, err := d.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", table)); err != nil {
			return fmt.Errorf("materializer: truncate %s: %w", table, err)
		}

		const batchSize = 5000
		insertSQL := fmt.Sprintf(`
			INSERT INTO %s (asset_id, symbol, sector, morton63, vertex, taxonomy32, meta32, fidelity)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, table)

		for start := 0; start < len(sectorRows); start += batchSize {
			end := start + batchSize
			if end > len(sectorRows) {
				end = len(sectorRows)
			}
			batch := &pgx.Batch{}
			for _, r := range sectorRows[start:end] {
				batch.Queue(insertSQL, r.AssetID[:], r.Symbol, string(r.Sector),
					int64(r.Morton63), r.Vertex[:], int64(r.Taxonomy32), int64(r.Meta32), r.Fidelity)
			}
			results := d.pool.SendBatch(ctx, batch)
			for i := 0; i < batch.Len(); i++ {
				if _, err := results.Exec(); err != nil {
					_ = results.Close()
					return fmt.Errorf("materializer: stage batch for %s: %w", table, err)
				}
			}
			if err := results.Close(); err != nil {
				return fmt.Errorf("materializer: close stage batch for %s: %w", table, err)
			}
		}
	}
	return nil
}

// Swap performs the transactional atomic swap (spec 4.F.4): it takes
// the advisory lock, rebuilds universe_assets from the union of every
// sector's staging table inside a single transaction, asserts the
// resulting rowcount and Morton63 uniqueness, and commits — or rolls
// back and returns ErrSwapAssert on any assertion failure.
func (d *DB) Swap(ctx context.Context, expectedRows int) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("materializer: acquire connection: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", advisoryLockKey).Scan(&locked); err != nil {
		return fmt.Errorf("materializer: advisory lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("materializer: another materialization is already in progress")
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockKey)
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("materializer: begin swap tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "TRUNCATE universe_assets"); err != nil {
		return fmt.Errorf("materializer: truncate universe_assets: %w", err)
	}

	for _, s := range models.CanonicalSectors {
		table := stagingTableName(s)
		insertSQL := fmt.Sprintf(`
			INSERT INTO universe_assets (asset_id, symbol, sector, morton63, vertex, taxonomy32, meta32, fidelity)
			SELECT asset_id, symbol, sector, morton63, vertex, taxonomy32, meta32, fidelity FROM %s`, table)
		if _, err := tx.Exec(ctx, insertSQL); err != nil {
			return fmt.Errorf("materializer: swap copy from %s: %w", table, err)
		}
	}

	var rowCount int
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM universe_assets").Scan(&rowCount); err != nil {
		return fmt.Errorf("materializer: count assertion: %w", err)
	}
	if rowCount != expectedRows {
		return fmt.Errorf("%w: rowcount %d != expected %d", ErrSwapAssert, rowCount, expectedRows)
	}

	var badStride int
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM universe_assets WHERE length(vertex) != $1", codec.VertexStride).Scan(&badStride); err != nil {
		return fmt.Errorf("materializer: stride assertion: %w", err)
	}
	if badStride != 0 {
		return fmt.Errorf("%w: %d rows with non-stride vertex", ErrSwapAssert, badStride)
	}

	var distinctMorton int
	if err := tx.QueryRow(ctx, "SELECT count(DISTINCT morton63) FROM universe_assets").Scan(&distinctMorton); err != nil {
		return fmt.Errorf("materializer: uniqueness assertion: %w", err)
	}
	if distinctMorton != rowCount {
		return fmt.Errorf("%w: %d distinct morton codes for %d rows", ErrSwapAssert, distinctMorton, rowCount)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("materializer: commit swap: %w", err)
	}

	log.Printf("[materializer] swap committed: %d rows", rowCount)
	return nil
}
