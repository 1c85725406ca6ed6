package materializer

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rawblock/universe-engine/pkg/models"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the bounded worker pool size used to parallelize
// staging compute across assigned rows.
const DefaultWorkers = 12

// Materializer drives one end-to-end materialization run: quota
// planning, bounded-concurrency staging compute, collision repair, and
// the transactional swap.
type Materializer struct {
	db       *DB
	workers  int64
	progress *Progress
}

// New builds a Materializer backed by db, bounding concurrent staging
// compute at workers goroutines (DefaultWorkers if workers <= 0).
func New(db *DB, workers int) *Materializer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Materializer{db: db, workers: int64(workers), progress: NewProgress()}
}

// Progress exposes the tracker the GET /materialize/progress endpoint
// reads.
func (m *Materializer) Progress() *Progress {
	return m.progress
}

// Run executes one materialization: plan quotas against inventory for
// target rows, stage every assigned row (bounded by the worker pool),
// repair any Morton63 collisions, write the per-sector staging tables,
// and atomically swap them into universe_assets. Run is idempotent: a
// second call against the same inventory and target reproduces the
// same final plan and the same staged rowset, since staging preserves
// input order and collision repair is deterministic.
func (m *Materializer) Run(ctx context.Context, inventory []SourceRow, target int) error {
	m.progress.set(StagePlanning, 0, nil)

	real := make(map[models.Sector]int, len(models.CanonicalSectors))
	for _, r := range inventory {
		real[r.Sector]++
	}

	plan, err := ComputeQuotaPlan(real, target)
	if err != nil {
		m.progress.set(StageFailed, 0, err)
		return err
	}

	assigned := SelectRows(inventory, plan)
	bounds := computeBounds(inventory)

	m.progress.set(StageStaging, 0, nil)
	rows, err := stageConcurrently(ctx, assigned, bounds, m.workers)
	if err != nil {
		m.progress.set(StageFailed, 0, err)
		return err
	}

	m.progress.set(StageRepairing, len(rows), nil)
	repaired, err := RepairCollisions(rows)
	if err != nil {
		m.progress.set(StageFailed, len(rows), err)
		return err
	}

	if m.db == nil {
		m.progress.set(StageComplete, len(repaired), nil)
		return nil
	}

	m.progress.set(StageSwapping, len(repaired), nil)
	if err := m.db.StageRows(ctx, repaired); err != nil {
		m.progress.set(StageFailed, len(repaired), err)
		return err
	}
	if err := m.db.Swap(ctx, len(repaired)); err != nil {
		m.progress.set(StageFailed, len(repaired), err)
		return err
	}

	m.progress.set(StageComplete, len(repaired), nil)
	return nil
}

// computeBounds scans every finite coordinate present in inventory to
// derive normalization bounds per axis.
func computeBounds(inventory []SourceRow) Bounds {
	var b Bounds
	var seen [3]bool
	for _, r := range inventory {
		for i, axis := range []struct {
			v      *float64
			lo, hi *float64
		}{
			{r.X, &b.MinX, &b.MaxX},
			{r.Y, &b.MinY, &b.MaxY},
			{r.Z, &b.MinZ, &b.MaxZ},
		} {
			if axis.v == nil || math.IsNaN(*axis.v) || math.IsInf(*axis.v, 0) {
				continue
			}
			if !seen[i] {
				*axis.lo, *axis.hi = *axis.v, *axis.v
				seen[i] = true
				continue
			}
			if *axis.v < *axis.lo {
				*axis.lo = *axis.v
			}
			if *axis.v > *axis.hi {
				*axis.hi = *axis.v
			}
		}
	}
	return b
}

type stagingResult struct {
	index int
	row   StagingRow
	err   error
}

// stageConcurrently computes each assigned row's StagingRow using a
// semaphore-bounded worker pool, preserving assigned's input order in
// the returned slice regardless of completion order.
func stageConcurrently(ctx context.Context, assigned []AssignedRow, bounds Bounds, workers int64) ([]StagingRow, error) {
	sem := semaphore.NewWeighted(workers)
	results := make([]stagingResult, len(assigned))
	var wg sync.WaitGroup

	for i, a := range assigned {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("materializer: worker pool acquire: %w", err)
		}
		wg.Add(1)
		go func(i int, a AssignedRow) {
			defer wg.Done()
			defer sem.Release(1)
			row, err := ComputeStagingRow(a.Row, a.AssignedSector, bounds)
			results[i] = stagingResult{index: i, row: row, err: err}
		}(i, a)
	}
	wg.Wait()

	out := make([]StagingRow, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, r.row)
	}
	return out, nil
}
