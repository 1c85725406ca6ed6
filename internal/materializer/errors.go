// Package materializer implements the deterministic seed pipeline that
// turns a raw source inventory of assets into the canonical,
// exact-rowcount universe_assets relation: sector quota planning,
// per-row staging compute, Morton collision repair, and a transactional
// atomic swap.
package materializer

import "errors"

// ErrInsufficientInventory is returned when the source inventory cannot
// fill the requested target rowcount under the quota plan. No partial
// materialization is ever produced.
var ErrInsufficientInventory = errors.New("INSUFFICIENT_INVENTORY: source inventory smaller than target")

// ErrMortonIrreparable is returned when a duplicate Morton63 code could
// not be resolved within the bounded resample-attempt budget.
var ErrMortonIrreparable = errors.New("MORTON_IRREPARABLE: collision repair exceeded attempt budget")

// ErrSwapAssert is returned when a post-swap invariant assertion
// (exact rowcount, stride, Morton uniqueness) fails inside the atomic
// swap transaction. The transaction is always rolled back before this
// error reaches the caller.
var ErrSwapAssert = errors.New("SWAP_ASSERT: finalize invariant violated, transaction rolled back")
