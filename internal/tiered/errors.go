// Package tiered builds a Snapshot by falling through a trust-ordered
// chain of sources: Sovereign (the real materialized database), then
// Ambassador (synthetic but plausible placeholder data), then Sentinel
// (a fixed deterministic mock), so a snapshot request never hard-fails
// just because the database is briefly unavailable.
package tiered

import "errors"

// ErrAllTiersFailed names the case where no tier, Sentinel included,
// produces a snapshot. Builder.Build does not return it: Build has no
// error result and always ends at Sentinel, which has no external
// dependency.
var ErrAllTiersFailed = errors.New("tiered: every source tier failed to produce a snapshot")
