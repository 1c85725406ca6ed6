package voidpool

import "errors"

// ErrPoolExhausted is returned by Acquire when no free slots remain.
// It is fatal to the current batch of allocations but never corrupts
// prior state: every previously-acquired slot stays valid.
var ErrPoolExhausted = errors.New("POOL_EXHAUSTED: no free slots")

// ErrStaleRelease is returned by Release when the (slot, seq) pair does
// not match the slot's current stamp — either a duplicate release or a
// release against a generation that has already been recycled.
var ErrStaleRelease = errors.New("ABA_STALE_RELEASE: stale or duplicate release")
