// Package encoder renders a materialized Snapshot onto the wire in one
// of three formats (vertex28, columnar, flatbuffer), optionally
// zstd-compressed, and runs the fixed contract-sampling check every
// response must pass before it leaves the process.
package encoder

import "errors"

// ErrCapabilityMissing is returned when a request asks for a format
// this build does not support. The encoder never silently downgrades
// to a different format.
var ErrCapabilityMissing = errors.New("CAPABILITY_MISSING: requested format/compression not available")

// ErrContractViolation is returned when the post-encode sample check
// finds a corrupted record; the response must never be sent.
var ErrContractViolation = errors.New("encoder: contract sample check failed")
