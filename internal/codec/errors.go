// Package codec implements the bit-packed taxonomy32/meta32/Morton63
// words and the 28-byte Vertex28 wire record. Every function here is
// pure and total: pack operations mask their inputs instead of failing
// on overflow, and unpack operations are exact inverses of pack.
package codec

import "errors"

// ErrStride28 is returned when a vertex buffer's length is not a
// multiple of 28 bytes. It is fatal: callers must never attempt to
// partially decode a misaligned buffer.
var ErrStride28 = errors.New("STRIDE_28: buffer length is not a multiple of 28 (FAIL_FAST)")

// ErrRange is returned when a coordinate, fidelity, or other bounded
// field is NaN or outside its declared range.
var ErrRange = errors.New("RANGE: value out of declared bounds")
