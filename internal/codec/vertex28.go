package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VertexStride is the fixed size in bytes of a single Vertex28 record.
const VertexStride = 28

// Vertex28 is the canonical 28-byte little-endian GPU-ready record.
// Field order and offsets are wire-critical and must never change
// without a new stride constant.
type Vertex28 struct {
	Lead     uint32 // taxonomy32, or morton_code_u32 in the v8 stream
	Meta32   uint32
	X        float32 // [0,1]
	Y        float32 // [0,1]
	Z        float32 // [0,1]
	Fidelity float32 // [0,1]
	Spin     float32
}

// Pack serializes v into exactly VertexStride bytes, little-endian.
// Coordinate and fidelity fields must be finite and within [0,1]; NaN
// or out-of-range values fail with ErrRange rather than being silently
// clamped, since a corrupted coordinate must never reach the GPU.
func (v Vertex28) Pack() ([VertexStride]byte, error) {
	var out [VertexStride]byte
	for _, f := range []float32{v.X, v.Y, v.Z, v.Fidelity} {
		if math.IsNaN(float64(f)) {
			return out, fmt.Errorf("%w: NaN coordinate/fidelity", ErrRange)
		}
		if f < 0 || f > 1 {
			return out, fmt.Errorf("%w: %v outside [0,1]", ErrRange, f)
		}
	}

	binary.LittleEndian.PutUint32(out[0:4], v.Lead)
	binary.LittleEndian.PutUint32(out[4:8], v.Meta32)
	binary.LittleEndian.PutUint32(out[8:12], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(out[12:16], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(out[16:20], math.Float32bits(v.Z))
	binary.LittleEndian.PutUint32(out[20:24], math.Float32bits(v.Fidelity))
	binary.LittleEndian.PutUint32(out[24:28], math.Float32bits(v.Spin))
	return out, nil
}

// UnpackVertex28 decodes exactly VertexStride bytes of buf starting at
// offset. It does not validate buf's total length; callers must run
// ValidateVertexBlob first.
func UnpackVertex28(buf []byte, offset int) Vertex28 {
	b := buf[offset : offset+VertexStride]
	return Vertex28{
		Lead:     binary.LittleEndian.Uint32(b[0:4]),
		Meta32:   binary.LittleEndian.Uint32(b[4:8]),
		X:        math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		Y:        math.Float32frombits(binary.LittleEndian.Uint32(b[12:16])),
		Z:        math.Float32frombits(binary.LittleEndian.Uint32(b[16:20])),
		Fidelity: math.Float32frombits(binary.LittleEndian.Uint32(b[20:24])),
		Spin:     math.Float32frombits(binary.LittleEndian.Uint32(b[24:28])),
	}
}

// ValidateVertexBlob requires that any concatenated Vertex28 buffer's
// length is an exact multiple of VertexStride.
func ValidateVertexBlob(buf []byte) error {
	if len(buf)%VertexStride != 0 {
		return fmt.Errorf("%w: len=%d", ErrStride28, len(buf))
	}
	return nil
}

// RecordCount returns the number of Vertex28 records in buf. Callers
// must have already validated buf with ValidateVertexBlob.
func RecordCount(buf []byte) int {
	return len(buf) / VertexStride
}
