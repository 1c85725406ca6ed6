package encoder

import (
	"encoding/binary"
	"math"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// sampleSize is the number of evenly-spaced records every encoded
// response is checked against before it is allowed to leave the
// process, regardless of how many records the snapshot holds.
const sampleSize = 10

// sampleCheck decodes up to sampleSize evenly-spaced records back out
// of body (pre-compression) and compares them against the
// corresponding records in snap's canonical Vertex28 buffer. Any
// mismatch, or any NaN/out-of-range field, fails closed with
// ErrContractViolation — an encoder bug must never reach a client as a
// silently corrupted snapshot.
func sampleCheck(snap models.Snapshot, format Format, body []byte) error {
	if err := codec.ValidateVertexBlob(snap.VertexBytes); err != nil {
		return err
	}
	n := codec.RecordCount(snap.VertexBytes)
	if n == 0 {
		return nil
	}

	indices := sampleIndices(n)
	for _, i := range indices {
		want := codec.UnpackVertex28(snap.VertexBytes, i*codec.VertexStride)
		got, err := decodeRecordAt(format, body, i, n)
		if err != nil {
			return err
		}
		if !recordsEqual(want, got) {
			return ErrContractViolation
		}
		for _, f := range []float32{got.X, got.Y, got.Z, got.Fidelity} {
			if !(f >= 0 && f <= 1) {
				return ErrContractViolation
			}
		}
	}
	return nil
}

func sampleIndices(n int) []int {
	if n <= sampleSize {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, sampleSize)
	stride := n / sampleSize
	for i := range out {
		out[i] = i * stride
	}
	return out
}

func decodeRecordAt(format Format, body []byte, i, n int) (codec.Vertex28, error) {
	switch format {
	case FormatVertex28:
		if err := codec.ValidateVertexBlob(body); err != nil {
			return codec.Vertex28{}, err
		}
		return codec.UnpackVertex28(body, i*codec.VertexStride), nil
	case FormatColumnar:
		return decodeColumnarRecordAt(body, i, n), nil
	case FormatFlatbuffer:
		vertex := decodeFlatbufferVertex(body)
		if err := codec.ValidateVertexBlob(vertex); err != nil {
			return codec.Vertex28{}, err
		}
		return codec.UnpackVertex28(vertex, i*codec.VertexStride), nil
	default:
		return codec.Vertex28{}, ErrCapabilityMissing
	}
}

// decodeColumnarRecordAt reads record i back out of the struct-of-arrays
// layout encodeColumnar produces: a uint32 count followed by seven
// contiguous column arrays in Lead, Meta32, X, Y, Z, Fidelity, Spin
// order.
func decodeColumnarRecordAt(body []byte, i, n int) codec.Vertex28 {
	const header = 4
	u32At := func(colStart, idx int) uint32 {
		off := header + colStart*n*4 + idx*4
		return binary.LittleEndian.Uint32(body[off : off+4])
	}
	f32At := func(colStart, idx int) float32 {
		return math.Float32frombits(u32At(colStart, idx))
	}
	return codec.Vertex28{
		Lead:     u32At(0, i),
		Meta32:   u32At(1, i),
		X:        f32At(2, i),
		Y:        f32At(3, i),
		Z:        f32At(4, i),
		Fidelity: f32At(5, i),
		Spin:     f32At(6, i),
	}
}

func recordsEqual(a, b codec.Vertex28) bool {
	return a.Lead == b.Lead && a.Meta32 == b.Meta32 &&
		a.X == b.X && a.Y == b.Y && a.Z == b.Z &&
		a.Fidelity == b.Fidelity && a.Spin == b.Spin
}
