package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/pkg/models"
)

// encodeColumnar lays out the same fields as Vertex28 but
// struct-of-arrays: a uint32 record count, then one contiguous array
// per field in Lead, Meta32, X, Y, Z, Fidelity, Spin order. GPU upload
// paths that bind one buffer per attribute prefer this layout over the
// interleaved Vertex28 stride.
func encodeColumnar(snap models.Snapshot) ([]byte, error) {
	if err := codec.ValidateVertexBlob(snap.VertexBytes); err != nil {
		return nil, err
	}
	n := codec.RecordCount(snap.VertexBytes)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(n)); err != nil {
		return nil, fmt.Errorf("encoder: columnar header: %w", err)
	}

	lead := make([]uint32, n)
	meta := make([]uint32, n)
	x := make([]float32, n)
	y := make([]float32, n)
	z := make([]float32, n)
	fidelity := make([]float32, n)
	spin := make([]float32, n)

	for i := 0; i < n; i++ {
		v := codec.UnpackVertex28(snap.VertexBytes, i*codec.VertexStride)
		lead[i], meta[i] = v.Lead, v.Meta32
		x[i], y[i], z[i] = v.X, v.Y, v.Z
		fidelity[i], spin[i] = v.Fidelity, v.Spin
	}

	for _, col := range []interface{}{lead, meta, x, y, z, fidelity, spin} {
		if err := binary.Write(&buf, binary.LittleEndian, col); err != nil {
			return nil, fmt.Errorf("encoder: columnar column: %w", err)
		}
	}
	return buf.Bytes(), nil
}
