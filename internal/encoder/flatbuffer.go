package encoder

import (
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/rawblock/universe-engine/pkg/models"
)

// encodeFlatbuffer wraps the raw Vertex28 blob in a single-field
// flatbuffer table (field 0: a ubyte vector), built directly against
// the flatbuffers.Builder API rather than flatc-generated accessors,
// since the vertex blob is already a flat, versioned wire format and
// needs no further schema evolution inside the table.
func encodeFlatbuffer(snap models.Snapshot) ([]byte, error) {
	b := flatbuffers.NewBuilder(len(snap.VertexBytes) + 64)
	dataOffset := b.CreateByteVector(snap.VertexBytes)

	b.StartObject(1)
	b.PrependUOffsetTSlot(0, dataOffset, 0)
	root := b.EndObject()
	b.Finish(root)

	return b.FinishedBytes(), nil
}

// decodeFlatbufferVertex extracts the vertex blob back out of a buffer
// produced by encodeFlatbuffer, used by the contract sample check.
func decodeFlatbufferVertex(buf []byte) []byte {
	table := &flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}

	o := flatbuffers.UOffsetT(table.Offset(4)) // vtable slot for field 0
	if o == 0 {
		return nil
	}
	vecOffset := table.Vector(o)
	vecLen := table.VectorLen(o)
	return table.Bytes[vecOffset : vecOffset+flatbuffers.UOffsetT(vecLen)]
}
