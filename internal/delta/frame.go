// Package delta implements the incremental universe-update protocol
// streamed over the /stream websocket: small opcoded frames describing
// asset births, deaths, and fidelity changes, so a connected client
// never needs to re-fetch the whole snapshot to stay current.
package delta

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Opcode identifies the kind of change a Frame carries.
type Opcode uint8

const (
	OpAssetAdd      Opcode = 0x01
	OpAssetRemove   Opcode = 0x02
	OpFidelityUpdate Opcode = 0x03
)

// ErrUnknownOpcode is returned by Decode for any opcode outside the
// three defined above; clients and tests must never attempt to
// interpret an unrecognized frame's payload.
var ErrUnknownOpcode = errors.New("delta: unknown opcode")

// Frame is one wire unit of the delta stream. AssetID is always
// present; the remaining fields are populated according to Op.
type Frame struct {
	Op       Opcode  `msgpack:"op"`
	AssetID  []byte  `msgpack:"asset_id"`           // 16 bytes, models.CanonicalID
	Symbol   string  `msgpack:"symbol,omitempty"`
	Sector   string  `msgpack:"sector,omitempty"`
	Vertex   []byte  `msgpack:"vertex,omitempty"`   // 28 bytes, set on ASSET_ADD
	Fidelity float32 `msgpack:"fidelity,omitempty"` // set on FIDELITY_UPDATE
}

// Encode serializes f using msgpack's struct-tag encoding, matching the
// wire-compact binary framing the protocol requires over raw JSON.
func Encode(f Frame) ([]byte, error) {
	b, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("delta: encode frame: %w", err)
	}
	return b, nil
}

// Decode deserializes and validates a frame's opcode. A frame with an
// opcode outside {ASSET_ADD, ASSET_REMOVE, FIDELITY_UPDATE} is rejected
// outright rather than partially interpreted.
func Decode(b []byte) (Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("delta: decode frame: %w", err)
	}
	switch f.Op {
	case OpAssetAdd, OpAssetRemove, OpFidelityUpdate:
		return f, nil
	default:
		return Frame{}, fmt.Errorf("%w: %d", ErrUnknownOpcode, f.Op)
	}
}
