package codec

// Meta32 is the analytics-domain layout streamed in every Vertex28
// record's meta lane:
//
//	bits 0..7   (8): shock8
//	bits 8..15  (8): risk8
//	bits 16..17 (2): trend2   (0=flat, 1=bull, 2=bear)
//	bits 18..23 (6): vital6
//	bits 24..31 (8): macro8
//
// This is the layout pinned for Vertex28 streaming; the "reserved"
// layout used elsewhere in analytics tooling has no Vertex28 consumer
// in this engine and is therefore not implemented.
type Meta32 struct {
	Shock8 uint8
	Risk8  uint8
	Trend2 uint8 // 0,1,2
	Vital6 uint8 // 0..63
	Macro8 uint8
}

// PackMeta32 masks each field into its declared width.
func PackMeta32(m Meta32) uint32 {
	var w uint32
	w |= uint32(m.Shock8)
	w |= uint32(m.Risk8) << 8
	w |= uint32(m.Trend2&0x3) << 16
	w |= uint32(m.Vital6&0x3F) << 18
	w |= uint32(m.Macro8) << 24
	return w
}

// UnpackMeta32 is the exact inverse of PackMeta32.
func UnpackMeta32(w uint32) Meta32 {
	return Meta32{
		Shock8: uint8(w & 0xFF),
		Risk8:  uint8((w >> 8) & 0xFF),
		Trend2: uint8((w >> 16) & 0x3),
		Vital6: uint8((w >> 18) & 0x3F),
		Macro8: uint8((w >> 24) & 0xFF),
	}
}
