package codec

// Taxonomy32Canonical is the wire-active layout used by every finalized
// snapshot:
//
//	bits 31..28 (4): domain/sector id        (1..15)
//	bits 27..22 (6): industry id              (1..63)
//	bits 21..19 (3): risk tier                (1..7)
//	bits 18..14 (5): volatility tier           (1..31)
//	bits 13..0  (14): reserved                 (0)
type Taxonomy32Canonical struct {
	Domain     uint8
	Industry   uint8
	RiskTier   uint8
	VolTier    uint8
}

// PackTaxonomyCanonical masks each field into its declared bit width and
// packs them into the 4-6-3-5-14 layout. Overflowing inputs are masked,
// never rejected.
func PackTaxonomyCanonical(t Taxonomy32Canonical) uint32 {
	var w uint32
	w |= uint32(t.Domain&0xF) << 28
	w |= uint32(t.Industry&0x3F) << 22
	w |= uint32(t.RiskTier&0x7) << 19
	w |= uint32(t.VolTier&0x1F) << 14
	return w
}

// UnpackTaxonomyCanonical is the exact inverse of PackTaxonomyCanonical.
func UnpackTaxonomyCanonical(w uint32) Taxonomy32Canonical {
	return Taxonomy32Canonical{
		Domain:   uint8((w >> 28) & 0xF),
		Industry: uint8((w >> 22) & 0x3F),
		RiskTier: uint8((w >> 19) & 0x7),
		VolTier:  uint8((w >> 14) & 0x1F),
	}
}

// Taxonomy32Legacy is the layout used by the separate classifier
// pipeline. Never written to a finalized Vertex28 snapshot, but exposed
// as a distinct named codec per spec because some source data still
// arrives in this shape:
//
//	bits 31..29 (3): domain
//	bit  28     (1): outlier
//	bits 27..12 (16): risk
//	bits 11..0  (12): reserved
type Taxonomy32Legacy struct {
	Domain  uint8
	Outlier bool
	Risk    uint16
}

// PackTaxonomyLegacy packs the 3-1-16-12 legacy layout.
func PackTaxonomyLegacy(t Taxonomy32Legacy) uint32 {
	var w uint32
	w |= uint32(t.Domain&0x7) << 29
	if t.Outlier {
		w |= 1 << 28
	}
	w |= uint32(t.Risk&0xFFFF) << 12
	return w
}

// UnpackTaxonomyLegacy is the exact inverse of PackTaxonomyLegacy.
func UnpackTaxonomyLegacy(w uint32) Taxonomy32Legacy {
	return Taxonomy32Legacy{
		Domain:  uint8((w >> 29) & 0x7),
		Outlier: (w>>28)&0x1 == 1,
		Risk:    uint16((w >> 12) & 0xFFFF),
	}
}
