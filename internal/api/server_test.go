package api

import (
	"testing"

	"github.com/rawblock/universe-engine/internal/codec"
	"github.com/rawblock/universe-engine/internal/store"
	"github.com/rawblock/universe-engine/internal/voidpool"
	"github.com/rawblock/universe-engine/pkg/models"
)

func packedVertex(t *testing.T, x float32) [codec.VertexStride]byte {
	t.Helper()
	v := codec.Vertex28{X: x, Y: 0.2, Z: 0.3, Fidelity: 0.9}
	packed, err := v.Pack()
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	return packed
}

// TestRefreshViaVoidPoolPreservesSlotAcrossRefresh checks that a symbol
// present in two consecutive snapshots keeps the same buffer slot
// instead of being reshuffled the way a wholesale Initialize would.
func TestRefreshViaVoidPoolPreservesSlotAcrossRefresh(t *testing.T) {
	vstore := store.New()
	vpool := voidpool.New(8)
	vpool.Prime(8)
	s := NewServer(vstore, nil, nil, nil, vpool, false)

	pA := packedVertex(t, 0.1)
	pB := packedVertex(t, 0.2)
	snap1 := models.Snapshot{
		Assets:      []models.UniverseAsset{{Symbol: "A"}, {Symbol: "B"}},
		VertexBytes: append(append([]byte{}, pA[:]...), pB[:]...),
	}
	if err := s.refreshViaVoidPool(snap1); err != nil {
		t.Fatalf("refreshViaVoidPool() error = %v", err)
	}
	slotA, ok := vstore.IndexOf("A")
	if !ok {
		t.Fatal("IndexOf(A) missing after first refresh")
	}
	if vpool.FreeCount() != 6 {
		t.Fatalf("FreeCount() = %d, want 6 after two acquires", vpool.FreeCount())
	}

	pA2 := packedVertex(t, 0.5)
	snap2 := models.Snapshot{
		Assets:      []models.UniverseAsset{{Symbol: "A"}},
		VertexBytes: pA2[:],
	}
	if err := s.refreshViaVoidPool(snap2); err != nil {
		t.Fatalf("second refreshViaVoidPool() error = %v", err)
	}

	slotA2, ok := vstore.IndexOf("A")
	if !ok || slotA2 != slotA {
		t.Fatalf("A's slot changed across refresh: %d -> %d", slotA, slotA2)
	}
	if vpool.FreeCount() != 7 {
		t.Fatalf("FreeCount() = %d, want 7 after B's death releases its slot", vpool.FreeCount())
	}
	if _, ok := vstore.IndexOf("B"); ok {
		t.Fatal("IndexOf(B) still resolves after B's death; stale symbol could alias a reused slot")
	}
}

// TestRefreshViaVoidPoolDeadSymbolSlotIsSafeToReuse checks that once a
// symbol dies, a newly born symbol can take over its freed slot without
// the old symbol's name still resolving to that slot.
func TestRefreshViaVoidPoolDeadSymbolSlotIsSafeToReuse(t *testing.T) {
	vstore := store.New()
	vpool := voidpool.New(1)
	vpool.Prime(1)
	s := NewServer(vstore, nil, nil, nil, vpool, false)

	pA := packedVertex(t, 0.1)
	if err := s.refreshViaVoidPool(models.Snapshot{
		Assets:      []models.UniverseAsset{{Symbol: "A"}},
		VertexBytes: pA[:],
	}); err != nil {
		t.Fatalf("refreshViaVoidPool(A) error = %v", err)
	}
	slotA, _ := vstore.IndexOf("A")

	pC := packedVertex(t, 0.9)
	if err := s.refreshViaVoidPool(models.Snapshot{
		Assets:      []models.UniverseAsset{{Symbol: "C"}},
		VertexBytes: pC[:],
	}); err != nil {
		t.Fatalf("refreshViaVoidPool(C) error = %v", err)
	}

	if _, ok := vstore.IndexOf("A"); ok {
		t.Fatal("IndexOf(A) still resolves after A died and C reused its slot")
	}
	slotC, ok := vstore.IndexOf("C")
	if !ok || slotC != slotA {
		t.Fatalf("C should have been born into A's freed slot %d, got %d (ok=%v)", slotA, slotC, ok)
	}
}
