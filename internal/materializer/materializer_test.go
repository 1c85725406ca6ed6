package materializer

import (
	"context"
	"fmt"
	"testing"

	"github.com/rawblock/universe-engine/pkg/models"
)

func mixedInventory() []SourceRow {
	var rows []SourceRow
	x := 10.0
	for i := 0; i < 300; i++ {
		xi := x + float64(i)
		rows = append(rows, SourceRow{
			Symbol:   fmt.Sprintf("MIX%d", i),
			Sector:   models.CanonicalSectors[i%len(models.CanonicalSectors)],
			X:        &xi,
			HasPrice: i%3 == 0,
		})
	}
	return rows
}

// TestMaterializerRunWithoutDB exercises the full compute pipeline
// (quota, selection, staging, collision repair) with no database
// attached, which Run treats as a staging-only dry run.
func TestMaterializerRunWithoutDB(t *testing.T) {
	m := New(nil, 4)
	if err := m.Run(context.Background(), mixedInventory(), 200); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestMaterializerRunRejectsInsufficientInventory(t *testing.T) {
	m := New(nil, 4)
	if err := m.Run(context.Background(), mixedInventory(), 10_000); err == nil {
		t.Fatal("Run() error = nil, want ErrInsufficientInventory")
	}
}

func TestMaterializerRunReportsProgress(t *testing.T) {
	m := New(nil, 4)
	if err := m.Run(context.Background(), mixedInventory(), 150); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	stage, rows, errMsg := m.Progress().Snapshot()
	if stage != StageComplete {
		t.Errorf("stage = %v, want StageComplete", stage)
	}
	if rows != 150 {
		t.Errorf("rows = %d, want 150", rows)
	}
	if errMsg != "" {
		t.Errorf("errMsg = %q, want empty", errMsg)
	}
}

func TestMaterializerRunIdempotentRowCount(t *testing.T) {
	m := New(nil, 4)
	inv := mixedInventory()
	if err := m.Run(context.Background(), inv, 150); err != nil {
		t.Fatalf("Run() first call error = %v", err)
	}
	if err := m.Run(context.Background(), inv, 150); err != nil {
		t.Fatalf("Run() second call error = %v", err)
	}
}
