package materializer

import "github.com/rawblock/universe-engine/pkg/models"

// SourceRow is one raw inventory row read from the ingest source, prior
// to quota selection and staging compute.
type SourceRow struct {
	Symbol   string
	Sector   models.Sector
	X, Y, Z  *float64 // nil if the source has no coordinate for this axis
	HasPrice bool
	Industry uint8
	RiskTier uint8 // 0-7
	VolTier  uint8 // 0-31
	Liquidity uint8 // 0-3, used for the baseline meta32 derivation
}

// AssignedRow pairs a source row with the sector it will be staged
// under. AssignedSector differs from Row.Sector only for rows donated
// by a surplus sector to cover another sector's deficit.
type AssignedRow struct {
	Row            SourceRow
	AssignedSector models.Sector
}

// SelectRows applies plan to inventory: each sector keeps its first
// keep[s] rows in stable (inventory) order, and donor sectors'
// additional rows — beyond their own keep cutoff — are reassigned to
// receiver sectors in the order plan.Transfers lists them. The result
// has exactly plan.Target rows whenever inventory satisfies the plan
// (ComputeQuotaPlan already rejects an insufficient inventory).
func SelectRows(inventory []SourceRow, plan QuotaPlan) []AssignedRow {
	bySector := make(map[models.Sector][]SourceRow)
	for _, r := range inventory {
		bySector[r.Sector] = append(bySector[r.Sector], r)
	}

	assigned := make([]AssignedRow, 0, plan.Target)
	cursor := make(map[models.Sector]int, len(models.CanonicalSectors))

	for _, s := range models.CanonicalSectors {
		rows := bySector[s]
		k := plan.Keep[s]
		if k > len(rows) {
			k = len(rows)
		}
		for _, r := range rows[:k] {
			assigned = append(assigned, AssignedRow{Row: r, AssignedSector: s})
		}
		cursor[s] = k
	}

	for _, tr := range plan.Transfers {
		rows := bySector[tr.From]
		start := cursor[tr.From]
		end := start + tr.Units
		if end > len(rows) {
			end = len(rows)
		}
		for _, r := range rows[start:end] {
			assigned = append(assigned, AssignedRow{Row: r, AssignedSector: tr.To})
		}
		cursor[tr.From] = end
	}

	return assigned
}
