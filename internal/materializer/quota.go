package materializer

import "github.com/rawblock/universe-engine/pkg/models"

// Transfer records a deterministic redistribution of units from a donor
// sector's surplus into a receiver sector's deficit.
type Transfer struct {
	From  models.Sector
	To    models.Sector
	Units int
}

// QuotaPlan is the output of ComputeQuotaPlan: per-sector desired and
// kept counts plus the ordered transfer list that reconciles deficits
// against surpluses.
type QuotaPlan struct {
	Target    int
	Desired   map[models.Sector]int
	Keep      map[models.Sector]int
	Final     map[models.Sector]int
	Transfers []Transfer
}

// ComputeQuotaPlan derives the base per-sector quota (T/|S|, with the
// remainder distributed to the first T mod |S| sectors in canonical
// order), then reconciles each sector's real inventory against its
// quota: sectors short of their quota (deficit) draw units from sectors
// over their quota (surplus) via deterministic round-robin matching in
// canonical sector order. ComputeQuotaPlan is a pure function of real
// and target; the same inputs always produce the same plan.
func ComputeQuotaPlan(real map[models.Sector]int, target int) (QuotaPlan, error) {
	sectors := models.CanonicalSectors
	n := len(sectors)

	sumReal := 0
	for _, s := range sectors {
		sumReal += real[s]
	}
	if sumReal < target {
		return QuotaPlan{}, ErrInsufficientInventory
	}

	base := target / n
	rem := target % n

	desired := make(map[models.Sector]int, n)
	for i, s := range sectors {
		d := base
		if i < rem {
			d++
		}
		desired[s] = d
	}

	keep := make(map[models.Sector]int, n)
	deficit := make(map[models.Sector]int, n)
	surplus := make(map[models.Sector]int, n)
	for _, s := range sectors {
		r := real[s]
		d := desired[s]
		if r < d {
			keep[s] = r
			deficit[s] = d - r
		} else {
			keep[s] = d
			surplus[s] = r - d
		}
	}

	final := make(map[models.Sector]int, n)
	for _, s := range sectors {
		final[s] = keep[s]
	}

	var transfers []Transfer
	donorIdx, receiverIdx := 0, 0
	remainingDeficit := 0
	for _, s := range sectors {
		remainingDeficit += deficit[s]
	}

	for remainingDeficit > 0 {
		for deficit[sectors[receiverIdx]] == 0 {
			receiverIdx = (receiverIdx + 1) % n
		}
		for surplus[sectors[donorIdx]] == 0 {
			donorIdx = (donorIdx + 1) % n
		}
		donor := sectors[donorIdx]
		receiver := sectors[receiverIdx]

		amount := surplus[donor]
		if deficit[receiver] < amount {
			amount = deficit[receiver]
		}

		surplus[donor] -= amount
		deficit[receiver] -= amount
		final[receiver] += amount
		remainingDeficit -= amount

		transfers = append(transfers, Transfer{From: donor, To: receiver, Units: amount})

		if surplus[donor] == 0 {
			donorIdx = (donorIdx + 1) % n
		}
		if deficit[receiver] == 0 {
			receiverIdx = (receiverIdx + 1) % n
		}
	}

	return QuotaPlan{
		Target:    target,
		Desired:   desired,
		Keep:      keep,
		Final:     final,
		Transfers: transfers,
	}, nil
}
