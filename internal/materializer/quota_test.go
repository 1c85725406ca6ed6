package materializer

import (
	"testing"

	"github.com/rawblock/universe-engine/pkg/models"
)

// TestQuotaPlanScenario4 is spec scenario 4: sectors {TECH,FIN,HLTH}
// with real inventory {100,50,10} and target 120 must desire {40,40,40},
// keep {40,40,10}, and redistribute TECH's 60-unit surplus so that
// HLTH's 30-unit deficit is fully covered, landing every sector on its
// desired count.
func TestQuotaPlanScenario4(t *testing.T) {
	real := map[models.Sector]int{
		models.SectorTech:   100,
		models.SectorFin:    50,
		models.SectorHealth: 10,
	}
	// Zero out the other canonical sectors so the scenario's three-sector
	// arithmetic is exact; the base/remainder split still runs over all
	// eight canonical sectors, so give the rest just enough to keep the
	// plan satisfiable while asserting only on the three named sectors.
	for _, s := range models.CanonicalSectors {
		if _, ok := real[s]; !ok {
			real[s] = 0
		}
	}

	plan, err := ComputeQuotaPlan(real, 120)
	if err != nil {
		t.Fatalf("ComputeQuotaPlan() error = %v", err)
	}

	wantDesired := map[models.Sector]int{models.SectorTech: 40, models.SectorFin: 40, models.SectorHealth: 40}
	wantKeep := map[models.Sector]int{models.SectorTech: 40, models.SectorFin: 40, models.SectorHealth: 10}
	for s, want := range wantDesired {
		if plan.Desired[s] != want {
			t.Errorf("Desired[%s] = %d, want %d", s, plan.Desired[s], want)
		}
	}
	for s, want := range wantKeep {
		if plan.Keep[s] != want {
			t.Errorf("Keep[%s] = %d, want %d", s, plan.Keep[s], want)
		}
	}
	for s, want := range wantDesired {
		if plan.Final[s] != want {
			t.Errorf("Final[%s] = %d, want %d", s, plan.Final[s], want)
		}
	}

	totalTransferred := 0
	for _, tr := range plan.Transfers {
		if tr.To == models.SectorHealth {
			totalTransferred += tr.Units
		}
	}
	if totalTransferred != 30 {
		t.Errorf("transfers into HLTH = %d, want 30", totalTransferred)
	}
}

// TestQuotaPlanFinalMatchesDesired checks that for any satisfiable
// inventory, every sector's final count equals its desired count
// exactly, and the sum of final counts equals the target.
func TestQuotaPlanFinalMatchesDesired(t *testing.T) {
	cases := []struct {
		name   string
		real   map[models.Sector]int
		target int
	}{
		{"even", evenReal(1000), 400},
		{"skewed", map[models.Sector]int{
			models.SectorTech: 500, models.SectorFin: 1, models.SectorHealth: 1,
			models.SectorEnergy: 1, models.SectorInds: 1, models.SectorComm: 1,
			models.SectorMatr: 1, models.SectorUtil: 1,
		}, 100},
		{"exact-fit", evenReal(10), 80},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			plan, err := ComputeQuotaPlan(c.real, c.target)
			if err != nil {
				t.Fatalf("ComputeQuotaPlan() error = %v", err)
			}
			sum := 0
			for _, s := range models.CanonicalSectors {
				if plan.Final[s] != plan.Desired[s] {
					t.Errorf("sector %s: final %d != desired %d", s, plan.Final[s], plan.Desired[s])
				}
				sum += plan.Final[s]
			}
			if sum != c.target {
				t.Errorf("sum(final) = %d, want target %d", sum, c.target)
			}
		})
	}
}

func TestQuotaPlanInsufficientInventory(t *testing.T) {
	real := evenReal(5)
	if _, err := ComputeQuotaPlan(real, 1000); err == nil {
		t.Fatal("ComputeQuotaPlan() error = nil, want ErrInsufficientInventory")
	}
}

func TestQuotaPlanDeterministic(t *testing.T) {
	real := map[models.Sector]int{
		models.SectorTech: 100, models.SectorFin: 50, models.SectorHealth: 10,
		models.SectorEnergy: 30, models.SectorInds: 20, models.SectorComm: 5,
		models.SectorMatr: 5, models.SectorUtil: 5,
	}
	p1, err1 := ComputeQuotaPlan(real, 150)
	p2, err2 := ComputeQuotaPlan(real, 150)
	if err1 != nil || err2 != nil {
		t.Fatalf("ComputeQuotaPlan() errors = %v, %v", err1, err2)
	}
	if len(p1.Transfers) != len(p2.Transfers) {
		t.Fatalf("transfer count differs across identical calls: %d vs %d", len(p1.Transfers), len(p2.Transfers))
	}
	for i := range p1.Transfers {
		if p1.Transfers[i] != p2.Transfers[i] {
			t.Errorf("transfer %d differs: %+v vs %+v", i, p1.Transfers[i], p2.Transfers[i])
		}
	}
}

func evenReal(per int) map[models.Sector]int {
	m := make(map[models.Sector]int, len(models.CanonicalSectors))
	for _, s := range models.CanonicalSectors {
		m[s] = per
	}
	return m
}
