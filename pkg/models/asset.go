package models

import "github.com/google/uuid"

// Sector is the canonical economic sector bucket for a universe asset.
// Order is significant: it is the deterministic rank used by the
// materializer's quota plan and redistribution pass.
type Sector string

const (
	SectorTech   Sector = "TECH"
	SectorFin    Sector = "FIN"
	SectorHealth Sector = "HLTH"
	SectorEnergy Sector = "ENER"
	SectorInds   Sector = "INDS"
	SectorComm   Sector = "COMM"
	SectorMatr   Sector = "MATR"
	SectorUtil   Sector = "UTIL"
)

// CanonicalSectors is the fixed canonical ordering used everywhere a
// deterministic rank over sectors is required (quota plan, redistribution,
// staging table naming).
var CanonicalSectors = []Sector{
	SectorTech, SectorFin, SectorHealth, SectorEnergy,
	SectorInds, SectorComm, SectorMatr, SectorUtil,
}

// Governance is the lifecycle/trust state of an asset's classification.
type Governance string

const (
	GovernanceProvisional Governance = "Provisional"
	GovernanceSanctioned  Governance = "Sanctioned"
	GovernanceQuarantined Governance = "Quarantined"
	GovernanceArchived    Governance = "Archived"
	GovernanceBlacklisted Governance = "Blacklisted"
)

// UniverseAsset is a single financial asset placed in the universe.
// It is created by the materializer or an ingest path, mutated only by
// the tick engine's meta32 lane or a full re-materialization, and
// destroyed by a death event that returns its VoidPool slot.
type UniverseAsset struct {
	Symbol         string
	Name           string
	Taxonomy32     uint32
	Meta32         uint32
	Fidelity       float32 // [0,1]
	Governance     Governance
	X, Y, Z        float32 // [0,1]
	RenderPriority uint8
	ClusterID      *uuid.UUID
	LiquidityTier  uint8 // [1..3]
	Sector         Sector
}

// CanonicalID derives the 16-byte canonical identifier used in the
// delta protocol's ASSET_REMOVE and FIDELITY_UPDATE payloads. It is
// deterministic for a given symbol so repeated materializations do not
// churn downstream identity.
func CanonicalID(symbol string) uuid.UUID {
	return uuid.NewSHA1(canonicalNamespace, []byte(symbol))
}

var canonicalNamespace = uuid.MustParse("6f6e1e1e-2a4d-4a3a-9d8e-6a5b1c2d3e4f")

// Tier names the provenance of a built Snapshot, in descending
// trustworthiness order.
type Tier string

const (
	TierSovereign  Tier = "Sovereign"
	TierAmbassador Tier = "Ambassador"
	TierSentinel   Tier = "Sentinel"
)

// Snapshot is the Vertex28 buffer plus descriptive metadata returned by
// the snapshot endpoint. VertexBytes.len() always equals 28*len(Assets).
type Snapshot struct {
	TsMs        int64
	Assets      []UniverseAsset
	VertexBytes []byte
	Tier        Tier
}
