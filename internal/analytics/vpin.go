package analytics

import "math"

const (
	vpinWindow = 50
	vpinKappa  = 1e-3
)

type vpinBucket struct {
	buy, sell, total float64
}

// VPINState is one asset's sliding-window volume-synchronized
// probability of informed trading state.
type VPINState struct {
	buckets  [vpinWindow]vpinBucket
	head     int
	filled   int
	sumBuy   float64
	sumSell  float64
	sumTotal float64
	count    uint64
}

// VPINBank is a dense, slot-indexed array of VPIN detector state.
type VPINBank struct {
	states []VPINState
}

// NewVPINBank allocates a bank with room for n slots.
func NewVPINBank(n int) *VPINBank {
	return &VPINBank{states: make([]VPINState, n)}
}

// Reset clears the state at slot, for reuse after a death/birth cycle.
func (b *VPINBank) Reset(slot uint32) {
	b.states[slot] = VPINState{}
}

// Update feeds (price, volume, prevPrice) for the asset at slot and
// returns (risk8, vital6). Buy/sell volume is classified by the sign of
// the price change; ties split the bucket's volume 50/50. The first
// observation for a slot emits the neutral pair (128, 32) since there
// is no window yet to measure imbalance against.
func (b *VPINBank) Update(slot uint32, price, volume, prevPrice float64) (risk8, vital6 uint8) {
	s := &b.states[slot]

	buy, sell := classifyFlow(price, prevPrice, volume)
	s.push(buy, sell, volume)

	if s.count == 0 {
		s.count = 1
		return 128, 32
	}
	s.count++

	denom := math.Max(s.sumTotal, vpinKappa)
	imbalance := math.Abs(s.sumBuy-s.sumSell) / denom
	vpin := clamp(imbalance, 0, 1)

	risk8 = uint8(math.Round(255 * vpin))
	vital6 = uint8(math.Round(63 * (1 - vpin)))
	return risk8, vital6
}

func classifyFlow(price, prevPrice, volume float64) (buy, sell float64) {
	delta := price - prevPrice
	switch {
	case delta > 0:
		return volume, 0
	case delta < 0:
		return 0, volume
	default:
		return volume / 2, volume / 2
	}
}

func (s *VPINState) push(buy, sell, total float64) {
	if s.filled == vpinWindow {
		old := s.buckets[s.head]
		s.sumBuy -= old.buy
		s.sumSell -= old.sell
		s.sumTotal -= old.total
	} else {
		s.filled++
	}

	s.buckets[s.head] = vpinBucket{buy: buy, sell: sell, total: total}
	s.head = (s.head + 1) % vpinWindow

	s.sumBuy += buy
	s.sumSell += sell
	s.sumTotal += total
}
