package core

import "slowpoke/pkg/domain"

const (
	// TipsPerRack is the number of tips in a standard rack.
	TipsPerRack = 96
	// TipSafetyPercent inflates tip estimates to absorb pick-up failures.
	TipSafetyPercent = 10
)

// EstimateTips applies the safety margin to a raw tip count and splits the
// result into racks, rounding up at both steps. Integer arithmetic keeps 100 tips at
// exactly 110.
func EstimateTips(raw int) domain.TipEstimate {
	total := (raw*(100+TipSafetyPercent) + 99) / 100
	return domain.TipEstimate{
		Raw:   raw,
		Total: total,
		Racks: (total + TipsPerRack - 1) / TipsPerRack,
	}
}

// EstimateGoldenGateTips counts the tips a Golden Gate run needs without
// sequencing it: one per buffer batch, one per part and destination pair and
// one per reaction for each of the enzyme, competent cell and plating stages.
func EstimateGoldenGateTips(combos []domain.Combination, bufferFanout int) domain.TipEstimate {
	n := len(combos)
	raw := 0
	if bufferFanout > 0 {
		raw += (n + bufferFanout - 1) / bufferFanout
	}
	for _, group := range GroupByPart(combos) {
		raw += len(group.Combinations)
	}
	raw += 3 * n
	return EstimateTips(raw)
}
