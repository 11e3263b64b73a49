package core

import (
	"math"
	"slowpoke/pkg/domain"
)

// PlanBatches splits items into consecutive batches of at most maxFanout
// elements. Order is preserved and only the final batch may be shorter.
func PlanBatches[T any](items []T, maxFanout int) ([][]T, error) {
	if maxFanout <= 0 {
		return nil, domain.Configf("max_fanout", "must be positive, got %d", maxFanout)
	}
	batches := make([][]T, 0, (len(items)+maxFanout-1)/maxFanout)
	for start := 0; start < len(items); start += maxFanout {
		end := min(start+maxFanout, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches, nil
}

// FanoutFor derives a fan-out limit from the volume one aspiration may carry.
// The per-destination draw is rounded up to whole microlitres before dividing.
func FanoutFor(capacity, perDestination float64, aspirations int) int {
	if perDestination <= 0 || aspirations <= 0 {
		return 0
	}
	return aspirations * int(math.Floor(capacity/math.Ceil(perDestination)))
}

// ResolveOutputAddress maps a reaction index onto a plate ordinal and an
// index within that plate.
func ResolveOutputAddress(index, plateCapacity int) (plate, local int) {
	return index / plateCapacity, index % plateCapacity
}

// ResolveLot returns the consumable lot serving the reaction index.
func ResolveLot(index, capacityPerLot int) int {
	return index / capacityPerLot
}

// LotsPerTube reports how many reactions a tube can serve after reserving a
// safety volume.
func LotsPerTube(tubeVolume, safetyVolume, perReaction float64) int {
	if perReaction <= 0 {
		return 0
	}
	return int(math.Floor((tubeVolume - safetyVolume) / perReaction))
}

// LotCounter tracks consumption of a lot-based resource as reaction indices
// advance. It reports a changeover exactly once per lot increment.
type LotCounter struct {
	Resource string
	Capacity int
	current  int
}

// NewLotCounter constructs a counter positioned on lot zero.
func NewLotCounter(resource string, capacity int) *LotCounter {
	return &LotCounter{Resource: resource, Capacity: capacity}
}

// Advance returns the lot serving reaction index and whether this call moved
// the counter onto a new lot. Indices must be visited in increasing order.
func (c *LotCounter) Advance(index int) (lot int, changed bool) {
	lot = ResolveLot(index, c.Capacity)
	if lot > c.current {
		c.current = lot
		return lot, true
	}
	return c.current, false
}

// Lots reports how many lots are needed for n reactions.
func (c *LotCounter) Lots(n int) int {
	if n <= 0 {
		return 0
	}
	return ResolveLot(n-1, c.Capacity) + 1
}
