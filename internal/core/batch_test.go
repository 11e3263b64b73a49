package core

import (
	"errors"
	"slowpoke/pkg/domain"
	"testing"
)

func TestPlanBatchesPreservesOrder(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}
	batches, err := PlanBatches(items, 10)
	if err != nil {
		t.Fatalf("plan batches: %v", err)
	}
	sizes := []int{len(batches[0]), len(batches[1]), len(batches[2])}
	if len(batches) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Fatalf("unexpected batch sizes %v", sizes)
	}
	if batches[1][0] != 10 || batches[2][4] != 24 {
		t.Fatalf("order not preserved: %v", batches)
	}
	batches[0] = append(batches[0], 99)
	if batches[1][0] != 10 {
		t.Fatalf("appending to a batch overwrote the next one")
	}
}

func TestPlanBatchesRejectsNonPositiveFanout(t *testing.T) {
	for _, fanout := range []int{0, -1} {
		if _, err := PlanBatches([]int{1}, fanout); !errors.Is(err, domain.ErrConfiguration) {
			t.Fatalf("fanout %d: expected ErrConfiguration, got %v", fanout, err)
		}
	}
	batches, err := PlanBatches([]int{}, 3)
	if err != nil || len(batches) != 0 {
		t.Fatalf("empty input should produce no batches, got %v %v", batches, err)
	}
}

func TestResolveOutputAddressSpillsOntoNextPlate(t *testing.T) {
	cases := []struct{ index, plate, local int }{
		{0, 0, 0},
		{95, 0, 95},
		{96, 1, 0},
		{150, 1, 54},
	}
	for _, tc := range cases {
		plate, local := ResolveOutputAddress(tc.index, 96)
		if plate != tc.plate || local != tc.local {
			t.Fatalf("index %d: expected (%d,%d), got (%d,%d)", tc.index, tc.plate, tc.local, plate, local)
		}
	}
}

func TestLotCounterChangesOncePerLot(t *testing.T) {
	c := NewLotCounter("tubes", 20)
	var changes []int
	for i := 0; i < 45; i++ {
		lot, changed := c.Advance(i)
		if lot != ResolveLot(i, 20) {
			t.Fatalf("index %d: lot %d, expected %d", i, lot, ResolveLot(i, 20))
		}
		if changed {
			changes = append(changes, i)
		}
	}
	if len(changes) != 2 || changes[0] != 20 || changes[1] != 40 {
		t.Fatalf("expected changeovers at 20 and 40, got %v", changes)
	}
	if c.Lots(45) != 3 || c.Lots(40) != 2 || c.Lots(0) != 0 {
		t.Fatalf("unexpected lot counts %d %d %d", c.Lots(45), c.Lots(40), c.Lots(0))
	}
}

func TestFanoutAndTubeCapacity(t *testing.T) {
	if got := FanoutFor(30, 4.8, 2); got != 12 {
		t.Fatalf("buffer fanout: expected 12, got %d", got)
	}
	if got := FanoutFor(50, 13, 3); got != 9 {
		t.Fatalf("master mix fanout: expected 9, got %d", got)
	}
	if got := FanoutFor(50, 0, 3); got != 0 {
		t.Fatalf("zero volume should yield zero fanout, got %d", got)
	}
	if got := LotsPerTube(1100, 100, 50); got != 20 {
		t.Fatalf("expected 20 reactions per tube, got %d", got)
	}
}

func TestEstimateTips(t *testing.T) {
	cases := []struct{ raw, total, racks int }{
		{0, 0, 0},
		{10, 11, 1},
		{87, 96, 1},
		{88, 97, 2},
		{100, 110, 2},
		{175, 193, 3},
	}
	for _, tc := range cases {
		got := EstimateTips(tc.raw)
		if got.Raw != tc.raw || got.Total != tc.total || got.Racks != tc.racks {
			t.Fatalf("raw %d: expected total %d racks %d, got %+v", tc.raw, tc.total, tc.racks, got)
		}
	}
}
