package core

import (
	"fmt"
	"slowpoke/pkg/domain"
	"strings"
)

// planBuilder accumulates operations in order. It tracks tip use per
// pipette and inserts a blocking rack refill whenever the racks that fit on
// the deck run out.
type planBuilder struct {
	deck  Deck
	ops   []domain.Operation
	tips  map[string]*tipTracker
	stage string
}

type tipTracker struct {
	pipette PipetteSlot
	used    int
	inLot   int
	lot     int
}

func newPlanBuilder(deck Deck) *planBuilder {
	b := &planBuilder{deck: deck, tips: make(map[string]*tipTracker)}
	for _, p := range deck.Pipettes {
		b.tips[p.Name] = &tipTracker{pipette: p}
	}
	return b
}

// setStage labels subsequent operations.
func (b *planBuilder) setStage(stage string) {
	b.stage = stage
}

func (b *planBuilder) emit(op domain.Operation) {
	if op.Stage == "" {
		op.Stage = b.stage
	}
	if n := op.Tips(); n > 0 {
		b.consumeTips(op.Pipette, n)
	}
	op.Seq = len(b.ops)
	b.ops = append(b.ops, op)
}

func (b *planBuilder) consumeTips(pipette string, n int) {
	t, ok := b.tips[pipette]
	if !ok {
		return
	}
	t.used += n
	capacity := len(t.pipette.TipRackSlots) * TipsPerRack
	if capacity == 0 || n > capacity {
		return
	}
	if t.inLot+n > capacity {
		t.lot++
		t.inLot = 0
		op := domain.Operation{
			Kind:    domain.KindLotChange,
			Stage:   b.stage,
			Pipette: pipette,
			Message: fmt.Sprintf("Tip racks empty: replace the %d racks for %s (slots %s) with full racks and press Resume. Refill %d.",
				len(t.pipette.TipRackSlots), pipette, strings.Join(t.pipette.TipRackSlots, ", "), t.lot),
			Lot: &domain.LotChange{Resource: "tip racks " + pipette, Lot: t.lot, Blocking: true},
		}
		op.Seq = len(b.ops)
		b.ops = append(b.ops, op)
	}
	t.inLot += n
}

func (b *planBuilder) pickUp(pipette string) {
	b.emit(domain.Operation{Kind: domain.KindPickUpTip, Pipette: pipette})
}

func (b *planBuilder) dropTip(pipette string) {
	b.emit(domain.Operation{Kind: domain.KindDropTip, Pipette: pipette})
}

func (b *planBuilder) pause(message string) {
	b.emit(domain.Operation{Kind: domain.KindCheckpointPause, Message: message})
}

func (b *planBuilder) mix(pipette string, reps int, volume float64, well domain.WellRef, rate float64) {
	b.emit(domain.Operation{
		Kind:         domain.KindMix,
		Pipette:      pipette,
		Repetitions:  reps,
		Volume:       volume,
		Destinations: []domain.WellRef{well},
		Rate:         rate,
	})
}

func (b *planBuilder) blowOut(pipette string, target domain.BlowOutTarget, well *domain.WellRef) {
	op := domain.Operation{Kind: domain.KindBlowOut, Pipette: pipette, BlowOut: target}
	if well != nil {
		op.Destinations = []domain.WellRef{*well}
	}
	b.emit(op)
}

func (b *planBuilder) setTemperatures(await bool) {
	for _, m := range b.deck.Modules {
		if m.Celsius == 0 {
			continue
		}
		b.emit(domain.Operation{Kind: domain.KindSetTemperature, Module: m.Name, Celsius: m.Celsius})
	}
	if !await {
		return
	}
	for _, m := range b.deck.Modules {
		if m.Celsius == 0 || !m.Await {
			continue
		}
		b.emit(domain.Operation{Kind: domain.KindAwaitTemperature, Module: m.Name, Celsius: m.Celsius})
	}
}

func (b *planBuilder) deactivate(all bool) {
	for _, m := range b.deck.Modules {
		if m.Celsius == 0 && !all {
			continue
		}
		b.emit(domain.Operation{Kind: domain.KindDeactivate, Module: m.Name})
	}
}

// racksFor returns how many racks to load for a pipette given the tips the
// plan consumes with it, capped at the available slots.
func racksFor(pipette PipetteSlot, tips int) int {
	racks := EstimateTips(tips).Racks
	if racks < 1 {
		racks = 1
	}
	return min(racks, len(pipette.TipRackSlots))
}

// tipRackNames names the racks loaded for a pipette.
func tipRackNames(pipette PipetteSlot, racks int) []string {
	names := make([]string, racks)
	for i := range names {
		names[i] = fmt.Sprintf("%s_tips_%d", pipette.Name, i+1)
	}
	return names
}

// setupOps loads tip racks, instruments, modules and labware. It needs the
// body's tip counts, so it is built after the body and prepended.
func setupOps(deck Deck, tipsByPipette map[string]int) []domain.Operation {
	var ops []domain.Operation
	add := func(op domain.Operation) {
		op.Stage = "setup"
		ops = append(ops, op)
	}
	if deck.Trash != "" {
		add(domain.Operation{Kind: domain.KindLoadLabware, Labware: &domain.LabwareSpec{Name: "trash", Definition: "trash_bin", Location: deck.Trash}})
	}
	for _, p := range deck.Pipettes {
		racks := racksFor(p, tipsByPipette[p.Name])
		names := tipRackNames(p, racks)
		for i, name := range names {
			add(domain.Operation{Kind: domain.KindLoadLabware, Labware: &domain.LabwareSpec{Name: name, Definition: p.TipRack, Location: p.TipRackSlots[i]}})
		}
		add(domain.Operation{Kind: domain.KindLoadInstrument, Pipette: p.Name, Labware: &domain.LabwareSpec{Name: p.Name, Definition: p.Model, Location: p.Mount, TipRacks: names}})
	}
	for _, m := range deck.Modules {
		add(domain.Operation{Kind: domain.KindLoadModule, Module: m.Name, Labware: &domain.LabwareSpec{Name: m.Name, Definition: m.Definition, Location: m.Location}})
	}
	var all []LabwareSlot
	all = append(all, deck.Sources...)
	all = append(all, deck.Outputs...)
	if deck.Reagents.Name != "" {
		all = append(all, deck.Reagents)
	}
	all = append(all, deck.Extra...)
	for _, l := range all {
		add(domain.Operation{Kind: domain.KindLoadLabware, Labware: l.Spec()})
	}
	return ops
}

// finish prepends setup operations and renumbers the plan.
func (b *planBuilder) finish(prefix []domain.Operation) []domain.Operation {
	ops := make([]domain.Operation, 0, len(prefix)+len(b.ops))
	ops = append(ops, prefix...)
	ops = append(ops, b.ops...)
	for i := range ops {
		ops[i].Seq = i
	}
	return ops
}

// tipsByPipette sums the tips used per pipette.
func (b *planBuilder) tipsByPipette() map[string]int {
	out := make(map[string]int, len(b.tips))
	for name, t := range b.tips {
		out[name] = t.used
	}
	return out
}

// rackSlotList formats the tip rack placement for operator messages.
func rackSlotList(pipette PipetteSlot, racks int) string {
	var sb strings.Builder
	for i := 0; i < racks; i++ {
		fmt.Fprintf(&sb, "\n - Rack %d of %s: %s", i+1, pipette.TipRack, pipette.TipRackSlots[i])
	}
	return sb.String()
}
