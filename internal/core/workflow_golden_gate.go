package core

import (
	"context"
	"fmt"
	"math"
	"slowpoke/pkg/domain"
)

// StagePlating labels the operations that spread transformants on agar.
const StagePlating = "plating"

// GoldenGate sequences assembly, transformation and plating.
type GoldenGate struct {
	profile Profile
}

// NewGoldenGate constructs the workflow for a golden_gate profile.
func NewGoldenGate(profile Profile) *GoldenGate {
	return &GoldenGate{profile: profile.Clone()}
}

func (w *GoldenGate) Name() string { return w.profile.Name }

func (w *GoldenGate) Profile() Profile { return w.profile.Clone() }

// Rules returns the workflow-specific checks.
func (w *GoldenGate) Rules() []Rule {
	return []Rule{NewAssemblyVolumeRule(), NewConsumableLotsRule(), NewTipRacksRule()}
}

// Sequence emits the full operation stream. The view must already have
// passed validation.
func (w *GoldenGate) Sequence(ctx context.Context, view RecipeView) (domain.Plan, error) {
	p := w.profile.GoldenGate
	deck := w.profile.Deck
	combos := view.Recipe.Combinations
	n := len(combos)
	pip := p.Pipette

	shared, err := SharedVolume(p.ReactionVolume, repeatVolume(p.PartVolume, p.PartsPerReaction), p.EnzymeVolume)
	if err != nil {
		return domain.Plan{}, err
	}
	outputs, err := view.Outputs()
	if err != nil {
		return domain.Plan{}, err
	}
	wells := make([]domain.WellRef, n)
	for i, o := range outputs {
		wells[i] = o.Well
	}
	reagents := deck.Reagents
	sharedWell := reagents.Well(p.SharedWell)
	enzymeWell := reagents.Well(p.EnzymeWell)

	b := newPlanBuilder(deck)

	b.setStage("buffer")
	b.setTemperatures(false)
	// Parts and enzyme can fill the reaction on their own.
	if shared > 0 {
		b.pause(fmt.Sprintf("Temperature modules ready!\nPut %s uL of buffer/water in %s.", formatVolume(shared*float64(n)*1.2), p.SharedWell))
		batches, err := PlanBatches(wells, FanoutFor(p.BufferCapacity, shared, p.BufferAspirations))
		if err != nil {
			return domain.Plan{}, err
		}
		for _, batch := range batches {
			b.emit(domain.Operation{
				Kind:           domain.KindReagentDistribute,
				Pipette:        pip,
				Tip:            domain.TipOnce,
				Volume:         shared,
				Source:         &sharedWell,
				Destinations:   batch,
				DisposalVolume: p.BufferDisposal,
			})
		}
	}

	b.setStage("parts")
	for _, group := range GroupByPart(combos) {
		if err := ctx.Err(); err != nil {
			return domain.Plan{}, err
		}
		src, err := view.Resolve(group.Part)
		if err != nil {
			return domain.Plan{}, err
		}
		dests, err := view.wellsFor(group.Combinations)
		if err != nil {
			return domain.Plan{}, err
		}
		partBatches, err := PlanBatches(dests, p.PartFanout)
		if err != nil {
			return domain.Plan{}, err
		}
		for _, batch := range partBatches {
			b.emit(domain.Operation{
				Kind:         domain.KindPartTransfer,
				Pipette:      pip,
				Tip:          domain.TipPerDestination,
				Volume:       p.PartVolume,
				Source:       &src,
				Destinations: batch,
				Message:      group.Part,
			})
		}
	}

	b.setStage("enzyme")
	b.pause(fmt.Sprintf("Put %s uL of enzyme in %s.", formatVolume(p.EnzymeVolume*float64(n)), p.EnzymeWell))
	mixVolume := math.Min(p.ReactionVolume*p.MixFraction, p.MixCap)
	for i := range wells {
		well := wells[i]
		b.pickUp(pip)
		b.emit(domain.Operation{Kind: domain.KindTransfer, Pipette: pip, Volume: p.EnzymeVolume, Source: &enzymeWell, Destinations: []domain.WellRef{well}})
		b.mix(pip, p.MixRepetitions, mixVolume, well, 0)
		b.blowOut(pip, domain.BlowOutDestination, &well)
		b.dropTip(pip)
	}

	b.setStage("assembly")
	b.deactivate(false)
	b.pause("Golden Gate: seal the PCR plate with adhesive film, run the Golden Gate program (cycles 37C/16C) and press Resume once finished.")
	b.setTemperatures(false)

	b.setStage("competent_cells")
	perTube := LotsPerTube(p.TubeVolume, p.TubeSafetyVolume, p.CellVolume)
	tubes := NewLotCounter("competent cell tubes", perTube)
	totalTubes := tubes.Lots(n)
	b.pause(fmt.Sprintf("%s uL of competent cells in total, %s uL per tube in %s.",
		formatVolume(p.CellVolume*float64(n)), formatVolume(p.TubeVolume), tubeRange(p, totalTubes)))
	for i := range wells {
		lot, changed := tubes.Advance(i)
		if changed {
			b.emit(tubeChange(p, lot, totalTubes))
		}
		tube := reagents.Well(tubeWell(p, lot))
		well := wells[i]
		b.pickUp(pip)
		b.emit(domain.Operation{Kind: domain.KindTransfer, Pipette: pip, Volume: p.CellVolume, Source: &tube, Destinations: []domain.WellRef{well}, Rate: p.CellRate})
		b.mix(pip, p.CellMixRepetitions, p.CellMixVolume, well, p.CellRate)
		b.blowOut(pip, domain.BlowOutDestination, &well)
		b.dropTip(pip)
	}
	b.deactivate(false)
	b.pause("Heat shock: reseal the PCR plate, run the heat shock program and press Resume to begin plating.")

	b.setStage(StagePlating)
	agar, _ := deck.Labware(p.AgarPlate)
	perPlate := agar.Geometry().Capacity()
	plates := NewLotCounter("agar plates", perPlate)
	totalPlates := plates.Lots(n)
	b.pause(fmt.Sprintf("Setup plating:\n %d constructions to plate\n %d agar plate(s)\n Total volume to plate: %s uL\nPlace the first agar plate at %s and press Resume.",
		n, totalPlates, formatVolume(p.SpotVolume*float64(len(p.SpotOffsets))*float64(n)), agar.Location))
	for i := range wells {
		lot, changed := plates.Advance(i)
		if changed {
			b.emit(domain.Operation{
				Kind: domain.KindLotChange,
				Message: fmt.Sprintf("Changing agar plate: remove the full agar plate (plate %d), place a new empty agar plate at %s and press Resume. Starting plate %d/%d.",
					lot, agar.Location, lot+1, totalPlates),
				Lot: &domain.LotChange{Resource: "agar plates", Lot: lot, Total: totalPlates, Blocking: true},
			})
		}
		target := agar.WellAt(i % perPlate)
		spots := make([]domain.WellRef, len(p.SpotOffsets))
		for j, off := range p.SpotOffsets {
			spots[j] = target.WithOffset(off)
		}
		well := wells[i]
		b.pickUp(pip)
		b.mix(pip, p.PlatingMixRepetitions, p.PlatingMixVolume, well, 0)
		b.emit(domain.Operation{
			Kind:           domain.KindDistribute,
			Pipette:        pip,
			Volume:         p.SpotVolume,
			Source:         &well,
			Destinations:   spots,
			DisposalVolume: p.SpotDisposal,
			BlowOut:        domain.BlowOutTrash,
		})
		b.dropTip(pip)
	}
	b.pause("Protocol completed!\nNext steps:\n- Remove the last agar plate\n- Incubate the agar plates at 37C overnight\n- Check colony growth tomorrow")

	tips := b.tipsByPipette()
	pipette, _ := deck.Pipette(pip)
	est := EstimateTips(tips[pip])
	racks := racksFor(pipette, tips[pip])
	prefix := []domain.Operation{{
		Kind:  domain.KindCheckpointPause,
		Stage: "setup",
		Message: fmt.Sprintf("Tip setup:\n- Number of constructions: %d\n- Tips needed: %d\n- Tip racks needed: %d\n\nPlace %d racks at:%s",
			n, est.Total, est.Racks, racks, rackSlotList(pipette, racks)),
	}}
	prefix = append(prefix, setupOps(deck, tips)...)

	return domain.Plan{
		Workflow:   w.profile.Name,
		Operations: b.finish(prefix),
		Outputs:    outputs,
		Tips:       est,
		Reagents:   goldenGateReagents(p, reagents, shared, n),
	}, nil
}

func goldenGateReagents(p GoldenGateParams, reagents LabwareSlot, shared float64, n int) []domain.ReagentRequirement {
	var out []domain.ReagentRequirement
	if shared > 0 {
		out = append(out, domain.ReagentRequirement{Name: "buffer/water", Location: reagents.Well(p.SharedWell), Volume: round2(shared * float64(n) * 1.2)})
	}
	return append(out,
		domain.ReagentRequirement{Name: "enzyme", Location: reagents.Well(p.EnzymeWell), Volume: round2(p.EnzymeVolume * float64(n))},
		domain.ReagentRequirement{Name: "competent cells", Location: reagents.Well(tubeWell(p, 0)), Volume: round2(p.CellVolume * float64(n))},
	)
}

func tubeWell(p GoldenGateParams, lot int) string {
	if !p.TubesPreloaded {
		return p.TubeWells[0]
	}
	return p.TubeWells[lot]
}

func tubeRange(p GoldenGateParams, tubes int) string {
	if !p.TubesPreloaded || tubes <= 1 {
		return p.TubeWells[0]
	}
	return p.TubeWells[0] + " -> " + p.TubeWells[tubes-1]
}

func tubeChange(p GoldenGateParams, lot, total int) domain.Operation {
	op := domain.Operation{
		Kind: domain.KindLotChange,
		Lot:  &domain.LotChange{Resource: "competent cell tubes", Lot: lot, Total: total, Blocking: !p.TubesPreloaded},
	}
	if p.TubesPreloaded {
		op.Message = fmt.Sprintf("Switching to competent cell tube %d/%d in %s.", lot+1, total, p.TubeWells[lot])
	} else {
		op.Message = fmt.Sprintf("Competent cell tube %d is empty: replace it with a fresh tube at %s and press Resume. Starting tube %d/%d.",
			lot, p.TubeWells[0], lot+1, total)
	}
	return op
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatVolume(v float64) string {
	return fmt.Sprintf("%g", round2(v))
}
