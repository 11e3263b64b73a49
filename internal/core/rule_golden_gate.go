package core

import (
	"context"
	"fmt"
	"slowpoke/pkg/domain"
)

// NewAssemblyVolumeRule validates the Golden Gate volume budget and the
// fan-out limits derived from it.
func NewAssemblyVolumeRule() Rule {
	return assemblyVolumeRule{}
}

type assemblyVolumeRule struct{}

func (assemblyVolumeRule) Name() string { return "volume_budget" }

func (r assemblyVolumeRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	p := view.Profile.GoldenGate
	pipette, ok := view.Profile.Deck.Pipette(p.Pipette)
	if !ok {
		res.Add(domain.Block(r.Name(), p.Pipette, domain.Configf("golden_gate.pipette", "pipette %q is not mounted", p.Pipette)))
		return res, nil
	}
	for _, f := range []struct {
		field string
		value float64
	}{
		{"golden_gate.reaction_volume", p.ReactionVolume},
		{"golden_gate.part_volume", p.PartVolume},
		{"golden_gate.enzyme_volume", p.EnzymeVolume},
		{"golden_gate.cell_volume", p.CellVolume},
		{"golden_gate.spot_volume", p.SpotVolume},
	} {
		if f.value <= 0 {
			res.Add(domain.Block(r.Name(), "", domain.Configf(f.field, "must be positive, got %.2f", f.value)))
		}
	}
	if res.HasBlocking() {
		return res, nil
	}
	shared, err := SharedVolume(p.ReactionVolume, repeatVolume(p.PartVolume, p.PartsPerReaction), p.EnzymeVolume)
	if err != nil {
		res.Add(domain.Block(r.Name(), "", err))
		return res, nil
	}
	for _, combo := range view.Recipe.Combinations {
		if len(combo.Parts) > p.PartsPerReaction {
			res.Add(domain.Block(r.Name(), combo.Name, &domain.CapacityExceededError{
				Resource:  fmt.Sprintf("parts in combination %q", combo.Name),
				Requested: len(combo.Parts),
				Capacity:  p.PartsPerReaction,
			}))
		}
	}
	if shared > 0 {
		fanout := FanoutFor(p.BufferCapacity, shared, p.BufferAspirations)
		if fanout <= 0 {
			res.Add(domain.Block(r.Name(), "", domain.Configf("golden_gate.buffer_capacity",
				"%.2f uL per aspiration cannot serve %.2f uL per reaction", p.BufferCapacity, shared)))
		} else if batch := float64(fanout)*shared + p.BufferDisposal*float64(p.BufferAspirations); batch > pipette.Capacity*float64(p.BufferAspirations) {
			res.Add(domain.Block(r.Name(), "", &domain.CapacityExceededError{
				Resource:  "buffer batch volume (uL)",
				Requested: int(batch),
				Capacity:  int(pipette.Capacity) * p.BufferAspirations,
			}))
		}
	}
	if p.PartFanout <= 0 {
		res.Add(domain.Block(r.Name(), "", domain.Configf("golden_gate.part_fanout", "must be positive, got %d", p.PartFanout)))
	}
	if spots := p.SpotVolume*float64(len(p.SpotOffsets)) + p.SpotDisposal; spots > pipette.Capacity {
		res.Add(domain.Block(r.Name(), "", &domain.CapacityExceededError{
			Resource:  "plating volume (uL)",
			Requested: int(spots),
			Capacity:  int(pipette.Capacity),
		}))
	}
	return res, nil
}

// NewConsumableLotsRule checks that competent-cell tubes and agar plates can
// serve every reaction.
func NewConsumableLotsRule() Rule {
	return consumableLotsRule{}
}

type consumableLotsRule struct{}

func (consumableLotsRule) Name() string { return "lot_capacity" }

func (r consumableLotsRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	p := view.Profile.GoldenGate
	n := len(view.Recipe.Combinations)
	perTube := LotsPerTube(p.TubeVolume, p.TubeSafetyVolume, p.CellVolume)
	switch {
	case perTube <= 0:
		res.Add(domain.Block(r.Name(), "", domain.Configf("golden_gate.tube_volume",
			"a %.0f uL tube with %.0f uL reserve cannot serve %.0f uL per reaction", p.TubeVolume, p.TubeSafetyVolume, p.CellVolume)))
	case len(p.TubeWells) == 0:
		res.Add(domain.Block(r.Name(), "", domain.Configf("golden_gate.tube_wells", "no competent cell tube positions")))
	case p.TubesPreloaded:
		if tubes := NewLotCounter("competent cell tubes", perTube).Lots(n); tubes > len(p.TubeWells) {
			res.Add(domain.Block(r.Name(), "", &domain.CapacityExceededError{
				Resource:  "competent cell tubes",
				Requested: tubes,
				Capacity:  len(p.TubeWells),
			}))
		}
	}
	agar, ok := view.Profile.Deck.Labware(p.AgarPlate)
	if !ok || agar.Geometry().Capacity() <= 0 {
		res.Add(domain.Block(r.Name(), p.AgarPlate, domain.Configf("golden_gate.agar_plate", "agar plate %q is not on the deck", p.AgarPlate)))
	}
	return res, nil
}

func repeatVolume(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
