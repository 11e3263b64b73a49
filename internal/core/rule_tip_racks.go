package core

import (
	"context"
	"fmt"
	"slowpoke/pkg/domain"
)

// NewTipRacksRule warns when a Golden Gate run needs more tip racks than the
// deck has slots for; the run then pauses for rack refills.
func NewTipRacksRule() Rule {
	return tipRacksRule{}
}

type tipRacksRule struct{}

func (tipRacksRule) Name() string { return "tip_racks" }

func (r tipRacksRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	p := view.Profile.GoldenGate
	pipette, ok := view.Profile.Deck.Pipette(p.Pipette)
	if !ok {
		return res, nil
	}
	if len(pipette.TipRackSlots) == 0 {
		res.Add(domain.Block(r.Name(), pipette.Name, domain.Configf("deck.pipettes", "pipette %q has no tip rack slots", pipette.Name)))
		return res, nil
	}
	shared, err := SharedVolume(p.ReactionVolume, repeatVolume(p.PartVolume, p.PartsPerReaction), p.EnzymeVolume)
	if err != nil {
		return res, nil
	}
	est := EstimateGoldenGateTips(view.Recipe.Combinations, FanoutFor(p.BufferCapacity, shared, p.BufferAspirations))
	if est.Racks > len(pipette.TipRackSlots) {
		res.Add(domain.Warn(r.Name(), pipette.Name, fmt.Sprintf(
			"%d tips need %d racks but only %d slots exist; the run will pause for rack refills", est.Total, est.Racks, len(pipette.TipRackSlots))))
	}
	return res, nil
}
