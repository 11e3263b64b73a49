package core

import (
	"context"
	"fmt"
	"slices"
	"slowpoke/pkg/domain"
)

// NewPCRVolumeRule validates the per-reaction reagent volumes and the shape
// of each PCR combination: one part per reagent role plus a template.
func NewPCRVolumeRule() Rule {
	return pcrVolumeRule{}
}

type pcrVolumeRule struct{}

func (pcrVolumeRule) Name() string { return "volume_budget" }

func (r pcrVolumeRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	p := view.Profile.PCR
	for _, name := range []string{p.MixPipette, p.TemplatePipette} {
		if _, ok := view.Profile.Deck.Pipette(name); !ok {
			res.Add(domain.Block(r.Name(), name, domain.Configf("pcr.pipette", "pipette %q is not mounted", name)))
		}
	}
	if p.TemplateVolume <= 0 {
		res.Add(domain.Block(r.Name(), "", domain.Configf("pcr.template_volume", "must be positive, got %.2f", p.TemplateVolume)))
	}
	if _, err := MasterMixVolumes(p.ReactionVolume, p.TemplateVolume, p.Roles); err != nil {
		res.Add(domain.Block(r.Name(), "", err))
	}
	if p.ChunkVolume <= 0 {
		res.Add(domain.Block(r.Name(), "", domain.Configf("pcr.chunk_volume", "must be positive, got %.2f", p.ChunkVolume)))
	} else if mix, ok := view.Profile.Deck.Pipette(p.MixPipette); ok && p.ChunkVolume > mix.Capacity {
		res.Add(domain.Block(r.Name(), "", domain.Configf("pcr.chunk_volume", "%.2f uL exceeds the %.0f uL %s", p.ChunkVolume, mix.Capacity, mix.Name)))
	}
	switch p.TemplateMode {
	case TemplatePerReaction, TemplateMixPerDestination, TemplateDistribute:
	default:
		res.Add(domain.Block(r.Name(), "", domain.Configf("pcr.template_mode", "unknown template mode %q", p.TemplateMode)))
	}
	switch p.Mode {
	case MixSingle, MixGrouped:
	default:
		res.Add(domain.Block(r.Name(), "", domain.Configf("pcr.mode", "unknown master mix mode %q", p.Mode)))
	}
	if p.DistributeAspirations > 0 && FanoutFor(p.ChunkVolume, p.ReactionVolume-p.TemplateVolume, p.DistributeAspirations) <= 0 {
		res.Add(domain.Block(r.Name(), "", domain.Configf("pcr.distribute_aspirations",
			"%.2f uL per aspiration cannot serve %.2f uL per reaction", p.ChunkVolume, p.ReactionVolume-p.TemplateVolume)))
	}
	want := len(p.Roles) + 1
	for _, combo := range view.Recipe.Combinations {
		if len(combo.Parts) != want {
			res.Add(domain.Block(r.Name(), combo.Name, domain.Configf("combinations",
				"combination %q lists %d parts, expected %d reagents and a template", combo.Name, len(combo.Parts), len(p.Roles))))
		}
	}
	return res, nil
}

// NewSharedMasterMixRule requires every combination to use the same reagents
// when a single master mix serves the whole plate.
func NewSharedMasterMixRule() Rule {
	return sharedMasterMixRule{}
}

type sharedMasterMixRule struct{}

func (sharedMasterMixRule) Name() string { return "shared_master_mix" }

func (r sharedMasterMixRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	if view.Profile.PCR.Mode != MixSingle {
		return res, nil
	}
	groups := GroupByIdenticalParts(view.Recipe.Combinations, 1)
	if len(groups) > 1 {
		res.Add(domain.Block(r.Name(), groups[1].Members[0], domain.Configf("combinations",
			"single master mix needs identical reagents, but %q uses %v instead of %v",
			groups[1].Members[0], groups[1].Parts, groups[0].Parts)))
	}
	return res, nil
}

// NewMixTubesRule checks that every master mix fits a tube and that there
// are enough tubes for all groups.
func NewMixTubesRule() Rule {
	return mixTubesRule{}
}

type mixTubesRule struct{}

func (mixTubesRule) Name() string { return "mix_tubes" }

func (r mixTubesRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	p := view.Profile.PCR
	groups := pcrGroups(view.Recipe.Combinations, p.Mode)
	if capacity := view.Profile.Deck.Reagents.Geometry().Capacity(); len(groups) > capacity {
		res.Add(domain.Block(r.Name(), "", &domain.CapacityExceededError{
			Resource:  "master mix tubes",
			Requested: len(groups),
			Capacity:  capacity,
		}))
	}
	vols, err := MasterMixVolumes(p.ReactionVolume, p.TemplateVolume, p.Roles)
	if err != nil || p.MixTubeLimit <= 0 {
		return res, nil
	}
	for i, g := range groups {
		total := 0.0
		for _, v := range vols {
			total += reagentDraw(p, v, len(g.Members))
		}
		if total > p.MixTubeLimit {
			res.Add(domain.Block(r.Name(), fmt.Sprintf("mix %d", i+1), &domain.CapacityExceededError{
				Resource:  fmt.Sprintf("master mix %d volume (uL)", i+1),
				Requested: int(total),
				Capacity:  int(p.MixTubeLimit),
			}))
		}
	}
	return res, nil
}

// pcrGroups returns the master-mix groups for the mode: one group holding
// every combination in single mode, otherwise one per identical reagent set.
func pcrGroups(combos []domain.Combination, mode string) []MixGroup {
	if mode != MixSingle {
		return GroupByIdenticalParts(combos, 1)
	}
	if len(combos) == 0 {
		return nil
	}
	g := MixGroup{Parts: slices.Clone(combos[0].Parts[:max(len(combos[0].Parts)-1, 0)])}
	for _, c := range combos {
		g.Members = append(g.Members, c.Name)
	}
	return []MixGroup{g}
}

// reagentDraw is the volume of one reagent pipetted into a master mix for a
// group of n reactions.
func reagentDraw(p PCRParams, perReaction float64, n int) float64 {
	return p.Samples(n)*perReaction + p.DeadVolume
}
