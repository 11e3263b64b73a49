package core

import (
	"context"
	"fmt"
	"math"
	"slowpoke/pkg/domain"
	"strings"
)

// ColonyPCR sequences colony PCR setup: master mixes are built in tubes,
// distributed to the reaction wells and seeded with colony templates.
type ColonyPCR struct {
	profile Profile
}

// NewColonyPCR constructs the workflow for a colony_pcr profile.
func NewColonyPCR(profile Profile) *ColonyPCR {
	return &ColonyPCR{profile: profile.Clone()}
}

func (w *ColonyPCR) Name() string { return w.profile.Name }

func (w *ColonyPCR) Profile() Profile { return w.profile.Clone() }

// Rules returns the workflow-specific checks.
func (w *ColonyPCR) Rules() []Rule {
	return []Rule{NewPCRVolumeRule(), NewSharedMasterMixRule(), NewMixTubesRule()}
}

const volumeEpsilon = 1e-9

// Sequence emits the full operation stream. The view must already have
// passed validation.
func (w *ColonyPCR) Sequence(ctx context.Context, view RecipeView) (domain.Plan, error) {
	p := w.profile.PCR
	deck := w.profile.Deck
	combos := view.Recipe.Combinations
	mixPip := p.MixPipette

	vols, err := MasterMixVolumes(p.ReactionVolume, p.TemplateVolume, p.Roles)
	if err != nil {
		return domain.Plan{}, err
	}
	outputs, err := view.Outputs()
	if err != nil {
		return domain.Plan{}, err
	}
	mixPipette, _ := deck.Pipette(mixPip)
	perReaction := p.ReactionVolume - p.TemplateVolume

	b := newPlanBuilder(deck)
	b.setStage("setup")
	b.setTemperatures(true)
	if p.ReadyMessage != "" {
		b.pause(p.ReadyMessage)
	}

	b.setStage("master_mix")
	reagentTotals := make(map[string]float64)
	var reagentOrder []string
	for gi, g := range pcrGroups(combos, p.Mode) {
		if err := ctx.Err(); err != nil {
			return domain.Plan{}, err
		}
		tube := deck.Reagents.WellAt(gi)
		for j, part := range g.Parts {
			src, err := view.Resolve(part)
			if err != nil {
				return domain.Plan{}, err
			}
			total := reagentDraw(p, vols[j], len(g.Members))
			if _, seen := reagentTotals[part]; !seen {
				reagentOrder = append(reagentOrder, part)
			}
			reagentTotals[part] += total
			w.addReagent(b, p.Roles[j], src, tube, total)
		}
		if p.ManualMixPause {
			b.pause("Mix PCR mastermixes manually if needed")
		}
		samples := p.Samples(len(g.Members))
		b.pickUp(mixPip)
		b.mix(mixPip, p.MixRepetitions, math.Min(p.MixVolumeFor(samples), mixPipette.Capacity), tube, 0)
		if !p.ShareMixTip {
			b.dropTip(mixPip)
		}
		dests, err := view.wellsFor(g.Members)
		if err != nil {
			return domain.Plan{}, err
		}
		tip := domain.TipOnce
		if p.ShareMixTip {
			tip = domain.TipHeld
		}
		fanout := len(dests)
		if p.DistributeAspirations > 0 {
			fanout = FanoutFor(p.ChunkVolume, perReaction, p.DistributeAspirations)
		}
		batches, err := PlanBatches(dests, max(fanout, 1))
		if err != nil {
			return domain.Plan{}, err
		}
		for _, batch := range batches {
			b.emit(domain.Operation{
				Kind:           domain.KindReagentDistribute,
				Pipette:        mixPip,
				Tip:            tip,
				Volume:         perReaction,
				Source:         &tube,
				Destinations:   batch,
				DisposalVolume: p.DistributeDisposal,
			})
		}
		if p.ShareMixTip {
			b.dropTip(mixPip)
		}
	}

	b.setStage("templates")
	if err := w.addTemplates(b, view, outputs); err != nil {
		return domain.Plan{}, err
	}

	b.setStage("finish")
	if p.SealMessage != "" {
		b.pause(p.SealMessage)
	}
	if len(p.Program) > 0 {
		b.pause(programMessage(p))
	}
	b.deactivate(true)

	tips := b.tipsByPipette()
	raw := 0
	for _, n := range tips {
		raw += n
	}
	reagents := make([]domain.ReagentRequirement, 0, len(reagentOrder))
	for _, part := range reagentOrder {
		loc, _ := view.Resolve(part)
		reagents = append(reagents, domain.ReagentRequirement{Name: part, Location: loc, Volume: round2(reagentTotals[part])})
	}
	return domain.Plan{
		Workflow:   w.profile.Name,
		Operations: b.finish(setupOps(deck, tips)),
		Outputs:    outputs,
		Tips:       EstimateTips(raw),
		Reagents:   reagents,
	}, nil
}

// addReagent moves one reagent into a master-mix tube in chunk-sized
// transfers, swapping tips according to the role's refresh interval.
func (w *ColonyPCR) addReagent(b *planBuilder, role PartRole, src, tube domain.WellRef, total float64) {
	p := w.profile.PCR
	pip := p.MixPipette
	full := int(math.Floor((total + volumeEpsilon) / p.ChunkVolume))
	last := round2(total - float64(full)*p.ChunkVolume)
	transfer := func(v float64) {
		b.emit(domain.Operation{
			Kind:         domain.KindTransfer,
			Pipette:      pip,
			Volume:       v,
			Source:       &src,
			Destinations: []domain.WellRef{tube},
			BlowOut:      domain.BlowOutDestination,
			Message:      role.Name,
		})
	}
	b.pickUp(pip)
	for k := 0; k < full; k++ {
		transfer(p.ChunkVolume)
		more := k < full-1 || last > volumeEpsilon
		if more && role.RefreshEvery > 0 && (k+1)%role.RefreshEvery == 0 {
			b.dropTip(pip)
			b.pickUp(pip)
		}
	}
	if last > volumeEpsilon {
		transfer(last)
	}
	b.dropTip(pip)
}

func (w *ColonyPCR) addTemplates(b *planBuilder, view RecipeView, outputs []domain.OutputAssignment) error {
	p := w.profile.PCR
	pip := p.TemplatePipette
	switch p.TemplateMode {
	case TemplatePerReaction:
		for i, combo := range view.Recipe.Combinations {
			src, err := view.Resolve(combo.Parts[len(combo.Parts)-1])
			if err != nil {
				return err
			}
			b.emit(domain.Operation{
				Kind:         domain.KindTransfer,
				Pipette:      pip,
				Tip:          domain.TipOnce,
				Volume:       p.TemplateVolume,
				Source:       &src,
				Destinations: []domain.WellRef{outputs[i].Well},
				BlowOut:      domain.BlowOutDestination,
			})
		}
	case TemplateMixPerDestination:
		mixVolume := math.Min(p.ReactionVolume*p.TemplateMixFraction, p.TemplateMixCap)
		for _, group := range GroupByTemplate(view.Recipe.Combinations) {
			src, err := view.Resolve(group.Part)
			if err != nil {
				return err
			}
			dests, err := view.wellsFor(group.Combinations)
			if err != nil {
				return err
			}
			for _, dest := range dests {
				b.pickUp(pip)
				b.emit(domain.Operation{Kind: domain.KindTransfer, Pipette: pip, Volume: p.TemplateVolume, Source: &src, Destinations: []domain.WellRef{dest}})
				b.mix(pip, p.TemplateMixRepetitions, mixVolume, dest, 0)
				b.blowOut(pip, domain.BlowOutDestination, &dest)
				b.dropTip(pip)
			}
		}
	case TemplateDistribute:
		for _, group := range GroupByTemplate(view.Recipe.Combinations) {
			src, err := view.Resolve(group.Part)
			if err != nil {
				return err
			}
			dests, err := view.wellsFor(group.Combinations)
			if err != nil {
				return err
			}
			b.emit(domain.Operation{
				Kind:           domain.KindDistribute,
				Pipette:        pip,
				Tip:            domain.TipOnce,
				Volume:         p.TemplateVolume,
				Source:         &src,
				Destinations:   dests,
				DisposalVolume: p.TemplateDisposal,
			})
		}
	default:
		return domain.Configf("pcr.template_mode", "unknown template mode %q", p.TemplateMode)
	}
	return nil
}

func programMessage(p PCRParams) string {
	steps := make([]string, len(p.Program))
	for i, s := range p.Program {
		steps[i] = fmt.Sprintf("%gC %ds", s.Celsius, s.Seconds)
	}
	return fmt.Sprintf("Run the PCR program: %d cycles of %s. Press Resume once finished.", p.Cycles, strings.Join(steps, ", "))
}
