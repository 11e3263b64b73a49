package core

import (
	"context"
	"errors"
	"reflect"
	"slowpoke/pkg/domain"
	"strings"
	"testing"
)

func planGoldenGate(t *testing.T, recipe domain.Recipe) domain.Plan {
	t.Helper()
	plan, err := NewService(nil).Plan(context.Background(), recipe)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return plan
}

func TestGoldenGateStageOrder(t *testing.T) {
	plan := planGoldenGate(t, goldenGateRecipe(4, "A", "B", "C", "D"))
	want := []string{"setup", "buffer", "parts", "enzyme", "assembly", "competent_cells", "plating"}
	if got := stages(plan); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected stage order %v", got)
	}
	if plan.Operations[0].Kind != domain.KindCheckpointPause {
		t.Fatalf("plan should open with the tip setup pause, got %s", plan.Operations[0].Kind)
	}
	for i, op := range plan.Operations {
		if op.Seq != i {
			t.Fatalf("operation %d has seq %d", i, op.Seq)
		}
	}
	if got := plan.Count(domain.KindCheckpointPause); got != 8 {
		t.Fatalf("expected 8 checkpoint pauses, got %d", got)
	}
}

func TestGoldenGatePartTransfersOneBatchPerPart(t *testing.T) {
	plan := planGoldenGate(t, goldenGateRecipe(4, "A", "B", "C", "D"))
	if got := plan.Count(domain.KindPartTransfer); got != 4 {
		t.Fatalf("expected 4 part transfers, got %d", got)
	}
	for _, op := range plan.Operations {
		if op.Kind != domain.KindPartTransfer {
			continue
		}
		if len(op.Destinations) != 4 || op.Tip != domain.TipPerDestination || op.Volume != 1 {
			t.Fatalf("unexpected part transfer %+v", op)
		}
		if op.Source.Labware != "dna_plate" {
			t.Fatalf("part %s should come from dna_plate, got %s", op.Message, op.Source)
		}
	}
}

func TestGoldenGateTipCountMatchesEstimate(t *testing.T) {
	for _, n := range []int{1, 4, 13, 45} {
		recipe := goldenGateRecipe(n, "A", "B", "C", "D")
		plan := planGoldenGate(t, recipe)
		want := EstimateGoldenGateTips(recipe.Combinations, FanoutFor(30, 4.8, 2))
		if plan.CountTips() != want.Raw {
			t.Fatalf("n=%d: sequenced %d tips, estimate %d", n, plan.CountTips(), want.Raw)
		}
		if plan.Tips != want {
			t.Fatalf("n=%d: plan estimate %+v, expected %+v", n, plan.Tips, want)
		}
	}
}

func TestGoldenGateAgarAndTubeChangeovers(t *testing.T) {
	plan := planGoldenGate(t, goldenGateRecipe(45, "A", "B", "C", "D"))
	var agar, tubes []domain.LotChange
	for _, op := range plan.LotChanges() {
		switch op.Lot.Resource {
		case "agar plates":
			agar = append(agar, *op.Lot)
		case "competent cell tubes":
			tubes = append(tubes, *op.Lot)
		}
	}
	if len(agar) != 7 {
		t.Fatalf("expected 7 agar plate changes for 45 reactions, got %d", len(agar))
	}
	for i, lot := range agar {
		if lot.Lot != i+1 || lot.Total != 8 || !lot.Blocking {
			t.Fatalf("unexpected agar change %+v", lot)
		}
	}
	if len(tubes) != 2 || tubes[0].Lot != 1 || tubes[1].Lot != 2 {
		t.Fatalf("expected tube changes onto lots 1 and 2, got %+v", tubes)
	}
	if tubes[0].Blocking {
		t.Fatalf("preloaded tube changes should not block")
	}
}

func TestGoldenGateSmallRunHasNoChangeovers(t *testing.T) {
	plan := planGoldenGate(t, goldenGateRecipe(6, "A", "B"))
	if got := len(plan.LotChanges()); got != 0 {
		t.Fatalf("expected no changeovers for 6 reactions, got %d", got)
	}
	spots := 0
	for _, op := range plan.Operations {
		if op.Kind == domain.KindDistribute {
			spots += len(op.Destinations)
			if op.BlowOut != domain.BlowOutTrash {
				t.Fatalf("plating should blow out to trash")
			}
		}
	}
	if spots != 6*13 {
		t.Fatalf("expected 78 plating spots, got %d", spots)
	}
}

func TestGoldenGateTipRackRefill(t *testing.T) {
	profile := GoldenGateProfile()
	profile.Deck.Pipettes[0].TipRackSlots = []string{"B3"}
	reg, err := NewRegistryFromProfiles(profile)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	plan, err := NewService(reg).Plan(context.Background(), goldenGateRecipe(30, "A", "B", "C", "D"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var refills []domain.Operation
	for _, op := range plan.LotChanges() {
		if op.Lot.Resource == "tip racks p50" {
			refills = append(refills, op)
		}
	}
	if len(refills) != 2 {
		t.Fatalf("expected 2 tip rack refills for 213 tips on one rack, got %d", len(refills))
	}
	if !refills[0].Lot.Blocking || refills[0].Pipette != "p50" {
		t.Fatalf("refill should block and name the pipette: %+v", refills[0])
	}
	found := false
	for _, w := range plan.Warnings {
		found = found || w.Rule == "tip_racks"
	}
	if !found {
		t.Fatalf("expected a tip_racks warning, got %+v", plan.Warnings)
	}
}

func TestGoldenGateReagentsAndMessages(t *testing.T) {
	plan := planGoldenGate(t, goldenGateRecipe(10, "A"))
	if len(plan.Reagents) != 3 {
		t.Fatalf("expected 3 reagent requirements, got %d", len(plan.Reagents))
	}
	buffer := plan.Reagents[0]
	if buffer.Location.Well != "A1" || buffer.Volume != 57.6 {
		t.Fatalf("unexpected buffer requirement %+v", buffer)
	}
	if !strings.Contains(plan.Operations[0].Message, "Number of constructions: 10") {
		t.Fatalf("tip setup message missing construction count: %q", plan.Operations[0].Message)
	}
}

func TestGoldenGateRejectsBeforeSequencing(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	missing := goldenGateRecipe(2, "A", "B")
	missing.Combinations[1].Parts = []string{"A", "Z"}
	plan, err := svc.Plan(ctx, missing)
	if !errors.Is(err, domain.ErrNotFound) || !domain.IsRuleViolation(err) {
		t.Fatalf("expected a NotFound rule violation, got %v", err)
	}
	if len(plan.Operations) != 0 {
		t.Fatalf("no operations may be produced for a rejected recipe")
	}

	if _, err := svc.Plan(ctx, goldenGateRecipe(97, "A")); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected output capacity error, got %v", err)
	}
	if _, err := svc.Plan(ctx, goldenGateRecipe(1, "A", "B", "C", "D", "E", "F", "G")); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected too-many-parts error, got %v", err)
	}
}

func TestGoldenGateNegativeSharedVolume(t *testing.T) {
	profile := GoldenGateProfile()
	profile.GoldenGate.ReactionVolume = 6
	reg, err := NewRegistryFromProfiles(profile)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	_, err = NewService(reg).Plan(context.Background(), goldenGateRecipe(2, "A"))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestGoldenGateZeroSharedVolumeSkipsBuffer(t *testing.T) {
	profile := GoldenGateProfile()
	profile.GoldenGate.EnzymeVolume = 6
	reg, err := NewRegistryFromProfiles(profile)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc := NewService(reg)
	recipe := goldenGateRecipe(5, "A", "B", "C", "D")

	res, err := svc.Validate(context.Background(), recipe)
	if err != nil || res.HasBlocking() {
		t.Fatalf("a zero shared volume is valid, got %+v %v", res.Violations, err)
	}
	plan, err := svc.Plan(context.Background(), recipe)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if got := plan.Count(domain.KindReagentDistribute); got != 0 {
		t.Fatalf("expected no buffer distribution, got %d", got)
	}
	if len(plan.Reagents) != 2 || plan.Reagents[0].Name != "enzyme" {
		t.Fatalf("buffer/water should not be requested, got %+v", plan.Reagents)
	}
	for _, op := range plan.Checkpoints() {
		if strings.Contains(op.Message, "buffer/water") {
			t.Fatalf("unexpected buffer pause %q", op.Message)
		}
	}
	if want := EstimateGoldenGateTips(recipe.Combinations, 0); plan.CountTips() != want.Raw {
		t.Fatalf("sequenced %d tips, estimate %d", plan.CountTips(), want.Raw)
	}
}
