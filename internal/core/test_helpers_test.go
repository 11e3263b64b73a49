package core

import (
	"fmt"
	"slowpoke/pkg/domain"
)

// gridMap lays names out row-major on a rows x cols grid.
func gridMap(name string, rows, cols int, names ...string) domain.PlateMap {
	cells := make([][]string, rows)
	for r := range cells {
		cells[r] = make([]string, cols)
	}
	for i, n := range names {
		cells[i/cols][i%cols] = n
	}
	return domain.PlateMap{Name: name, Cells: cells}
}

// goldenGateRecipe builds n combinations that all use the given parts.
func goldenGateRecipe(n int, parts ...string) domain.Recipe {
	combos := make([]domain.Combination, n)
	for i := range combos {
		combos[i] = domain.Combination{Name: fmt.Sprintf("construct_%02d", i+1), Parts: parts}
	}
	return domain.Recipe{
		Workflow:     "golden_gate",
		Combinations: combos,
		PlateMaps:    []domain.PlateMap{gridMap("dna_plate", 8, 12, parts...)},
	}
}

var pcrReagents = []string{"water", "mm", "fwd", "rev"}

// pcrRecipe builds n colony PCR combinations sharing one reagent set, each
// seeded from its own colony. Past 96 reactions colonies are picked again.
func pcrRecipe(workflow string, n int) domain.Recipe {
	combos := make([]domain.Combination, n)
	colonies := make([]string, min(n, 96))
	for i := range combos {
		colony := i % len(colonies)
		colonies[colony] = fmt.Sprintf("colony_%02d", colony+1)
		parts := append(append([]string{}, pcrReagents...), colonies[colony])
		combos[i] = domain.Combination{Name: fmt.Sprintf("pcr_%02d", i+1), Parts: parts}
	}
	return domain.Recipe{
		Workflow:     workflow,
		Combinations: combos,
		PlateMaps: []domain.PlateMap{
			gridMap("pcr_deck", 4, 6, pcrReagents...),
			gridMap("colonies", 8, 12, colonies...),
		},
	}
}

// stages lists operation stages in order of first appearance.
func stages(plan domain.Plan) []string {
	var out []string
	seen := make(map[string]bool)
	for _, op := range plan.Operations {
		if !seen[op.Stage] {
			seen[op.Stage] = true
			out = append(out, op.Stage)
		}
	}
	return out
}
