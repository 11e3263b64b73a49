package core

import (
	"context"
	"slowpoke/pkg/domain"
	"strings"
)

// NewRecipeShapeRule rejects malformed recipes: no combinations, unnamed
// combinations, empty parts lists and duplicate names.
func NewRecipeShapeRule() Rule {
	return recipeShapeRule{}
}

type recipeShapeRule struct{}

func (recipeShapeRule) Name() string { return "recipe_shape" }

func (r recipeShapeRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	combos := view.Recipe.Combinations
	if len(combos) == 0 {
		res.Add(domain.Block(r.Name(), "", domain.Configf("combinations", "recipe has no combinations")))
		return res, nil
	}
	seen := make(map[string]int, len(combos))
	for i, combo := range combos {
		name := strings.TrimSpace(combo.Name)
		if name == "" {
			res.Add(domain.Block(r.Name(), "", domain.Configf("combinations", "combination %d has no name", i+1)))
			continue
		}
		if len(combo.Parts) == 0 {
			res.Add(domain.Block(r.Name(), name, domain.Configf("combinations", "combination %q has no parts", name)))
		}
		for j, part := range combo.Parts {
			if strings.TrimSpace(part) == "" {
				res.Add(domain.Block(r.Name(), name, domain.Configf("combinations", "combination %q has an empty part at position %d", name, j+1)))
			}
		}
		if first, dup := seen[name]; dup {
			res.Add(domain.Block(r.Name(), name, domain.Configf("combinations", "duplicate combination name %q (positions %d and %d)", name, first+1, i+1)))
			continue
		}
		seen[name] = i
	}
	return res, nil
}
