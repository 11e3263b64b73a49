package core

import (
	"context"
	"slowpoke/pkg/domain"
)

// NewOutputCapacityRule blocks recipes with more combinations than the
// output plates can address.
func NewOutputCapacityRule() Rule {
	return outputCapacityRule{}
}

type outputCapacityRule struct{}

func (outputCapacityRule) Name() string { return "output_capacity" }

func (r outputCapacityRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	capacity := view.Profile.Deck.OutputCapacity()
	if n := len(view.Recipe.Combinations); n > capacity {
		res.Add(domain.Block(r.Name(), "", &domain.CapacityExceededError{
			Resource:  "output wells",
			Requested: n,
			Capacity:  capacity,
		}))
	}
	return res, nil
}
