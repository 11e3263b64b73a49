package core

import (
	"context"
	"fmt"
	"slowpoke/pkg/domain"
	"strings"
)

// NewPartLocationsRule requires every part of every combination to resolve
// to a well. Names found in more than one place resolve to the first and are
// reported as warnings.
func NewPartLocationsRule() Rule {
	return partLocationsRule{}
}

type partLocationsRule struct{}

func (partLocationsRule) Name() string { return "part_locations" }

func (r partLocationsRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	checked := make(map[string]struct{})
	for _, combo := range view.Recipe.Combinations {
		for _, part := range combo.Parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := checked[part]; ok {
				continue
			}
			checked[part] = struct{}{}
			hits := view.Locator.Occurrences(part)
			if len(hits) == 0 {
				res.Add(domain.Block(r.Name(), part, &domain.NotFoundError{Name: part}))
				continue
			}
			if len(hits) > 1 {
				where := make([]string, len(hits))
				for i, h := range hits {
					where[i] = h.String()
				}
				res.Add(domain.Warn("ambiguous_part", part,
					fmt.Sprintf("%q appears %d times (%s); using %s", part, len(hits), strings.Join(where, ", "), where[0])))
			}
		}
	}
	return res, nil
}
