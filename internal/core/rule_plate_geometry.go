package core

import (
	"context"
	"slowpoke/pkg/domain"
)

// NewPlateGeometryRule checks that every plate map is bound to a source
// labware and fits inside its well grid.
func NewPlateGeometryRule() Rule {
	return plateGeometryRule{}
}

type plateGeometryRule struct{}

func (plateGeometryRule) Name() string { return "plate_geometry" }

func (r plateGeometryRule) Evaluate(_ context.Context, view RecipeView) (domain.Result, error) {
	res := domain.Result{}
	sources := view.Profile.Deck.Sources
	maps := view.Recipe.PlateMaps
	if len(maps) == 0 {
		res.Add(domain.Block(r.Name(), "", domain.Configf("plate_maps", "at least one plate map is required")))
		return res, nil
	}
	if len(maps) > len(sources) {
		res.Add(domain.Block(r.Name(), "", &domain.CapacityExceededError{
			Resource:  "source labware",
			Requested: len(maps),
			Capacity:  len(sources),
		}))
	}
	names := make(map[string]struct{}, len(maps))
	for i, m := range maps {
		if m.Name == "" {
			res.Add(domain.Block(r.Name(), "", domain.Configf("plate_maps", "plate map %d has no name", i+1)))
		} else if _, dup := names[m.Name]; dup {
			res.Add(domain.Block(r.Name(), m.Name, domain.Configf("plate_maps", "duplicate plate map name %q", m.Name)))
		}
		names[m.Name] = struct{}{}
		if i >= len(sources) {
			continue
		}
		if g := sources[i].Geometry(); !m.Fits(g) {
			res.Add(domain.Block(r.Name(), m.Name, domain.Configf("plate_maps",
				"plate map %q (%dx%d) does not fit %s (%dx%d)", m.Name, m.Rows(), m.Columns(), sources[i].Name, g.Rows, g.Columns)))
		}
	}
	return res, nil
}
