package core

import (
	"fmt"
	"slowpoke/pkg/domain"
)

// RecipeView gives rules and sequencers read-only access to a recipe, the
// workflow profile it runs under and the locator over its plate maps.
type RecipeView struct {
	Recipe  domain.Recipe
	Profile Profile
	Locator *Locator
}

// NewRecipeView binds a recipe to a profile.
func NewRecipeView(recipe domain.Recipe, profile Profile) RecipeView {
	return RecipeView{Recipe: recipe, Profile: profile, Locator: NewLocator(recipe.PlateMaps...)}
}

// SourceFor returns the source labware a plate map is bound to.
func (v RecipeView) SourceFor(mapName string) (LabwareSlot, bool) {
	for i, m := range v.Recipe.PlateMaps {
		if m.Name != mapName {
			continue
		}
		if i >= len(v.Profile.Deck.Sources) {
			return LabwareSlot{}, false
		}
		return v.Profile.Deck.Sources[i], true
	}
	return LabwareSlot{}, false
}

// Resolve locates a named part and returns its deck location.
func (v RecipeView) Resolve(name string) (domain.WellRef, error) {
	addr, err := v.Locator.Locate(name)
	if err != nil {
		return domain.WellRef{}, err
	}
	src, ok := v.SourceFor(addr.Plate)
	if !ok {
		return domain.WellRef{}, domain.Configf("plate_maps", "plate map %q has no source labware", addr.Plate)
	}
	return addr.Ref(src.Name), nil
}

// OutputWell maps a reaction index to its output labware and well, spilling
// onto the next output plate once one is full.
func (v RecipeView) OutputWell(index int) (domain.WellRef, int, error) {
	outs := v.Profile.Deck.Outputs
	if capacity, ok := uniformCapacity(outs); ok {
		plate, local := ResolveOutputAddress(index, capacity)
		if plate < len(outs) {
			return outs[plate].WellAt(local), plate, nil
		}
		return domain.WellRef{}, 0, v.outputOverflow(index)
	}
	remaining := index
	for plate, out := range outs {
		capacity := out.Geometry().Capacity()
		if capacity <= 0 {
			continue
		}
		if remaining < capacity {
			return out.WellAt(remaining), plate, nil
		}
		remaining -= capacity
	}
	return domain.WellRef{}, 0, v.outputOverflow(index)
}

func (v RecipeView) outputOverflow(index int) error {
	return &domain.CapacityExceededError{
		Resource:  "output wells",
		Requested: index + 1,
		Capacity:  v.Profile.Deck.OutputCapacity(),
	}
}

// uniformCapacity reports the shared well count of output plates that all
// have the same geometry.
func uniformCapacity(outs []LabwareSlot) (int, bool) {
	if len(outs) == 0 {
		return 0, false
	}
	capacity := outs[0].Geometry().Capacity()
	if capacity <= 0 {
		return 0, false
	}
	for _, o := range outs[1:] {
		if o.Geometry().Capacity() != capacity {
			return 0, false
		}
	}
	return capacity, true
}

// Outputs assigns every combination to its output well.
func (v RecipeView) Outputs() ([]domain.OutputAssignment, error) {
	out := make([]domain.OutputAssignment, len(v.Recipe.Combinations))
	for i, combo := range v.Recipe.Combinations {
		well, plate, err := v.OutputWell(i)
		if err != nil {
			return nil, err
		}
		out[i] = domain.OutputAssignment{Combination: combo.Name, Index: i, Plate: plate, Well: well}
	}
	return out, nil
}

// outputIndex maps combination names to their recipe positions.
func (v RecipeView) outputIndex() map[string]int {
	idx := make(map[string]int, len(v.Recipe.Combinations))
	for i, c := range v.Recipe.Combinations {
		if _, ok := idx[c.Name]; !ok {
			idx[c.Name] = i
		}
	}
	return idx
}

// wellsFor returns the output wells for the named combinations.
func (v RecipeView) wellsFor(names []string) ([]domain.WellRef, error) {
	idx := v.outputIndex()
	out := make([]domain.WellRef, 0, len(names))
	for _, name := range names {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("combination %q: %w", name, &domain.NotFoundError{Name: name})
		}
		well, _, err := v.OutputWell(i)
		if err != nil {
			return nil, err
		}
		out = append(out, well)
	}
	return out, nil
}
