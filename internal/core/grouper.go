package core

import (
	"slices"
	"slowpoke/pkg/domain"
)

// PartGroup lists, for one part, the combinations needing it in recipe order.
type PartGroup struct {
	Part         string
	Combinations []string
}

// MixGroup holds combinations sharing an identical ordered parts prefix.
type MixGroup struct {
	Parts   []string
	Members []string
}

// GroupByPart inverts the combination to parts relation. Groups are ordered by
// the first appearance of each part; a combination listing a part twice
// appears twice in that part's group.
func GroupByPart(combos []domain.Combination) []PartGroup {
	index := make(map[string]int)
	var groups []PartGroup
	for _, combo := range combos {
		for _, part := range combo.Parts {
			i, ok := index[part]
			if !ok {
				i = len(groups)
				index[part] = i
				groups = append(groups, PartGroup{Part: part})
			}
			groups[i].Combinations = append(groups[i].Combinations, combo.Name)
		}
	}
	return groups
}

// GroupByIdenticalParts merges combinations whose parts, minus the last
// excludeTrailing elements, are equal as sequences. Groups keep the order in
// which their first member appears.
func GroupByIdenticalParts(combos []domain.Combination, excludeTrailing int) []MixGroup {
	var groups []MixGroup
	for _, combo := range combos {
		n := len(combo.Parts) - excludeTrailing
		if n < 0 {
			n = 0
		}
		shared := combo.Parts[:n]
		found := false
		for i := range groups {
			if slices.Equal(groups[i].Parts, shared) {
				groups[i].Members = append(groups[i].Members, combo.Name)
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, MixGroup{
				Parts:   slices.Clone(shared),
				Members: []string{combo.Name},
			})
		}
	}
	return groups
}

// GroupByTemplate groups combinations by their trailing part, typically the
// colony template.
func GroupByTemplate(combos []domain.Combination) []PartGroup {
	tails := make([]domain.Combination, 0, len(combos))
	for _, combo := range combos {
		if len(combo.Parts) == 0 {
			continue
		}
		tails = append(tails, domain.Combination{Name: combo.Name, Parts: combo.Parts[len(combo.Parts)-1:]})
	}
	return GroupByPart(tails)
}
