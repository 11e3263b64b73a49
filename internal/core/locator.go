package core

import (
	"slowpoke/pkg/domain"
	"strings"
)

// Locator resolves entity names to wells across an ordered set of plate maps.
// Maps are searched in declaration order and row-major within each map; the
// first matching cell wins.
type Locator struct {
	maps []domain.PlateMap
}

// NewLocator constructs a locator over the supplied plate maps.
func NewLocator(maps ...domain.PlateMap) *Locator {
	cp := make([]domain.PlateMap, len(maps))
	copy(cp, maps)
	return &Locator{maps: cp}
}

// Maps returns the plate maps in search order.
func (l *Locator) Maps() []domain.PlateMap {
	out := make([]domain.PlateMap, len(l.maps))
	copy(out, l.maps)
	return out
}

// Locate returns the first well holding name or a *domain.NotFoundError.
func (l *Locator) Locate(name string) (domain.WellAddress, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		for _, m := range l.maps {
			if addr, ok := findInMap(m, name); ok {
				return addr, nil
			}
		}
	}
	return domain.WellAddress{}, &domain.NotFoundError{Name: name}
}

// Occurrences lists every well holding name, in search order.
func (l *Locator) Occurrences(name string) []domain.WellAddress {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	var out []domain.WellAddress
	for _, m := range l.maps {
		for r := range m.Cells {
			for c := range m.Cells[r] {
				if m.Cell(r, c) == name {
					out = append(out, domain.WellAddress{Plate: m.Name, Row: r, Column: c})
				}
			}
		}
	}
	return out
}

func findInMap(m domain.PlateMap, name string) (domain.WellAddress, bool) {
	for r := range m.Cells {
		for c := range m.Cells[r] {
			if m.Cell(r, c) == name {
				return domain.WellAddress{Plate: m.Name, Row: r, Column: c}, true
			}
		}
	}
	return domain.WellAddress{}, false
}
