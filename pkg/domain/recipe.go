package domain

import "strings"

// PlateMap is a named grid of cell contents, row-major, where empty cells
// denote unused wells. Maps are immutable after load.
type PlateMap struct {
	Name  string     `json:"name"`
	Cells [][]string `json:"cells"`
}

// Rows reports the number of physical rows in the map.
func (m PlateMap) Rows() int {
	return len(m.Cells)
}

// Columns reports the width of the widest row.
func (m PlateMap) Columns() int {
	width := 0
	for _, row := range m.Cells {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Fits reports whether every occupied cell lies inside the labware grid.
func (m PlateMap) Fits(g Geometry) bool {
	for r, row := range m.Cells {
		for c, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if r >= g.Rows || c >= g.Columns {
				return false
			}
		}
	}
	return true
}

// Cell returns the trimmed contents at the address, or "" when out of range.
func (m PlateMap) Cell(row, column int) string {
	if row < 0 || row >= len(m.Cells) {
		return ""
	}
	cols := m.Cells[row]
	if column < 0 || column >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[column])
}

// Combination is a named reaction built from an ordered list of parts.
type Combination struct {
	Name  string   `json:"name"`
	Parts []string `json:"parts"`
}

// Recipe bundles the combinations to assemble with the plate maps
// describing where their parts sit on the deck. Plate maps are consulted
// in declaration order.
type Recipe struct {
	Workflow     string        `json:"workflow"`
	Combinations []Combination `json:"combinations"`
	PlateMaps    []PlateMap    `json:"plate_maps"`
}

// CombinationNames lists the combination names in recipe order.
func (r Recipe) CombinationNames() []string {
	out := make([]string, len(r.Combinations))
	for i, c := range r.Combinations {
		out[i] = c.Name
	}
	return out
}

// PartCount reports the number of part transfers across all combinations.
func (r Recipe) PartCount() int {
	total := 0
	for _, c := range r.Combinations {
		total += len(c.Parts)
	}
	return total
}
