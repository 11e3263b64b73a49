package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Geometry describes the well grid of a labware definition.
type Geometry struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Built-in labware geometries used by the workflows.
var (
	Plate96    = Geometry{Rows: 8, Columns: 12}
	TubeRack24 = Geometry{Rows: 4, Columns: 6}
	AgarPlate6 = Geometry{Rows: 2, Columns: 3}
)

// Capacity reports the number of wells in the grid.
func (g Geometry) Capacity() int {
	return g.Rows * g.Columns
}

// WellName renders the A1-style name for a zero-based row and column.
func WellName(row, column int) string {
	return rowLabel(row) + strconv.Itoa(column+1)
}

func rowLabel(row int) string {
	label := ""
	for n := row; ; n = n/26 - 1 {
		label = string(rune('A'+n%26)) + label
		if n < 26 {
			break
		}
	}
	return label
}

// ParseWellName parses an A1-style well name into zero-based coordinates.
func ParseWellName(name string) (row, column int, err error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	i := 0
	for i < len(name) && name[i] >= 'A' && name[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("invalid well name %q", name)
	}
	for _, r := range name[:i] {
		row = row*26 + int(r-'A'+1)
	}
	col, err := strconv.Atoi(name[i:])
	if err != nil || col < 1 {
		return 0, 0, fmt.Errorf("invalid well name %q", name)
	}
	return row - 1, col - 1, nil
}

// WellAddress is a zero-based cell position inside a named plate map or
// output plate.
type WellAddress struct {
	Plate  string `json:"plate"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

// Name renders the address as a well name such as "B3".
func (a WellAddress) Name() string {
	return WellName(a.Row, a.Column)
}

func (a WellAddress) String() string {
	return a.Plate + ":" + a.Name()
}

// Index converts the address to the column-major position used when
// iterating a labware's wells.
func (a WellAddress) Index(g Geometry) int {
	return a.Column*g.Rows + a.Row
}

// AddressAt returns the address for a column-major well index.
func AddressAt(plate string, index int, g Geometry) WellAddress {
	return WellAddress{Plate: plate, Row: index % g.Rows, Column: index / g.Rows}
}

// Point is an offset from a well's top centre in millimetres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// WellRef is a concrete deck location handed to the robot.
type WellRef struct {
	Labware string `json:"labware"`
	Well    string `json:"well"`
	Offset  *Point `json:"offset,omitempty"`
}

// Ref builds a WellRef for the address on the given labware.
func (a WellAddress) Ref(labware string) WellRef {
	return WellRef{Labware: labware, Well: a.Name()}
}

func (r WellRef) String() string {
	if r.Offset == nil {
		return r.Labware + "/" + r.Well
	}
	return fmt.Sprintf("%s/%s%+g%+g%+g", r.Labware, r.Well, r.Offset.X, r.Offset.Y, r.Offset.Z)
}

// WithOffset returns a copy of the reference positioned at the given offset.
func (r WellRef) WithOffset(p Point) WellRef {
	r.Offset = &p
	return r
}
