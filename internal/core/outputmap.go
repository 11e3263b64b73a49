package core

import (
	"slowpoke/pkg/domain"
	"strconv"
)

// RenderOutputMap lays combination names out the way the agar plates are
// filled: names are split two at a time into pseudo-columns and the grid is
// then transposed, giving two rows. A trailing odd name leaves an empty
// cell in the second row.
func RenderOutputMap(combos []domain.Combination) [][]string {
	if len(combos) == 0 {
		return nil
	}
	var columns [][]string
	for i := 0; i < len(combos); i += 2 {
		col := []string{combos[i].Name}
		if i+1 < len(combos) {
			col = append(col, combos[i+1].Name)
		}
		columns = append(columns, col)
	}
	return transpose(columns, 2)
}

func transpose(columns [][]string, height int) [][]string {
	rows := make([][]string, height)
	for r := range rows {
		rows[r] = make([]string, len(columns))
		for c, col := range columns {
			if r < len(col) {
				rows[r][c] = col[r]
			}
		}
	}
	return rows
}

// OutputTable lists every output assignment as rows of combination, plate
// ordinal, labware and well, with a header row.
func OutputTable(outputs []domain.OutputAssignment) [][]string {
	rows := [][]string{{"combination", "index", "plate", "labware", "well"}}
	for _, o := range outputs {
		rows = append(rows, []string{o.Combination, strconv.Itoa(o.Index), strconv.Itoa(o.Plate), o.Well.Labware, o.Well.Well})
	}
	return rows
}
