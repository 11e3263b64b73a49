// Package recipe reads combination lists and plate maps from delimited text
// and writes the plate maps operators place agar plates by.
package recipe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slowpoke/pkg/domain"
	"strings"
	"unicode/utf8"
)

const bom = "\ufeff"

// ParseDelimiter converts a configured delimiter such as ";" or "\t" into a
// rune accepted by the CSV reader.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, domain.Configf("delimiter", "invalid delimiter %q", s)
	}
	return r, nil
}

// row is one record with the line it started on.
type row struct {
	line   int
	fields []string
}

func readRows(source string, r io.Reader, delim rune) ([]row, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	var rows []row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%s:%d: %w", source, perr.StartLine, perr.Err)
			}
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], bom)
		}
		rows = append(rows, row{line: line, fields: record})
	}
	return rows, nil
}

// ReadCombinations parses one combination per row: the name followed by its
// parts. Rows with an empty first cell are skipped and empty part cells are
// dropped.
func ReadCombinations(source string, r io.Reader, delim rune) ([]domain.Combination, error) {
	rows, err := readRows(source, r, delim)
	if err != nil {
		return nil, err
	}
	var combos []domain.Combination
	for _, rw := range rows {
		if len(rw.fields) == 0 {
			continue
		}
		name := strings.TrimSpace(rw.fields[0])
		if name == "" {
			continue
		}
		var parts []string
		for _, cell := range rw.fields[1:] {
			if cell = strings.TrimSpace(cell); cell != "" {
				parts = append(parts, cell)
			}
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("%s:%d: combination %q lists no parts", source, rw.line, name)
		}
		combos = append(combos, domain.Combination{Name: name, Parts: parts})
	}
	return combos, nil
}

// ReadPlateMap parses a grid of well contents. Rows keep their physical
// position, so a blank row still occupies a plate row; trailing blank rows
// are dropped.
func ReadPlateMap(name string, r io.Reader, delim rune) (domain.PlateMap, error) {
	rows, err := readRows(name, r, delim)
	if err != nil {
		return domain.PlateMap{}, err
	}
	cells := make([][]string, 0, len(rows))
	for _, rw := range rows {
		cp := make([]string, len(rw.fields))
		for i, cell := range rw.fields {
			cp[i] = strings.TrimSpace(cell)
		}
		cells = append(cells, cp)
	}
	for len(cells) > 0 && blank(cells[len(cells)-1]) {
		cells = cells[:len(cells)-1]
	}
	return domain.PlateMap{Name: name, Cells: cells}, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// MapName derives a plate map name from its file path.
func MapName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadPlateMap reads a plate map file named after its base name.
func LoadPlateMap(path string, delim rune) (domain.PlateMap, error) {
	fh, err := os.Open(path)
	if err != nil {
		return domain.PlateMap{}, err
	}
	defer fh.Close()
	m, err := ReadPlateMap(MapName(path), fh, delim)
	if err != nil {
		return domain.PlateMap{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadCombinations reads a combinations file.
func LoadCombinations(path string, delim rune) ([]domain.Combination, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ReadCombinations(path, fh, delim)
}

// Load assembles a recipe from a combinations file and plate maps given in
// the order they bind to the deck.
func Load(workflow, combinationsPath string, mapPaths []string, delim rune) (domain.Recipe, error) {
	combos, err := LoadCombinations(combinationsPath, delim)
	if err != nil {
		return domain.Recipe{}, err
	}
	maps := make([]domain.PlateMap, 0, len(mapPaths))
	for _, p := range mapPaths {
		m, err := LoadPlateMap(p, delim)
		if err != nil {
			return domain.Recipe{}, err
		}
		maps = append(maps, m)
	}
	return domain.Recipe{Workflow: workflow, Combinations: combos, PlateMaps: maps}, nil
}

// WriteOutputMap writes a rendered grid as comma separated rows. Trailing
// empty cells are omitted, so an odd final name leaves the second row short.
func WriteOutputMap(w io.Writer, grid [][]string) error {
	cw := csv.NewWriter(w)
	for _, r := range grid {
		end := len(r)
		for end > 0 && r[end-1] == "" {
			end--
		}
		if err := cw.Write(r[:end]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes rows verbatim as comma separated values.
func WriteTable(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
