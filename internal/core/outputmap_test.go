package core

import (
	"reflect"
	"slowpoke/pkg/domain"
	"testing"
)

func TestRenderOutputMapTransposesPairs(t *testing.T) {
	combos := []domain.Combination{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}}
	got := RenderOutputMap(combos)
	want := [][]string{
		{"a", "c", "e"},
		{"b", "d", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected map %v", got)
	}
	if RenderOutputMap(nil) != nil {
		t.Fatalf("empty input should render nothing")
	}
}

func TestOutputTable(t *testing.T) {
	rows := OutputTable([]domain.OutputAssignment{
		{Combination: "a", Index: 0, Plate: 0, Well: domain.WellRef{Labware: "reaction_plate", Well: "A1"}},
		{Combination: "b", Index: 96, Plate: 1, Well: domain.WellRef{Labware: "addition_plate", Well: "A1"}},
	})
	if len(rows) != 3 || rows[0][0] != "combination" {
		t.Fatalf("unexpected table %v", rows)
	}
	if !reflect.DeepEqual(rows[2], []string{"b", "96", "1", "addition_plate", "A1"}) {
		t.Fatalf("unexpected row %v", rows[2])
	}
}
