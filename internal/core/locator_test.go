package core

import (
	"errors"
	"slowpoke/pkg/domain"
	"testing"
)

func TestLocatorFirstMatchInDeclarationOrder(t *testing.T) {
	first := domain.PlateMap{Name: "first", Cells: [][]string{{"A", "B"}, {"C", ""}}}
	second := domain.PlateMap{Name: "second", Cells: [][]string{{"B", " D "}}}
	loc := NewLocator(first, second)

	addr, err := loc.Locate("B")
	if err != nil {
		t.Fatalf("locate B: %v", err)
	}
	if addr.Plate != "first" || addr.Name() != "A2" {
		t.Fatalf("expected first:A2, got %s", addr)
	}
	addr, err = loc.Locate("D")
	if err != nil {
		t.Fatalf("locate D: %v", err)
	}
	if addr.String() != "second:A2" {
		t.Fatalf("expected trimmed match second:A2, got %s", addr)
	}
	if got := len(loc.Occurrences("B")); got != 2 {
		t.Fatalf("expected 2 occurrences of B, got %d", got)
	}
}

func TestLocatorRowMajorWithinMap(t *testing.T) {
	m := domain.PlateMap{Name: "p", Cells: [][]string{{"", "X"}, {"X", ""}}}
	addr, err := NewLocator(m).Locate("X")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if addr.Row != 0 || addr.Column != 1 {
		t.Fatalf("expected row-major first hit at (0,1), got (%d,%d)", addr.Row, addr.Column)
	}
}

func TestLocatorNotFound(t *testing.T) {
	loc := NewLocator(domain.PlateMap{Name: "p", Cells: [][]string{{"A"}}})
	for _, name := range []string{"Z", "", "   "} {
		_, err := loc.Locate(name)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %q, got %v", name, err)
		}
	}
	_, err := loc.Locate("Z")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Name != "Z" {
		t.Fatalf("expected NotFoundError naming Z, got %v", err)
	}
}

func TestLocatorCopiesMaps(t *testing.T) {
	maps := []domain.PlateMap{{Name: "a"}, {Name: "b"}}
	loc := NewLocator(maps...)
	maps[0].Name = "mutated"
	if got := loc.Maps()[0].Name; got != "a" {
		t.Fatalf("locator should not alias caller maps, got %q", got)
	}
}
