package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := LoadViolationCatalog("")
	if err != nil {
		t.Fatalf("LoadViolationCatalog: %v", err)
	}

	cases := []struct {
		name string
		want int
	}{
		{"Speeding", 3},
		{"DUI", 12},
		{"Reckless Driving", 6},
	}
	for _, tc := range cases {
		got, ok := c.Points(tc.name)
		if !ok || got != tc.want {
			t.Fatalf("Points(%q)=%d,%v want %d", tc.name, got, ok, tc.want)
		}
	}

	if _, ok := c.Points("Jaywalking"); ok {
		t.Fatal("unknown type should not resolve")
	}

	types := c.Types()
	if len(types) != len(DefaultViolationTypes) {
		t.Fatalf("Types() len=%d want %d", len(types), len(DefaultViolationTypes))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1].Name > types[i].Name {
			t.Fatalf("Types() not sorted at %d", i)
		}
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	body := "violations:\n  - name: Speeding\n    points: 2\n  - name: DUI\n    points: 12\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadViolationCatalog(path)
	if err != nil {
		t.Fatalf("LoadViolationCatalog: %v", err)
	}
	if p, _ := c.Points("Speeding"); p != 2 {
		t.Fatalf("Speeding=%d want 2", p)
	}
	if len(c.Types()) != 2 {
		t.Fatalf("expected 2 types, got %d", len(c.Types()))
	}
}

func TestCatalogRejectsBadEntries(t *testing.T) {
	bad := [][]ViolationType{
		nil,
		{{Name: "", Points: 1}},
		{{Name: "Speeding", Points: 0}},
		{{Name: "Speeding", Points: 3}, {Name: "Speeding", Points: 4}},
	}
	for i, types := range bad {
		if _, err := NewViolationCatalog(types); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
