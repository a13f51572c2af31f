package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/khaledhikmat/exhibit-guide/service/config"
)

func TestRetrieveExhibitByLabel(t *testing.T) {
	svc := NewMemory(builtin)

	tests := []struct {
		label     string
		wantTitle string
		wantOK    bool
	}{
		{"Energy Story", "Energy Story", true},
		{"  energy story ", "Energy Story", true},
		{"Going Viral", "Going Viral Travelling Exhibition", true},
		{"Laser Maze Room 2", "Laser Maze Challenge", true},
		{"Phobia", "Phobia²: The Science of Fear", true},
		{"Dinosaur Hall", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := svc.RetrieveExhibitByLabel(tt.label)
			if ok != tt.wantOK || got.Title != tt.wantTitle {
				t.Errorf("RetrieveExhibitByLabel(%q) = %q, %v; want %q, %v", tt.label, got.Title, ok, tt.wantTitle, tt.wantOK)
			}
		})
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `exhibits:
  - label: Kinetic Garden
    short_description: Outdoor exhibits about forms of energy.
  - label: Ecogarden
    title: Ecogarden
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CATALOG_FILE", path)
	cfgsvc, err := config.New()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	svc, err := New(cfgsvc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exhibits := svc.RetrieveExhibits()
	if len(exhibits) != 2 {
		t.Fatalf("expected 2 exhibits, got %d", len(exhibits))
	}
	if exhibits[0].Title != "Kinetic Garden" || exhibits[0].ShortDescription == "" {
		t.Errorf("unexpected first exhibit %+v", exhibits[0])
	}
}

func TestNewDefaultsToBuiltin(t *testing.T) {
	svc, err := New(config.NewDefault())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.RetrieveExhibits()) != len(builtin) {
		t.Errorf("expected built-in catalog")
	}
}
