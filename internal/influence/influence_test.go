package influence

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScoreEntity(t *testing.T) {
	e := ScoreEntity(Entity{ID: "PORTRAIT", Heft: 2, Allure: 5, Notoriety: 10})

	if e.Power != 70 {
		t.Errorf("Expected power 70 (heft*10 + notoriety*5), got %.1f", e.Power)
	}
	if e.Charisma != 70 {
		t.Errorf("Expected charisma 70 (allure*8 + notoriety*3), got %.1f", e.Charisma)
	}
	if e.Overall != 140 {
		t.Errorf("Expected overall 140, got %.1f", e.Overall)
	}
}

func TestEmptyCatalogScoresZero(t *testing.T) {
	c := NewEmptyCatalog()

	agg := c.AggregateZoneInfluence("library")
	if agg.EntityCount != 0 || agg.TotalInfluence != 0 {
		t.Errorf("Expected zero influence from an empty catalog, got %+v", agg)
	}
	if c.EntityCharisma("ANYTHING") != 0 {
		t.Error("Expected zero charisma for unknown entities")
	}
}

func TestLoadCatalogAggregatesPerRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `[
		{"id": "PORTRAIT", "name": "The Portrait", "kind": "artifact", "region_id": "gallery", "heft": 2, "allure": 5, "notoriety": 10},
		{"id": "CANDELABRA", "name": "Candelabra", "kind": "prop", "region_id": "gallery", "heft": 1, "allure": 2, "notoriety": 0},
		{"id": "LEDGER", "name": "The Ledger", "kind": "artifact", "region_id": "library", "heft": 1, "allure": 1, "notoriety": 4}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("Expected catalog to load, got %v", err)
	}

	gallery := c.AggregateZoneInfluence("gallery")
	if gallery.EntityCount != 2 {
		t.Errorf("Expected 2 gallery entities, got %d", gallery.EntityCount)
	}
	if gallery.TotalPower != 80 {
		t.Errorf("Expected gallery power 80, got %.1f", gallery.TotalPower)
	}
	if len(gallery.TopEntities) != 2 || gallery.TopEntities[0] != "PORTRAIT" {
		t.Errorf("Expected the portrait ranked first, got %v", gallery.TopEntities)
	}

	if got := c.EntityCharisma("LEDGER"); got != 20 {
		t.Errorf("Expected ledger charisma 20, got %.1f", got)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected an error for a missing catalog file")
	}
}
