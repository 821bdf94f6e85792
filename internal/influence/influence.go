// Package influence scores discrete venue entities (props, NPCs, artifacts)
// into structural power/charisma numbers and aggregates them per region.
// The simulation core consumes this as a pure function and never interprets
// the scoring heuristic.
package influence

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Entity is a scored venue object. Raw attributes come from the catalog;
// Power, Charisma and Overall are computed by ScoreEntity.
type Entity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"` // "prop", "npc", "artifact"
	RegionID string `json:"region_id"`

	Heft      float64 `json:"heft"`
	Allure    float64 `json:"allure"`
	Notoriety float64 `json:"notoriety"`

	Power    float64 `json:"power"`
	Charisma float64 `json:"charisma"`
	Overall  float64 `json:"overall"`
}

// ZoneInfluence is the per-region aggregate the pressure core consumes.
type ZoneInfluence struct {
	EntityCount    int      `json:"entity_count"`
	TotalPower     float64  `json:"total_power"`
	TotalCharisma  float64  `json:"total_charisma"`
	TotalInfluence float64  `json:"total_influence"`
	TopEntities    []string `json:"top_entities"`
}

// Index is the interface the simulation core depends on.
type Index interface {
	AggregateZoneInfluence(regionID string) ZoneInfluence
	EntityCharisma(entityID string) float64
}

// ScoreEntity computes power/charisma/overall from raw attributes.
func ScoreEntity(e Entity) Entity {
	e.Power = e.Heft*10 + e.Notoriety*5
	e.Charisma = e.Allure*8 + e.Notoriety*3
	e.Overall = e.Power + e.Charisma
	return e
}

// Catalog is the default Index implementation backed by a flat JSON file.
type Catalog struct {
	entities map[string]Entity
	byRegion map[string][]Entity
}

// NewEmptyCatalog returns a catalog that scores everything as zero influence.
// Used when the data source is absent (degraded, not fatal).
func NewEmptyCatalog() *Catalog {
	return &Catalog{
		entities: make(map[string]Entity),
		byRegion: make(map[string][]Entity),
	}
}

// LoadCatalog reads and scores an entity catalog from a JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw []Entity
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := NewEmptyCatalog()
	for _, e := range raw {
		scored := ScoreEntity(e)
		c.entities[scored.ID] = scored
		c.byRegion[scored.RegionID] = append(c.byRegion[scored.RegionID], scored)
	}
	return c, nil
}

// AggregateZoneInfluence sums the scored entities of one region.
func (c *Catalog) AggregateZoneInfluence(regionID string) ZoneInfluence {
	entities := c.byRegion[regionID]

	agg := ZoneInfluence{EntityCount: len(entities)}
	for _, e := range entities {
		agg.TotalPower += e.Power
		agg.TotalCharisma += e.Charisma
		agg.TotalInfluence += e.Overall
	}

	ranked := make([]Entity, len(entities))
	copy(ranked, entities)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Overall > ranked[j].Overall })
	for i, e := range ranked {
		if i >= 3 {
			break
		}
		agg.TopEntities = append(agg.TopEntities, e.ID)
	}
	return agg
}

// EntityCharisma returns the charisma of a single entity, zero if unknown.
func (c *Catalog) EntityCharisma(entityID string) float64 {
	return c.entities[entityID].Charisma
}
