package engine

import (
	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/domain/rules"
	"github.com/sablehall/vesper/server/internal/events"
)

// History bounds applied on save.
const (
	discoveryHistoryMax     = 100
	contradictionHistoryMax = 50
)

// Snapshot is the flat persisted form of a session. Unknown fields in a
// stored snapshot are ignored on load; absent fields default to a fresh
// session value.
type Snapshot struct {
	Version               int                            `json:"version"`
	Level                 float64                        `json:"level"`
	Mood                  rules.Mood                     `json:"mood"`
	BleedThresholdReached bool                           `json:"bleed_threshold_reached"`
	PlaytimeSeconds       float64                        `json:"playtime_seconds"`
	SessionCount          int                            `json:"session_count"`
	Discoveries           []events.Event                 `json:"discoveries,omitempty"`
	Contradictions        []events.Event                 `json:"contradictions,omitempty"`
	Regions               map[string]*region.Microstate  `json:"regions,omitempty"`
}

// Snapshot captures the flat persisted state. Region microstates are only
// included when the level has reached the STRAINED band at save time; a calm
// venue restarts its regions fresh.
func (c *Core) Snapshot() Snapshot {
	s := Snapshot{
		Version:               1,
		Level:                 c.pressure.Level,
		Mood:                  c.pressure.Mood,
		BleedThresholdReached: c.bleedThresholdReached,
		PlaytimeSeconds:       c.playtime,
		SessionCount:          c.sessionCount,
		Discoveries:           c.eventLog.TailByType(events.EventTypeDiscovery, discoveryHistoryMax),
		Contradictions:        c.eventLog.TailByType(events.EventTypeContradiction, contradictionHistoryMax),
	}

	if c.pressure.Level >= rules.MoodStrainedThreshold {
		s.Regions = make(map[string]*region.Microstate, len(c.regions))
		for id, reg := range c.regions {
			copied := *reg
			copied.Adjacency = copyFloatMap(reg.Adjacency)
			copied.Overrides = append([]region.RoutingOverride(nil), reg.Overrides...)
			copied.Neighbors = append([]string(nil), reg.Neighbors...)
			s.Regions[id] = &copied
		}
	}

	return s
}

// Restore applies a loaded snapshot. Fields the snapshot lacks keep their
// fresh-session values; mood and tier are recomputed from the level rather
// than trusted. The session count advances.
func (c *Core) Restore(s Snapshot) {
	c.pressure.SetLevel(s.Level)
	c.bleedThresholdReached = s.BleedThresholdReached
	c.playtime = s.PlaytimeSeconds
	c.sessionCount = s.SessionCount + 1

	// Persisted regions replace registry entries by ID; regions added since
	// the save keep their fresh state, and unknown saved regions are ignored.
	for id, saved := range s.Regions {
		if _, ok := c.regions[id]; !ok {
			continue
		}
		copied := *saved
		copied.Adjacency = copyFloatMap(saved.Adjacency)
		copied.Overrides = append([]region.RoutingOverride(nil), saved.Overrides...)
		copied.Neighbors = append([]string(nil), saved.Neighbors...)
		c.regions[id] = &copied
	}
	c.router.MarkDirty()
	c.sampler.Commit(c.simTime, c.pressure.Level)
}

// SessionCount reports the number of sessions including this one.
func (c *Core) SessionCount() int { return c.sessionCount }

// Playtime reports cumulative simulated playtime in seconds.
func (c *Core) Playtime() float64 { return c.playtime }

func copyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
