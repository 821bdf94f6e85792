package engine

import (
	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/domain/rules"
)

// RenderHintsVersion tags the snapshot format for forward compatibility.
const RenderHintsVersion = 1

// SwarmHints steers the ambient population visualization.
type SwarmHints struct {
	ColorUniformity  float64 `json:"color_uniformity"`
	ClusterTendency  float64 `json:"cluster_tendency"`
	SpeedMultiplier  float64 `json:"speed_multiplier"`
	FreezeChance     float64 `json:"freeze_chance"`
	ScatterThreshold float64 `json:"scatter_threshold"`
	StareIntensity   float64 `json:"stare_intensity"`
}

// EnvironmentHints drives visual/audio degradation in the renderers.
type EnvironmentHints struct {
	Flicker           float64 `json:"flicker"`
	ColorTemperature  float64 `json:"color_temperature"`
	VHSDrag           float64 `json:"vhs_drag"`
	JPEGArtifacts     float64 `json:"jpeg_artifacts"`
	ColorBanding      float64 `json:"color_banding"`
	PerspectiveDrift  float64 `json:"perspective_drift"`
	SpatialDistortion bool    `json:"spatial_distortion"`
}

// PhysicsHints distorts spatial rules. All zero below the STRAINED mood.
type PhysicsHints struct {
	TileDrift         float64 `json:"tile_drift"`
	LengthFluctuation float64 `json:"length_fluctuation"`
	GravityVariance   float64 `json:"gravity_variance"`
}

// NPCModifiers tunes agent behavior downstream.
type NPCModifiers struct {
	DialogueTension    float64 `json:"dialogue_tension"`
	PatrolDeviation    float64 `json:"patrol_deviation"`
	ReactionSpeed      float64 `json:"reaction_speed"`
	ContradictionReady bool    `json:"contradiction_ready"`
}

// RegionSnapshot is the published view of one region's microstate.
type RegionSnapshot struct {
	ID                 string             `json:"id"`
	Turbulence         float64            `json:"turbulence"`
	Resonance          float64            `json:"resonance"`
	InfluenceAggregate float64            `json:"influence_aggregate"`
	LocalPressure      float64            `json:"local_pressure"`
	Adjacency          map[string]float64 `json:"adjacency"`
	Sensitive          bool               `json:"sensitive"`
}

// RenderHints is the immutable structured snapshot published once per tick.
// Readers only ever see committed snapshots, never partially-updated state.
type RenderHints struct {
	Version       int                       `json:"version"`
	PressureLevel float64                   `json:"pressure_level"`
	Mood          rules.Mood                `json:"mood"`
	Trend         rules.Trend               `json:"trend"`
	BleedTier     int                       `json:"bleed_tier"`
	BleedReady    bool                      `json:"bleed_ready"`
	Swarm         SwarmHints                `json:"swarm_hints"`
	Environment   EnvironmentHints          `json:"environment_hints"`
	Physics       PhysicsHints              `json:"physics_hints"`
	NPC           NPCModifiers              `json:"npc_modifiers"`
	Regions       map[string]RegionSnapshot `json:"regions"`
}

// buildHints assembles the published snapshot from committed state.
func (c *Core) buildHints() RenderHints {
	level := c.pressure.Level
	mood := c.pressure.Mood
	profile := c.bleed.Profile()

	var meanTurbulence float64
	regions := make(map[string]RegionSnapshot, len(c.regions))
	for id, reg := range c.regions {
		meanTurbulence += reg.Turbulence

		adjacency := make(map[string]float64, len(reg.Adjacency))
		for k, v := range reg.Adjacency {
			adjacency[k] = v
		}
		regions[id] = RegionSnapshot{
			ID:                 reg.ID,
			Turbulence:         reg.Turbulence,
			Resonance:          reg.Resonance,
			InfluenceAggregate: reg.InfluenceAggregate,
			LocalPressure:      reg.LocalPressure,
			Adjacency:          adjacency,
			Sensitive:          reg.Sensitive,
		}
	}
	if len(c.regions) > 0 {
		meanTurbulence /= float64(len(c.regions))
	}

	hints := RenderHints{
		Version:       RenderHintsVersion,
		PressureLevel: level,
		Mood:          mood,
		Trend:         c.pressure.Trend,
		BleedTier:     c.pressure.BleedTier,
		BleedReady:    c.pressure.BleedTier > 0,
		Swarm: SwarmHints{
			ColorUniformity:  region.ColorUniformity(meanTurbulence),
			ClusterTendency:  region.ClusterTendency(meanTurbulence),
			SpeedMultiplier:  region.SpeedMultiplier(meanTurbulence),
			FreezeChance:     freezeChance(level, mood),
			ScatterThreshold: 10.0 - meanTurbulence*0.5,
			StareIntensity:   level / 100.0,
		},
		Environment: EnvironmentHints{
			Flicker:           profile.Flicker,
			ColorTemperature:  profile.ColorTemperature,
			VHSDrag:           profile.VHSDrag,
			JPEGArtifacts:     profile.JPEGArtifacts,
			ColorBanding:      profile.ColorBanding,
			PerspectiveDrift:  profile.PerspectiveDrift,
			SpatialDistortion: profile.SpatialDistortion,
		},
		NPC: NPCModifiers{
			DialogueTension:    level / 100.0,
			PatrolDeviation:    meanTurbulence / 10.0,
			ReactionSpeed:      1.0 + level/200.0,
			ContradictionReady: c.anyAnchorCritical(),
		},
		Regions: regions,
	}

	// Physics never distorts while the venue still reads as ordinary.
	if mood == rules.MoodStrained || mood == rules.MoodCritical {
		hints.Physics = PhysicsHints{
			TileDrift:         profile.TileDrift,
			LengthFluctuation: profile.LengthFluctuation,
			GravityVariance:   profile.GravityVariance,
		}
	}

	return hints
}

func freezeChance(level float64, mood rules.Mood) float64 {
	if mood != rules.MoodStrained && mood != rules.MoodCritical {
		return 0
	}
	return level / 100.0 * 0.5
}

func (c *Core) anyAnchorCritical() bool {
	for _, a := range c.agents {
		for _, anchor := range a.Anchors {
			if anchor.Integrity < rules.AnchorBreakCutoff && c.pressure.Level >= anchor.BreakThreshold {
				return true
			}
		}
	}
	return false
}
