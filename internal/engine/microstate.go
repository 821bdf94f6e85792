package engine

import (
	"math"

	"github.com/sablehall/vesper/server/internal/domain/region"
)

// Region relaxation constants.
const (
	turbulenceRelaxRate    = 0.4  // fraction of the gap closed per second
	turbulenceInfluenceMod = 0.02 // influence aggregate -> turbulence target
	occupantTurbulence     = 0.15 // continuous increment while player present
	influenceHealHalfLife  = 20.0 // seconds for aggregate to halve toward baseline
	localPressureHalfLife  = 12.0 // seconds for local pressure to halve
)

// relaxRegions runs the per-tick microstate dynamics: turbulence drifts
// toward a pressure-derived target, influence aggregates heal toward
// baseline, and local pressure decays. A region left alone returns to rest.
func (c *Core) relaxRegions(dt float64) {
	target := c.pressure.Level / 100.0 * 10.0

	for _, reg := range c.regions {
		localTarget := target + reg.InfluenceAggregate*turbulenceInfluenceMod

		rate := turbulenceRelaxRate * reg.DriftRate * dt
		if rate > 1 {
			rate = 1
		}
		reg.Turbulence += (localTarget - reg.Turbulence) * rate

		if reg.ID == c.playerRegion {
			reg.Turbulence += occupantTurbulence * dt
			reg.LastVisit = c.simTime
		}
		reg.ClampTurbulence()

		reg.InfluenceAggregate = decayToward(reg.InfluenceAggregate, reg.InfluenceBaseline, influenceHealHalfLife, dt)
		reg.LocalPressure = decayToward(reg.LocalPressure, 0, localPressureHalfLife, dt)
	}
}

// decayToward exponentially relaxes value toward target with the given
// half-life.
func decayToward(value, target, halfLife, dt float64) float64 {
	if halfLife <= 0 {
		return target
	}
	return target + (value-target)*math.Exp2(-dt/halfLife)
}

// refreshRegionInfluence pulls fresh aggregates from the influence index and
// treats them as the healing baseline. Called at construction and on anchor
// resets; the per-tick path only heals toward these baselines.
func (c *Core) refreshRegionInfluence() {
	for _, reg := range c.regions {
		agg := c.influences.AggregateZoneInfluence(reg.ID)
		reg.PowerSum = agg.TotalPower
		reg.CharismaSum = agg.TotalCharisma
		reg.InfluenceBaseline = agg.TotalInfluence
		if reg.InfluenceAggregate == 0 {
			reg.InfluenceAggregate = agg.TotalInfluence
		}
	}
}

// rippleTurbulence spreads a contradiction's shock: full magnitude into the
// origin region, half into every other region.
func (c *Core) rippleTurbulence(originID string, magnitude float64) {
	for _, reg := range c.regions {
		if reg.ID == originID {
			reg.Turbulence += magnitude
		} else {
			reg.Turbulence += magnitude / 2
		}
		reg.ClampTurbulence()
	}
}

// hottestRegion picks the region maximizing turbulence x occupant density.
// Used as the escalation origin.
func hottestRegion(regions map[string]*region.Microstate) string {
	best := ""
	bestScore := -1.0
	for id, reg := range regions {
		density := reg.OccupantDensity
		if density <= 0 {
			density = 0.1 // empty rooms still radiate a little
		}
		score := reg.Turbulence * density
		if score > bestScore {
			best, bestScore = id, score
		}
	}
	return best
}
