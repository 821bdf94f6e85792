// Package region defines the domain entity for a venue region's microstate.
// This package is PURE and must NOT import any infrastructure packages.
package region

// Microstate represents the local, per-area simulation state. It relaxes
// toward baseline over time; the simulation core is its only mutator.
type Microstate struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Local dynamics
	Turbulence    float64 `json:"turbulence"`     // 0-10
	Resonance     float64 `json:"resonance"`      // non-decreasing except on reset
	LocalPressure float64 `json:"local_pressure"` // pressure-equivalent, decays by half-life

	// Entity influence (from the influence index)
	InfluenceAggregate float64 `json:"influence_aggregate"` // heals toward baseline
	InfluenceBaseline  float64 `json:"influence_baseline"`
	PowerSum           float64 `json:"power_sum"`
	CharismaSum        float64 `json:"charisma_sum"`

	// Routing
	Neighbors []string           `json:"neighbors"`
	Adjacency map[string]float64 `json:"adjacency"` // rows sum to 1 when non-empty
	Overrides []RoutingOverride  `json:"overrides"`

	// Contradiction bookkeeping (simulated seconds; <0 = never)
	LastContradiction float64 `json:"last_contradiction"`

	// Configuration
	DriftRate float64 `json:"drift_rate"` // per-region volatility multiplier
	Sensitive bool    `json:"sensitive"`

	// Occupancy
	OccupantDensity float64 `json:"occupant_density"`
	LastVisit       float64 `json:"last_visit"`
}

// RoutingOverride is a short-lived replacement for one adjacency entry.
type RoutingOverride struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Probability float64 `json:"probability"`
	TTL         int     `json:"ttl"` // ticks remaining; expired entries are purged
	Reason      string  `json:"reason"`
}

// NewMicrostate creates a region at rest.
func NewMicrostate(id, name string, neighbors []string) *Microstate {
	return &Microstate{
		ID:                id,
		Name:              name,
		Neighbors:         neighbors,
		Adjacency:         make(map[string]float64),
		DriftRate:         1.0,
		LastContradiction: -1,
	}
}

// ClampTurbulence bounds turbulence to [0, 10].
func (m *Microstate) ClampTurbulence() {
	if m.Turbulence < 0 {
		m.Turbulence = 0
	}
	if m.Turbulence > 10 {
		m.Turbulence = 10
	}
}

// AddResonance accumulates resonance from a discovery. Resonance never
// decreases outside ResetResonance.
func (m *Microstate) AddResonance(amount float64) {
	if amount > 0 {
		m.Resonance += amount
	}
}

// ResetResonance clears accumulated resonance (narrative reset only).
func (m *Microstate) ResetResonance() {
	m.Resonance = 0
}

// InCooldown reports whether the region hosted a contradiction within the
// cooldown window ending at now (simulated seconds).
func (m *Microstate) InCooldown(now, cooldown float64) bool {
	if m.LastContradiction < 0 {
		return false
	}
	return now-m.LastContradiction < cooldown
}

// Swarm-facing derived fields. These are pure functions of turbulence and are
// recomputed every tick, never stored.

// ColorUniformity falls from 1 toward 0.2 as turbulence rises.
func ColorUniformity(turbulence float64) float64 {
	u := 1.0 - turbulence/10.0*0.8
	if u < 0.2 {
		u = 0.2
	}
	return u
}

// ClusterTendency rises with turbulence; agitated swarms bunch together.
func ClusterTendency(turbulence float64) float64 {
	t := 0.3 + turbulence/10.0*0.7
	if t > 1 {
		t = 1
	}
	return t
}

// SpeedMultiplier scales swarm movement from 1x up to 2.5x.
func SpeedMultiplier(turbulence float64) float64 {
	return 1.0 + turbulence/10.0*1.5
}

// AvoidanceRadius widens as turbulence rises.
func AvoidanceRadius(turbulence float64) float64 {
	return 1.0 + turbulence/10.0*3.0
}
