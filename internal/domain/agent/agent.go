// Package agent defines the core domain entities for autonomous agents.
// This package is PURE and must NOT import any infrastructure packages.
package agent

import "github.com/sablehall/vesper/server/internal/domain/rules"

// Agent represents an autonomous occupant of the venue. Power and charisma
// are structural scores supplied by the entity influence index.
type Agent struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	RegionID string  `json:"region_id"`
	Power    float64 `json:"power"`
	Charisma float64 `json:"charisma"`

	Elevated bool `json:"elevated"` // heightened behavioral state

	// Anchors keyed by invariant name, created lazily on registration.
	Anchors map[string]*AnchorState `json:"anchors"`
}

// AnchorState tracks one behavioral invariant ("never" rule) of one agent.
// Integrity is monotonically non-increasing under strain; only a narrative
// reset may restore it.
type AnchorState struct {
	Invariant         string  `json:"invariant"`
	Integrity         float64 `json:"integrity"` // 0-100
	StrainAccumulated float64 `json:"strain_accumulated"`
	BreakThreshold    float64 `json:"break_threshold"` // fixed at creation
}

// NewAgent creates an agent with no anchors registered yet.
func NewAgent(id, name, regionID string, power, charisma float64) *Agent {
	return &Agent{
		ID:       id,
		Name:     name,
		RegionID: regionID,
		Power:    power,
		Charisma: charisma,
		Anchors:  make(map[string]*AnchorState),
	}
}

// RegisterInvariants lazily creates anchor states for the named invariants.
// Existing anchors are left untouched.
func (a *Agent) RegisterInvariants(invariants ...string) {
	if a.Anchors == nil {
		a.Anchors = make(map[string]*AnchorState)
	}
	for _, inv := range invariants {
		if _, ok := a.Anchors[inv]; ok {
			continue
		}
		a.Anchors[inv] = &AnchorState{
			Invariant:      inv,
			Integrity:      100,
			BreakThreshold: rules.BreakThreshold(a.Power),
		}
	}
}

// Anchor returns the anchor state for an invariant, or nil if unregistered.
func (a *Agent) Anchor(invariant string) *AnchorState {
	return a.Anchors[invariant]
}

// ApplyStrain accumulates strain and erodes integrity. Integrity never rises
// here and never drops below zero.
func (s *AnchorState) ApplyStrain(strain, loss float64) {
	if strain > 0 {
		s.StrainAccumulated += strain
	}
	if loss > 0 {
		s.Integrity -= loss
		if s.Integrity < 0 {
			s.Integrity = 0
		}
	}
}

// Reset restores the anchor to full integrity. This is the only path by
// which integrity may increase (narrative action).
func (s *AnchorState) Reset() {
	s.Integrity = 100
	s.StrainAccumulated = 0
}
