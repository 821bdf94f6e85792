package engine

import (
	"time"

	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/domain/rules"
	"github.com/sablehall/vesper/server/internal/events"
	"github.com/sablehall/vesper/server/internal/platform/logger"
)

// BleedState is the escalation machine's phase.
type BleedState string

const (
	BleedOff      BleedState = "OFF"
	BleedActive   BleedState = "ACTIVE"
	BleedWinddown BleedState = "WINDDOWN"
)

// WinddownDuration is locked. Wind-down always lasts exactly this long in
// simulated time, regardless of the tier it started from.
const WinddownDuration = 7.5

// DegradationProfile holds the per-tier distortion magnitudes published to
// the renderers.
type DegradationProfile struct {
	Flicker          float64 `json:"flicker"`
	ColorTemperature float64 `json:"color_temperature"`
	VHSDrag          float64 `json:"vhs_drag"`
	JPEGArtifacts    float64 `json:"jpeg_artifacts"`
	ColorBanding     float64 `json:"color_banding"`
	PerspectiveDrift float64 `json:"perspective_drift"`

	TileDrift         float64 `json:"tile_drift"`
	LengthFluctuation float64 `json:"length_fluctuation"`
	GravityVariance   float64 `json:"gravity_variance"`

	SpatialDistortion bool `json:"spatial_distortion"` // tier 3 only
}

// tierProfiles are fixed per tier; index 0 is the inert profile.
var tierProfiles = [4]DegradationProfile{
	{},
	{Flicker: 0.15, ColorTemperature: 0.10, VHSDrag: 0.05, JPEGArtifacts: 0.05, ColorBanding: 0.10, PerspectiveDrift: 0.02, TileDrift: 0.05, LengthFluctuation: 0.02, GravityVariance: 0.01},
	{Flicker: 0.40, ColorTemperature: 0.25, VHSDrag: 0.20, JPEGArtifacts: 0.20, ColorBanding: 0.30, PerspectiveDrift: 0.10, TileDrift: 0.15, LengthFluctuation: 0.08, GravityVariance: 0.05},
	{Flicker: 0.80, ColorTemperature: 0.50, VHSDrag: 0.50, JPEGArtifacts: 0.55, ColorBanding: 0.60, PerspectiveDrift: 0.30, TileDrift: 0.40, LengthFluctuation: 0.25, GravityVariance: 0.15, SpatialDistortion: true},
}

// EscalationPayload is the immutable record attached to every transition.
type EscalationPayload struct {
	Transition    string             `json:"transition"`
	Tier          int                `json:"tier"`
	OriginRegion  string             `json:"origin_region"`
	PressureLevel float64            `json:"pressure_level"`
	Turbulence    map[string]float64 `json:"turbulence"`
}

// Bleed is the tiered, hysteretic escalation state machine driven by
// pressure threshold crossings.
type Bleed struct {
	state             BleedState
	tier              int
	origin            string
	winddownRemaining float64

	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewBleed creates the machine in the OFF state.
func NewBleed(eventLog *events.EventLog, log *logger.Logger) *Bleed {
	return &Bleed{
		state:    BleedOff,
		eventLog: eventLog,
		logger:   log,
	}
}

// State returns the current phase.
func (b *Bleed) State() BleedState { return b.state }

// Tier returns the active tier (retained through wind-down).
func (b *Bleed) Tier() int { return b.tier }

// Origin returns the region the current escalation started in.
func (b *Bleed) Origin() string { return b.origin }

// Update advances the machine by dt simulated seconds at the given level.
func (b *Bleed) Update(now, dt, level float64, regions map[string]*region.Microstate) {
	target := rules.TargetTier(level)

	switch b.state {
	case BleedOff:
		if target > 0 {
			b.state = BleedActive
			b.tier = target
			b.origin = hottestRegion(regions)
			b.logger.Warn("BLEED START: tier %d, origin %s", b.tier, b.origin)
			b.emit(events.EventTypeBleedStart, now, level, regions)
		}

	case BleedActive:
		if target == 0 {
			b.state = BleedWinddown
			b.winddownRemaining = WinddownDuration
			b.logger.Info("BLEED WINDDOWN: %.1fs from tier %d", WinddownDuration, b.tier)
			b.emit(events.EventTypeBleedWinddown, now, level, regions)
		} else if target != b.tier {
			b.tier = target
			b.emit(events.EventTypeBleedTier, now, level, regions)
		}

	case BleedWinddown:
		b.winddownRemaining -= dt
		if target > 0 {
			// Pressure rose again before expiry: resume without touching
			// the timer semantics (a fresh wind-down starts from scratch).
			b.state = BleedActive
			b.tier = target
			b.winddownRemaining = 0
			b.emit(events.EventTypeBleedTier, now, level, regions)
		} else if b.winddownRemaining <= 0 {
			b.state = BleedOff
			b.winddownRemaining = 0
			b.emit(events.EventTypeBleedOff, now, level, regions)
			b.tier = 0
			b.origin = ""
		}
	}
}

// Profile returns the degradation intensities for the current phase.
// During wind-down the active tier's profile is linearly scaled by the
// remaining fraction of the locked duration.
func (b *Bleed) Profile() DegradationProfile {
	switch b.state {
	case BleedActive:
		return tierProfiles[b.tier]
	case BleedWinddown:
		frac := b.winddownRemaining / WinddownDuration
		if frac < 0 {
			frac = 0
		}
		return scaleProfile(tierProfiles[b.tier], frac)
	default:
		return DegradationProfile{}
	}
}

func scaleProfile(p DegradationProfile, frac float64) DegradationProfile {
	p.Flicker *= frac
	p.ColorTemperature *= frac
	p.VHSDrag *= frac
	p.JPEGArtifacts *= frac
	p.ColorBanding *= frac
	p.PerspectiveDrift *= frac
	p.TileDrift *= frac
	p.LengthFluctuation *= frac
	p.GravityVariance *= frac
	return p
}

func (b *Bleed) emit(t events.EventType, now, level float64, regions map[string]*region.Microstate) {
	turb := make(map[string]float64, len(regions))
	for id, reg := range regions {
		turb[id] = reg.Turbulence
	}

	b.eventLog.Append(events.Event{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		SimTime:   now,
		Type:      t,
		ActorID:   "SYSTEM_BLEED",
		RegionID:  b.origin,
		Payload: EscalationPayload{
			Transition:    string(t),
			Tier:          b.tier,
			OriginRegion:  b.origin,
			PressureLevel: level,
			Turbulence:    turb,
		},
	})
}
