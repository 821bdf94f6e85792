package engine

import (
	"testing"

	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/events"
	"github.com/sablehall/vesper/server/internal/platform/logger"
)

func testRegions() map[string]*region.Microstate {
	hall := region.NewMicrostate("hall", "hall", []string{"study"})
	study := region.NewMicrostate("study", "study", []string{"hall"})
	study.Turbulence = 6
	study.OccupantDensity = 2
	return map[string]*region.Microstate{"hall": hall, "study": study}
}

func TestBleedStartsAtThreshold(t *testing.T) {
	el := events.NewEventLog(nil)
	b := NewBleed(el, logger.NewLogger())
	regions := testRegions()

	b.Update(0, 0.25, 59.9, regions)
	if b.State() != BleedOff {
		t.Errorf("Expected OFF below 60, got %s", b.State())
	}

	b.Update(0.25, 0.25, 60, regions)
	if b.State() != BleedActive || b.Tier() != 1 {
		t.Errorf("Expected ACTIVE tier 1 at 60, got %s tier %d", b.State(), b.Tier())
	}
	if b.Origin() != "study" {
		t.Errorf("Expected the hottest region as origin, got %q", b.Origin())
	}
	if got := len(el.ByType(events.EventTypeBleedStart)); got != 1 {
		t.Errorf("Expected one BLEED_START event, got %d", got)
	}
}

func TestBleedTierChangeEmitsEvent(t *testing.T) {
	el := events.NewEventLog(nil)
	b := NewBleed(el, logger.NewLogger())
	regions := testRegions()

	b.Update(0, 0.25, 65, regions)
	b.Update(0.25, 0.25, 92, regions)

	if b.Tier() != 3 {
		t.Errorf("Expected tier 3 at level 92, got %d", b.Tier())
	}
	if got := len(el.ByType(events.EventTypeBleedTier)); got != 1 {
		t.Errorf("Expected one BLEED_TIER_CHANGE event, got %d", got)
	}
}

func TestWinddownLastsExactlySevenAndAHalfSeconds(t *testing.T) {
	el := events.NewEventLog(nil)
	b := NewBleed(el, logger.NewLogger())
	regions := testRegions()

	b.Update(0, 0.25, 80, regions)
	b.Update(0.25, 0.25, 40, regions) // drop below the tier-1 threshold
	if b.State() != BleedWinddown {
		t.Fatalf("Expected WINDDOWN after the drop, got %s", b.State())
	}
	if b.Tier() != 2 {
		t.Errorf("Expected tier retained through wind-down, got %d", b.Tier())
	}

	// 7.5 seconds in 2.5-second steps: still winding down until the last.
	now := 0.5
	b.Update(now, 2.5, 40, regions)
	b.Update(now+2.5, 2.5, 40, regions)
	if b.State() != BleedWinddown {
		t.Fatalf("Expected WINDDOWN before the locked duration elapses, got %s", b.State())
	}
	b.Update(now+5.0, 2.5, 40, regions)
	if b.State() != BleedOff {
		t.Errorf("Expected OFF after exactly 7.5 seconds, got %s", b.State())
	}
	if b.Tier() != 0 || b.Origin() != "" {
		t.Errorf("Expected tier and origin cleared, got %d %q", b.Tier(), b.Origin())
	}
	if got := len(el.ByType(events.EventTypeBleedOff)); got != 1 {
		t.Errorf("Expected one BLEED_OFF event, got %d", got)
	}
}

func TestWinddownResumesWhenPressureReturns(t *testing.T) {
	el := events.NewEventLog(nil)
	b := NewBleed(el, logger.NewLogger())
	regions := testRegions()

	b.Update(0, 0.25, 80, regions)
	b.Update(0.25, 0.25, 40, regions)
	b.Update(0.5, 2.0, 65, regions) // pressure returns mid wind-down

	if b.State() != BleedActive || b.Tier() != 1 {
		t.Errorf("Expected resume to ACTIVE tier 1, got %s tier %d", b.State(), b.Tier())
	}
}

func TestWinddownProfileScalesDown(t *testing.T) {
	el := events.NewEventLog(nil)
	b := NewBleed(el, logger.NewLogger())
	regions := testRegions()

	b.Update(0, 0.25, 80, regions)
	full := b.Profile()

	b.Update(0.25, 0.25, 40, regions)
	b.Update(0.5, 3.75, 40, regions) // halfway through wind-down
	half := b.Profile()

	if half.Flicker >= full.Flicker {
		t.Errorf("Expected wind-down flicker below active, got %.3f vs %.3f", half.Flicker, full.Flicker)
	}
	if half.Flicker != full.Flicker/2 {
		t.Errorf("Expected half the active flicker at the midpoint, got %.3f", half.Flicker)
	}
}

func TestTierThreeDistortsSpace(t *testing.T) {
	el := events.NewEventLog(nil)
	b := NewBleed(el, logger.NewLogger())
	regions := testRegions()

	b.Update(0, 0.25, 95, regions)
	if !b.Profile().SpatialDistortion {
		t.Error("Expected spatial distortion at tier 3")
	}

	b2 := NewBleed(el, logger.NewLogger())
	b2.Update(0, 0.25, 80, regions)
	if b2.Profile().SpatialDistortion {
		t.Error("Expected no spatial distortion below tier 3")
	}
}
