package engine

import (
	"math/rand"

	"github.com/sablehall/vesper/server/internal/domain/region"
	"github.com/sablehall/vesper/server/internal/platform/logger"
)

// AdjacencyFunc derives raw next-region weights for every region. The exact
// weighting is external to the core; the router only blends and normalizes.
type AdjacencyFunc func(regions map[string]*region.Microstate) map[string]map[string]float64

// Routing noise injected by an anchor break materializes as short-lived
// overrides rather than direct matrix edits, so a recompute blends rather
// than erases it.
const (
	noiseOverrideTTL      = 10
	noiseCharismaDivisor  = 5000.0
	minNoiseProbability   = 0.05
)

// AdjacencyRouter maintains the probability distribution over neighboring
// regions. It recomputes on a fixed cadence, or immediately when an override
// changes, and keeps every row summing to 1.
type AdjacencyRouter struct {
	cadence        int
	sinceRecompute int
	dirty          bool
	adjFunc        AdjacencyFunc
	logger         *logger.Logger
}

// NewAdjacencyRouter creates a router recomputing every cadence ticks.
func NewAdjacencyRouter(cadence int, fn AdjacencyFunc, log *logger.Logger) *AdjacencyRouter {
	if cadence < 1 {
		cadence = 1
	}
	if fn == nil {
		fn = DefaultAdjacency
	}
	return &AdjacencyRouter{
		cadence: cadence,
		adjFunc: fn,
		logger:  log,
		dirty:   true, // first tick computes the initial matrix
	}
}

// MarkDirty forces a recompute on the next tick.
func (r *AdjacencyRouter) MarkDirty() {
	r.dirty = true
}

// Tick decays override TTLs, purges expired ones (which dirties the matrix),
// and recomputes when due.
func (r *AdjacencyRouter) Tick(regions map[string]*region.Microstate) {
	for _, reg := range regions {
		kept := reg.Overrides[:0]
		for _, ov := range reg.Overrides {
			ov.TTL--
			if ov.TTL > 0 {
				kept = append(kept, ov)
			} else {
				// Expiry must recompute rather than leave a stale blend.
				r.dirty = true
			}
		}
		reg.Overrides = kept
	}

	r.sinceRecompute++
	if r.dirty || r.sinceRecompute >= r.cadence {
		r.recompute(regions)
		r.sinceRecompute = 0
		r.dirty = false
	}
}

// AddOverride registers a narrative routing override on its source region.
func (r *AdjacencyRouter) AddOverride(regions map[string]*region.Microstate, ov region.RoutingOverride) {
	reg, ok := regions[ov.Source]
	if !ok {
		r.logger.Warn("Routing override for unknown region %s ignored", ov.Source)
		return
	}
	reg.Overrides = append(reg.Overrides, ov)
	r.dirty = true
}

// InjectNoise seeds random short-lived overrides across the graph with
// probability proportional to the breaking agent's charisma, then forces a
// recompute.
func (r *AdjacencyRouter) InjectNoise(regions map[string]*region.Microstate, charisma float64, rng *rand.Rand) {
	chance := charisma / noiseCharismaDivisor
	if chance < minNoiseProbability {
		chance = minNoiseProbability
	}
	if chance > 0.9 {
		chance = 0.9
	}

	for _, reg := range regions {
		if len(reg.Neighbors) == 0 || rng.Float64() >= chance {
			continue
		}
		target := reg.Neighbors[rng.Intn(len(reg.Neighbors))]
		reg.Overrides = append(reg.Overrides, region.RoutingOverride{
			Source:      reg.ID,
			Target:      target,
			Probability: 0.2 + rng.Float64()*0.5,
			TTL:         noiseOverrideTTL,
			Reason:      "CONTRADICTION_NOISE",
		})
	}
	r.dirty = true
}

// recompute rebuilds every adjacency row: external weights first, then
// override replacement, then renormalization so each row sums to 1.
func (r *AdjacencyRouter) recompute(regions map[string]*region.Microstate) {
	rows := r.adjFunc(regions)

	for id, reg := range regions {
		row := rows[id]
		if len(row) == 0 {
			reg.Adjacency = map[string]float64{}
			continue
		}

		blended := make(map[string]float64, len(row))
		for target, p := range row {
			blended[target] = p
		}
		for _, ov := range reg.Overrides {
			blended[ov.Target] = ov.Probability
		}

		var sum float64
		for _, p := range blended {
			sum += p
		}
		if sum <= 0 {
			uniform := 1.0 / float64(len(blended))
			for target := range blended {
				blended[target] = uniform
			}
		} else {
			for target := range blended {
				blended[target] /= sum
			}
		}
		reg.Adjacency = blended
	}
}

// DefaultAdjacency weights each neighbor by its influence aggregate,
// resonance and turbulence. Rows are raw weights; the router normalizes.
func DefaultAdjacency(regions map[string]*region.Microstate) map[string]map[string]float64 {
	rows := make(map[string]map[string]float64, len(regions))
	for id, reg := range regions {
		row := make(map[string]float64, len(reg.Neighbors))
		for _, nid := range reg.Neighbors {
			n, ok := regions[nid]
			if !ok {
				continue
			}
			row[nid] = 1.0 + n.InfluenceAggregate*0.02 + n.Resonance*0.1 + n.Turbulence*0.05
		}
		rows[id] = row
	}
	return rows
}
