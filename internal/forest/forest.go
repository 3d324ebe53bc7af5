// Package forest scatters species instances over a rectangular area with a
// minimum spacing between trunks.
package forest

import (
	"fmt"
	"math"

	"cogentcore.org/core/math32"

	"arborgen/internal/domain"
	"arborgen/internal/rng"
)

const (
	// DefaultCandidateRounds is the number of jittered-grid passes.
	DefaultCandidateRounds = 4
	// MaxCandidates bounds the candidate list of a single request.
	MaxCandidates = 1 << 24
)

// HeightFunc returns ground height and slope in degrees at (x, z).
type HeightFunc func(x, z float64) (y, slope float64)

// Bounds is an axis-aligned rectangle on the ground plane.
type Bounds struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinZ float64 `json:"min_z" yaml:"min_z"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxZ float64 `json:"max_z" yaml:"max_z"`
}

// Rect returns bounds of width by depth anchored at the origin.
func Rect(width, depth float64) Bounds {
	return Bounds{MaxX: width, MaxZ: depth}
}

func (b Bounds) Width() float64 { return b.MaxX - b.MinX }
func (b Bounds) Depth() float64 { return b.MaxZ - b.MinZ }
func (b Bounds) Area() float64  { return b.Width() * b.Depth() }

// Contains reports whether (x, z) lies inside the half-open rectangle.
func (b Bounds) Contains(x, z float64) bool {
	return x >= b.MinX && x < b.MaxX && z >= b.MinZ && z < b.MaxZ
}

// Share is one species' portion of the mix.
type Share struct {
	Species  string
	Weight   float64
	ScaleMin float64
	ScaleMax float64
}

// Request describes one composition.
type Request struct {
	Bounds          Bounds
	TargetDensity   float64
	MinSpacing      float64
	Mix             []Share
	Seed            int64
	MaxSlope        float64 // degrees, 0 disables the check
	CandidateRounds int     // 0 means DefaultCandidateRounds
	Variants        int     // >0 limits each species to that many distinct tree seeds
	Height          HeightFunc
}

// Validate rejects requests that cannot be composed.
func (r Request) Validate() error {
	if r.Bounds.Width() <= 0 || r.Bounds.Depth() <= 0 {
		return domain.Invalid("bounds", "must have positive area")
	}
	if r.MinSpacing <= 0 {
		return domain.Invalid("min_spacing", "must be positive")
	}
	if r.TargetDensity < 0 {
		return domain.Invalid("target_density", "cannot be negative")
	}
	if r.MaxSlope < 0 {
		return domain.Invalid("max_slope", "cannot be negative")
	}
	if r.CandidateRounds < 0 || r.CandidateRounds > 64 {
		return domain.Invalid("candidate_rounds", "must be within [0,64]")
	}
	if r.Variants < 0 {
		return domain.Invalid("variants", "cannot be negative")
	}
	if len(r.Mix) == 0 {
		return domain.Invalid("mix", "must name at least one species")
	}
	total := 0.0
	for i, s := range r.Mix {
		if s.Species == "" {
			return domain.Invalid(fmt.Sprintf("mix[%d].species", i), "must be set")
		}
		if s.Weight < 0 {
			return domain.Invalid(fmt.Sprintf("mix[%d].weight", i), "cannot be negative")
		}
		if s.ScaleMin <= 0 || s.ScaleMax < s.ScaleMin {
			return domain.Invalid(fmt.Sprintf("mix[%d].scale", i), "must satisfy 0 < min <= max")
		}
		total += s.Weight
	}
	if total <= 0 {
		return domain.Invalid("mix", "weights must sum to a positive value")
	}
	if cells := r.candidateCells(); cells*r.rounds() > MaxCandidates {
		return domain.Invalid("bounds", fmt.Sprintf("too large for min_spacing %.3g", r.MinSpacing))
	}
	return nil
}

func (r Request) rounds() int {
	if r.CandidateRounds == 0 {
		return DefaultCandidateRounds
	}
	return r.CandidateRounds
}

func (r Request) cellSize() float64 {
	return r.MinSpacing / math.Sqrt2
}

func (r Request) candidateCells() int {
	cell := r.cellSize()
	cols := math.Ceil(r.Bounds.Width() / cell)
	rows := math.Ceil(r.Bounds.Depth() / cell)
	if cols*rows > MaxCandidates {
		return MaxCandidates + 1
	}
	return int(cols * rows)
}

// Target is the number of trees the request asks for.
func (r Request) Target() int {
	return int(math.Round(r.Bounds.Area() * r.TargetDensity))
}

// Placement is one tree instance.
type Placement struct {
	ID       int
	Species  string
	Position math32.Vector3
	Yaw      float32 // radians about +Y
	Rotation math32.Quat
	Scale    math32.Vector3
	TreeSeed int64
}

// Stats counts how candidates were consumed.
type Stats struct {
	Candidates      int `json:"candidates" yaml:"candidates"`
	Examined        int `json:"examined" yaml:"examined"`
	RejectedSpacing int `json:"rejected_spacing" yaml:"rejected_spacing"`
	RejectedSlope   int `json:"rejected_slope" yaml:"rejected_slope"`
}

// Layout is the composed forest.
type Layout struct {
	Placements    []Placement
	Bounds        Bounds
	TargetDensity float64
	MinSpacing    float64
	Seed          int64
	Requested     int
	Stats         Stats
}

// Density returns placed trees per unit area.
func (l Layout) Density() float64 {
	area := l.Bounds.Area()
	if area <= 0 {
		return 0
	}
	return float64(len(l.Placements)) / area
}

// Counts returns the number of placements per species.
func (l Layout) Counts() map[string]int {
	out := make(map[string]int)
	for _, p := range l.Placements {
		out[p.Species]++
	}
	return out
}

// TreeAt returns the placement nearest to (x, z) on the ground plane that is
// strictly closer than radius.
func (l Layout) TreeAt(x, z, radius float64) (Placement, bool) {
	best := -1
	bestDist := radius * radius
	for i, p := range l.Placements {
		dx := float64(p.Position.X) - x
		dz := float64(p.Position.Z) - z
		if d := dx*dx + dz*dz; d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Placement{}, false
	}
	return l.Placements[best], true
}

// DensityUnmetError accompanies a layout that holds fewer trees than were
// requested. The layout is still usable.
type DensityUnmetError struct {
	Requested int
	Placed    int
}

func (e *DensityUnmetError) Error() string {
	return fmt.Sprintf("placed %d of %d requested trees", e.Placed, e.Requested)
}

func (e *DensityUnmetError) Unwrap() error {
	return domain.ErrDensityUnmet
}

type candidate struct {
	x, z float64
}

// Compose places trees for req. When the target count is not reached the
// partial layout is returned together with a *DensityUnmetError. Identical
// requests produce identical layouts.
func Compose(req Request) (Layout, error) {
	if err := req.Validate(); err != nil {
		return Layout{}, err
	}
	height := req.Height
	if height == nil {
		height = func(float64, float64) (float64, float64) { return 0, 0 }
	}

	layout := Layout{
		Bounds:        req.Bounds,
		TargetDensity: req.TargetDensity,
		MinSpacing:    req.MinSpacing,
		Seed:          req.Seed,
		Requested:     req.Target(),
	}
	if layout.Requested == 0 {
		return layout, nil
	}

	r := rng.New(req.Seed)
	candidates := jitteredGrid(req, r)
	r.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	layout.Stats.Candidates = len(candidates)

	weights := make([]float64, len(req.Mix))
	for i, s := range req.Mix {
		weights[i] = s.Weight
	}

	grid := newSpatialGrid(req.MinSpacing, layout.Requested)
	layout.Placements = make([]Placement, 0, layout.Requested)
	for _, c := range candidates {
		if grid.len() >= layout.Requested {
			break
		}
		layout.Stats.Examined++
		if !grid.fits(c.x, c.z) {
			layout.Stats.RejectedSpacing++
			continue
		}
		y, slope := height(c.x, c.z)
		if req.MaxSlope > 0 && slope > req.MaxSlope {
			layout.Stats.RejectedSlope++
			continue
		}
		grid.insert(c.x, c.z)

		idx := r.Weighted(weights)
		share := req.Mix[idx]
		yaw := float32(r.Range(0, 2*math.Pi))
		scale := float32(r.Range(share.ScaleMin, share.ScaleMax))
		var treeSeed int64
		if req.Variants > 0 {
			treeSeed = rng.Mix(req.Seed, int64(idx), int64(r.Intn(req.Variants)))
		} else {
			treeSeed = r.Int63()
		}

		layout.Placements = append(layout.Placements, Placement{
			ID:       len(layout.Placements),
			Species:  share.Species,
			Position: math32.Vec3(float32(c.x), float32(y), float32(c.z)),
			Yaw:      yaw,
			Rotation: math32.NewQuatAxisAngle(math32.Vec3(0, 1, 0), yaw),
			Scale:    math32.Vec3(scale, scale, scale),
			TreeSeed: treeSeed,
		})
	}

	if len(layout.Placements) < layout.Requested {
		return layout, &DensityUnmetError{Requested: layout.Requested, Placed: len(layout.Placements)}
	}
	return layout, nil
}

// jitteredGrid returns one point per cell per round, each uniformly placed
// inside its cell and clipped to the bounds.
func jitteredGrid(req Request, r *rng.Source) []candidate {
	cell := req.cellSize()
	cols := int(math.Ceil(req.Bounds.Width() / cell))
	rows := int(math.Ceil(req.Bounds.Depth() / cell))
	rounds := req.rounds()

	out := make([]candidate, 0, cols*rows*rounds)
	for round := 0; round < rounds; round++ {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				// Placements store float32, so the spacing and bounds tests
				// run on the rounded position.
				x := float64(float32(req.Bounds.MinX + (float64(col)+r.Float64())*cell))
				z := float64(float32(req.Bounds.MinZ + (float64(row)+r.Float64())*cell))
				if !req.Bounds.Contains(x, z) {
					continue
				}
				out = append(out, candidate{x, z})
			}
		}
	}
	return out
}
