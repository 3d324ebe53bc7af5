// Package turtle walks an expanded L-system string in 3D and records the
// branch segments and leaf anchors it traces.
//
// The turtle's frame is a quaternion. In local space the heading is +Y, yaw
// turns about +Z and pitch turns about +X; roll turns about the heading.
// Branching state lives on an explicit value stack so that an empty pop or a
// string that ends with open branches is reported instead of truncated.
package turtle

import (
	"fmt"

	"cogentcore.org/core/math32"

	"arborgen/internal/domain"
	"arborgen/internal/rng"
)

var (
	localHeading = math32.Vec3(0, 1, 0)
	localUp      = math32.Vec3(0, 0, 1)
	localLeft    = math32.Vec3(1, 0, 0)
)

// LeafPolicy selects where leaf anchors are emitted besides explicit leaf
// symbols.
type LeafPolicy string

const (
	// LeafMarkers emits leaves only at leaf symbols.
	LeafMarkers LeafPolicy = "markers"
	// LeafTermini also emits a leaf at every branch tip at or beyond LeafDepth.
	LeafTermini LeafPolicy = "termini"
	// LeafSegments also emits a leaf after every LeafEvery-th segment at or
	// beyond LeafDepth.
	LeafSegments LeafPolicy = "segments"
)

// Config holds the per-species turtle parameters.
type Config struct {
	Step          float32
	Angle         float32 // degrees
	Radius        float32
	RadiusTaper   float32 // radius multiplier applied on every push
	SegmentTaper  float32 // radius multiplier along each segment, 0 means 1
	LengthScale   float32 // step multiplier applied on every push, 0 means 1
	Jitter        float32 // degrees, per rotation
	BranchRoll    float32 // degrees rolled about the heading on every push
	Origin        math32.Vector3
	Orientation   math32.Quat // zero value means identity
	Alphabet      Alphabet    // nil means DefaultAlphabet
	LeafPolicy    LeafPolicy
	LeafDepth     int
	LeafEvery     int
	LeafFrequency float32 // chance that a policy-derived leaf is kept
}

// DefaultConfig matches the original trunk parameters.
func DefaultConfig() Config {
	return Config{
		Step:          1,
		Angle:         25,
		Radius:        0.1,
		RadiusTaper:   0.75,
		SegmentTaper:  1,
		LengthScale:   1,
		LeafPolicy:    LeafMarkers,
		LeafFrequency: 1,
	}
}

// Validate rejects configurations that cannot produce geometry.
func (c Config) Validate() error {
	switch {
	case c.Step <= 0:
		return domain.Invalid("step", "must be positive")
	case c.Angle < 0:
		return domain.Invalid("angle", "cannot be negative")
	case c.Radius <= 0:
		return domain.Invalid("radius", "must be positive")
	case c.RadiusTaper <= 0:
		return domain.Invalid("radius_taper", "must be positive")
	case c.SegmentTaper < 0:
		return domain.Invalid("segment_taper", "cannot be negative")
	case c.LengthScale < 0:
		return domain.Invalid("length_scale", "cannot be negative")
	case c.Jitter < 0:
		return domain.Invalid("jitter", "cannot be negative")
	case c.LeafDepth < 0:
		return domain.Invalid("leaf_depth", "cannot be negative")
	case c.LeafEvery < 0:
		return domain.Invalid("leaf_every", "cannot be negative")
	case c.LeafFrequency < 0 || c.LeafFrequency > 1:
		return domain.Invalid("leaf_frequency", "must be within [0,1]")
	}
	switch c.LeafPolicy {
	case "", LeafMarkers, LeafTermini, LeafSegments:
	default:
		return domain.Invalid("leaf_policy", fmt.Sprintf("%q is not one of markers, termini, segments", c.LeafPolicy))
	}
	return nil
}

// State is the turtle's position and frame.
type State struct {
	Position    math32.Vector3
	Orientation math32.Quat
	Radius      float32
	Step        float32
	Depth       int

	drew bool
}

// Heading is the world-space direction the turtle moves in.
func (s State) Heading() math32.Vector3 {
	return localHeading.MulQuat(s.Orientation)
}

// Up is the world-space yaw axis.
func (s State) Up() math32.Vector3 {
	return localUp.MulQuat(s.Orientation)
}

// Left is the world-space pitch axis.
func (s State) Left() math32.Vector3 {
	return localLeft.MulQuat(s.Orientation)
}

func (s *State) rotate(axis math32.Vector3, degrees float32) {
	turn := math32.NewQuatAxisAngle(axis, math32.DegToRad(degrees))
	q := s.Orientation
	s.Orientation = q.Mul(turn)
	s.Orientation.Normalize()
}

// Segment is one drawn branch piece.
type Segment struct {
	Start       math32.Vector3
	End         math32.Vector3
	StartRadius float32
	EndRadius   float32
	Depth       int
}

// Length returns the distance between the endpoints.
func (s Segment) Length() float32 {
	return s.End.Sub(s.Start).Length()
}

// Leaf is an anchor for leaf geometry.
type Leaf struct {
	Position    math32.Vector3
	Orientation math32.Quat
	Depth       int
}

// Stats summarises one interpretation.
type Stats struct {
	Symbols  int
	Pushes   int
	Pops     int
	MaxDepth int
	Height   float32
}

// Result is everything the turtle traced.
type Result struct {
	Segments []Segment
	Leaves   []Leaf
	Stats    Stats
}

// StackError reports unbalanced branching. Index is the byte offset of the
// offending symbol, or the string length when branches were left open.
type StackError struct {
	Index int
	Depth int
	Pop   bool
}

func (e *StackError) Error() string {
	if e.Pop {
		return fmt.Sprintf("pop on empty stack at symbol %d", e.Index)
	}
	return fmt.Sprintf("%d unclosed branches at end of string", e.Depth)
}

func (e *StackError) Unwrap() error {
	return domain.ErrUnbalancedStack
}

// Interpret walks symbols with cfg. seed drives angle jitter and leaf
// thinning; with zero jitter and leaf frequency 1 the output does not depend
// on it. On error the result is empty.
func Interpret(symbols string, cfg Config, seed int64) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	alphabet := cfg.Alphabet
	if alphabet == nil {
		alphabet = DefaultAlphabet()
	}
	segmentTaper := cfg.SegmentTaper
	if segmentTaper == 0 {
		segmentTaper = 1
	}
	lengthScale := cfg.LengthScale
	if lengthScale == 0 {
		lengthScale = 1
	}
	orientation := cfg.Orientation
	if orientation == (math32.Quat{}) {
		orientation = math32.NewQuat(0, 0, 0, 1)
	}

	jitter := rng.New(rng.Mix(seed, 1))
	leafRand := rng.New(rng.Mix(seed, 2))
	keepLeaf := func() bool {
		return cfg.LeafFrequency >= 1 || leafRand.Float64() < float64(cfg.LeafFrequency)
	}
	turn := func() float32 {
		return cfg.Angle + float32(jitter.Symmetric(float64(cfg.Jitter)))
	}

	state := State{
		Position:    cfg.Origin,
		Orientation: orientation,
		Radius:      cfg.Radius,
		Step:        cfg.Step,
	}
	stack := make([]State, 0, 16)
	res := Result{Segments: make([]Segment, 0, len(symbols)/4)}
	res.Stats.Height = state.Position.Y
	drawnAtDepth := 0

	emitLeaf := func() {
		res.Leaves = append(res.Leaves, Leaf{Position: state.Position, Orientation: state.Orientation, Depth: state.Depth})
	}

	for i, sym := range symbols {
		res.Stats.Symbols++
		switch alphabet[sym] {
		case CommandForward:
			end := state.Position.Add(state.Heading().MulScalar(state.Step))
			endRadius := state.Radius * segmentTaper
			res.Segments = append(res.Segments, Segment{
				Start:       state.Position,
				End:         end,
				StartRadius: state.Radius,
				EndRadius:   endRadius,
				Depth:       state.Depth,
			})
			state.Position = end
			state.Radius = endRadius
			state.drew = true
			if end.Y > res.Stats.Height {
				res.Stats.Height = end.Y
			}
			if cfg.LeafPolicy == LeafSegments && cfg.LeafEvery > 0 && state.Depth >= cfg.LeafDepth {
				drawnAtDepth++
				if drawnAtDepth%cfg.LeafEvery == 0 && keepLeaf() {
					emitLeaf()
				}
			}
		case CommandMove:
			state.Position = state.Position.Add(state.Heading().MulScalar(state.Step))
		case CommandYawLeft:
			state.rotate(localUp, turn())
		case CommandYawRight:
			state.rotate(localUp, -turn())
		case CommandPitchDown:
			state.rotate(localLeft, turn())
		case CommandPitchUp:
			state.rotate(localLeft, -turn())
		case CommandRollLeft:
			state.rotate(localHeading, turn())
		case CommandRollRight:
			state.rotate(localHeading, -turn())
		case CommandTurnAround:
			state.rotate(localUp, 180)
		case CommandPush:
			stack = append(stack, state)
			res.Stats.Pushes++
			state.Depth++
			state.Radius *= cfg.RadiusTaper
			state.Step *= lengthScale
			state.drew = false
			if cfg.BranchRoll != 0 {
				state.rotate(localHeading, cfg.BranchRoll)
			}
			if state.Depth > res.Stats.MaxDepth {
				res.Stats.MaxDepth = state.Depth
			}
		case CommandPop:
			if len(stack) == 0 {
				return Result{}, &StackError{Index: i, Pop: true}
			}
			if cfg.LeafPolicy == LeafTermini && state.drew && state.Depth >= cfg.LeafDepth && keepLeaf() {
				emitLeaf()
			}
			state = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			res.Stats.Pops++
		case CommandLeaf:
			emitLeaf()
		}
	}

	if len(stack) != 0 {
		return Result{}, &StackError{Index: len(symbols), Depth: len(stack)}
	}
	if cfg.LeafPolicy == LeafTermini && state.drew && state.Depth >= cfg.LeafDepth && keepLeaf() {
		emitLeaf()
	}
	return res, nil
}
