// Package geometry turns turtle output into indexed triangle meshes.
package geometry

import (
	"fmt"

	"cogentcore.org/core/math32"

	"arborgen/internal/domain"
)

// Options control tessellation.
type Options struct {
	RadialSegments int     `json:"radial_segments" yaml:"radial_segments"`
	WeldTolerance  float32 `json:"weld_tolerance" yaml:"weld_tolerance"`
	LeafSize       float32 `json:"leaf_size" yaml:"leaf_size"`
	// LeafShrink is subtracted from LeafSize per branch depth. Leaves never
	// shrink below a quarter of LeafSize.
	LeafShrink     float32 `json:"leaf_shrink" yaml:"leaf_shrink"`
}

// DefaultOptions returns an eight-sided tube with 0.3 unit leaves.
func DefaultOptions() Options {
	return Options{
		RadialSegments: 8,
		WeldTolerance:  1e-4,
		LeafSize:       0.3,
	}
}

// Validate reports options Build would have to correct.
func (o Options) Validate() error {
	if o.RadialSegments < 3 {
		return domain.Invalid("radial_segments", "must be >= 3")
	}
	if o.RadialSegments > 64 {
		return domain.Invalid("radial_segments", "must be <= 64")
	}
	if o.WeldTolerance <= 0 {
		return domain.Invalid("weld_tolerance", "must be positive")
	}
	if o.LeafSize < 0 {
		return domain.Invalid("leaf_size", "cannot be negative")
	}
	if o.LeafShrink < 0 {
		return domain.Invalid("leaf_shrink", "cannot be negative")
	}
	return nil
}

// leafSize returns the quad size for a leaf at depth.
func (o Options) leafSize(depth int) float32 {
	size := o.LeafSize - o.LeafShrink*float32(depth)
	if floor := o.LeafSize / 4; size < floor {
		size = floor
	}
	return size
}

// Mesh is an indexed triangle list. Positions and Normals hold xyz triples;
// triangles from LeafStart onward in Indices belong to leaf quads.
type Mesh struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
	Bounds    math32.Box3
	LeafStart int
	Rings     int
	Skipped   int
}

// VertexCount returns the number of vertices.
func (m Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// LeafTriangles returns the number of triangles belonging to leaves.
func (m Mesh) LeafTriangles() int {
	return (len(m.Indices) - m.LeafStart) / 3
}

// Empty reports whether the mesh has no triangles.
func (m Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// Vertex returns position i.
func (m Mesh) Vertex(i int) math32.Vector3 {
	return math32.Vec3(m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2])
}

// Normal returns normal i.
func (m Mesh) Normal(i int) math32.Vector3 {
	return math32.Vec3(m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2])
}

func (m Mesh) String() string {
	return fmt.Sprintf("mesh(%d vertices, %d triangles, %d leaf)", m.VertexCount(), m.TriangleCount(), m.LeafTriangles())
}

// Transformed returns a copy of m scaled, rotated, then translated. Leaf
// triangles keep their relative position in Indices.
func (m Mesh) Transformed(offset math32.Vector3, rotation math32.Quat, scale math32.Vector3) Mesh {
	out := Mesh{
		Positions: make([]float32, len(m.Positions)),
		Normals:   make([]float32, len(m.Normals)),
		Indices:   append([]uint32(nil), m.Indices...),
		LeafStart: m.LeafStart,
		Rings:     m.Rings,
		Skipped:   m.Skipped,
	}
	if rotation == (math32.Quat{}) {
		rotation = math32.NewQuat(0, 0, 0, 1)
	}
	out.Bounds.SetEmpty()
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Vertex(i).Mul(scale).MulQuat(rotation).Add(offset)
		putVec(out.Positions, i, p)
		out.Bounds.ExpandByPoint(p)

		// Normals transform with the inverse scale.
		n := m.Normal(i)
		n = math32.Vec3(safeDiv(n.X, scale.X), safeDiv(n.Y, scale.Y), safeDiv(n.Z, scale.Z)).MulQuat(rotation)
		putVec(out.Normals, i, normalOr(n, math32.Vec3(0, 1, 0)))
	}
	if out.VertexCount() == 0 {
		out.Bounds = math32.Box3{}
	}
	return out
}

// Merge concatenates meshes. Leaf triangles of the inputs are moved behind
// all branch triangles so LeafStart stays meaningful.
func Merge(meshes ...Mesh) Mesh {
	var out Mesh
	var leafIdx []uint32
	out.Bounds.SetEmpty()
	for _, m := range meshes {
		base := uint32(out.VertexCount())
		out.Positions = append(out.Positions, m.Positions...)
		out.Normals = append(out.Normals, m.Normals...)
		for i, idx := range m.Indices {
			if i < m.LeafStart {
				out.Indices = append(out.Indices, base+idx)
			} else {
				leafIdx = append(leafIdx, base+idx)
			}
		}
		if m.VertexCount() > 0 {
			out.Bounds.ExpandByBox(m.Bounds)
		}
		out.Rings += m.Rings
		out.Skipped += m.Skipped
	}
	out.LeafStart = len(out.Indices)
	out.Indices = append(out.Indices, leafIdx...)
	if out.VertexCount() == 0 {
		out.Bounds = math32.Box3{}
	}
	return out
}

func putVec(buf []float32, i int, v math32.Vector3) {
	buf[3*i] = v.X
	buf[3*i+1] = v.Y
	buf[3*i+2] = v.Z
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return a
	}
	return a / b
}

func normalOr(v, fallback math32.Vector3) math32.Vector3 {
	l := v.Length()
	if l == 0 || math32.IsNaN(l) {
		return fallback
	}
	return v.DivScalar(l)
}
