package geometry

import (
	"math"

	"cogentcore.org/core/math32"

	"arborgen/internal/turtle"
)

type ringKey struct {
	x, y, z, r int64
}

type ring struct {
	center math32.Vector3
	radius float32
	axis   math32.Vector3
	first  math32.Vector3
	base   uint32
	// u is the ring's phase reference, perpendicular to axis.
	u      math32.Vector3
	framed bool
}

type welder struct {
	tolerance float64
	keys      map[ringKey]int
	rings     []ring
}

func (w *welder) quantize(v float32) int64 {
	return int64(math.Round(float64(v) / w.tolerance))
}

// ring returns the index of the ring at center with radius, creating it on
// first use. dir is accumulated into the ring's axis.
func (w *welder) ring(center math32.Vector3, radius float32, dir math32.Vector3) int {
	key := ringKey{w.quantize(center.X), w.quantize(center.Y), w.quantize(center.Z), w.quantize(radius)}
	if idx, ok := w.keys[key]; ok {
		w.rings[idx].axis = w.rings[idx].axis.Add(dir)
		return idx
	}
	w.keys[key] = len(w.rings)
	w.rings = append(w.rings, ring{center: center, radius: radius, axis: dir, first: dir})
	return len(w.rings) - 1
}

type tube struct{ a, b int }

func (w *welder) axis(i int) math32.Vector3 {
	r := w.rings[i]
	return normalOr(r.axis, r.first)
}

// frame gives every ring a phase reference. The first ring of a chain takes
// a fixed basis and each further ring takes its neighbour's reference
// projected onto its own plane, so vertex k of one ring faces vertex k of the
// next and tubes do not twist.
func (w *welder) frame(tubes []tube) {
	for _, t := range tubes {
		a, b := &w.rings[t.a], &w.rings[t.b]
		switch {
		case !a.framed && !b.framed:
			a.u, _ = basis(w.axis(t.a))
			a.framed = true
			b.u = transport(a.u, w.axis(t.b))
			b.framed = true
		case !b.framed:
			b.u = transport(a.u, w.axis(t.b))
			b.framed = true
		case !a.framed:
			a.u = transport(b.u, w.axis(t.a))
			a.framed = true
		}
	}
	for i := range w.rings {
		if !w.rings[i].framed {
			w.rings[i].u, _ = basis(w.axis(i))
			w.rings[i].framed = true
		}
	}
}

// transport projects u onto the plane perpendicular to axis.
func transport(u, axis math32.Vector3) math32.Vector3 {
	p := u.Sub(axis.MulScalar(u.Dot(axis)))
	if p.Length() < 1e-4 {
		p, _ = basis(axis)
		return p
	}
	return p.Normal()
}

// Build tessellates segments into welded frustum tubes and leaves into quads.
// Invalid options fall back to DefaultOptions field by field.
func Build(segments []turtle.Segment, leaves []turtle.Leaf, opts Options) Mesh {
	def := DefaultOptions()
	if opts.RadialSegments < 3 {
		opts.RadialSegments = def.RadialSegments
	}
	if opts.WeldTolerance <= 0 {
		opts.WeldTolerance = def.WeldTolerance
	}
	if opts.LeafSize < 0 {
		opts.LeafSize = 0
	}
	if opts.LeafShrink < 0 {
		opts.LeafShrink = 0
	}

	w := &welder{tolerance: float64(opts.WeldTolerance), keys: make(map[ringKey]int, len(segments)+1)}
	tubes := make([]tube, 0, len(segments))
	var mesh Mesh

	for _, seg := range segments {
		delta := seg.End.Sub(seg.Start)
		length := delta.Length()
		if length < opts.WeldTolerance || seg.StartRadius <= 0 || seg.EndRadius <= 0 {
			mesh.Skipped++
			continue
		}
		dir := delta.DivScalar(length)
		a := w.ring(seg.Start, seg.StartRadius, dir)
		b := w.ring(seg.End, seg.EndRadius, dir)
		if a == b {
			mesh.Skipped++
			continue
		}
		tubes = append(tubes, tube{a, b})
	}

	w.frame(tubes)

	n := opts.RadialSegments
	vertexCount := len(w.rings)*n + len(leaves)*4
	mesh.Positions = make([]float32, 0, vertexCount*3)
	mesh.Normals = make([]float32, vertexCount*3)
	mesh.Indices = make([]uint32, 0, len(tubes)*n*6+len(leaves)*6)
	mesh.Rings = len(w.rings)

	for i := range w.rings {
		r := &w.rings[i]
		r.base = uint32(len(mesh.Positions) / 3)
		axis := w.axis(i)
		u := r.u
		v := axis.Cross(u)
		for k := 0; k < n; k++ {
			theta := 2 * math32.Pi * float32(k) / float32(n)
			offset := u.MulScalar(math32.Cos(theta)).Add(v.MulScalar(math32.Sin(theta))).MulScalar(r.radius)
			p := r.center.Add(offset)
			mesh.Positions = append(mesh.Positions, p.X, p.Y, p.Z)
		}
	}

	for _, t := range tubes {
		a, b := w.rings[t.a].base, w.rings[t.b].base
		for k := 0; k < n; k++ {
			k1 := uint32((k + 1) % n)
			ak, ak1 := a+uint32(k), a+k1
			bk, bk1 := b+uint32(k), b+k1
			mesh.Indices = append(mesh.Indices, ak, ak1, bk, ak1, bk1, bk)
		}
	}

	accumulateNormals(&mesh)
	for i := range w.rings {
		r := w.rings[i]
		for k := 0; k < n; k++ {
			idx := int(r.base) + k
			if mesh.Normal(idx) == (math32.Vector3{}) {
				putVec(mesh.Normals, idx, normalOr(mesh.Vertex(idx).Sub(r.center), math32.Vec3(0, 1, 0)))
			}
		}
	}

	mesh.LeafStart = len(mesh.Indices)
	if opts.LeafSize > 0 {
		for _, leaf := range leaves {
			appendLeaf(&mesh, leaf, opts.leafSize(leaf.Depth))
		}
	} else {
		mesh.Normals = mesh.Normals[:len(mesh.Positions)]
	}

	mesh.Bounds.SetEmpty()
	for i := 0; i < mesh.VertexCount(); i++ {
		mesh.Bounds.ExpandByPoint(mesh.Vertex(i))
	}
	if mesh.VertexCount() == 0 {
		mesh.Bounds = math32.Box3{}
	}
	return mesh
}

// basis returns two unit vectors perpendicular to axis with v = axis x u.
func basis(axis math32.Vector3) (math32.Vector3, math32.Vector3) {
	helper := math32.Vec3(1, 0, 0)
	if math32.Abs(axis.X) > 0.9 {
		helper = math32.Vec3(0, 0, 1)
	}
	u := helper.Sub(axis.MulScalar(helper.Dot(axis))).Normal()
	return u, axis.Cross(u)
}

// accumulateNormals sums unnormalised face normals, whose length is twice
// the triangle area, into each corner and normalises the result.
func accumulateNormals(m *Mesh) {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := int(m.Indices[i]), int(m.Indices[i+1]), int(m.Indices[i+2])
		a, b, c := m.Vertex(ia), m.Vertex(ib), m.Vertex(ic)
		face := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range []int{ia, ib, ic} {
			putVec(m.Normals, idx, m.Normal(idx).Add(face))
		}
	}
	for i := 0; i < m.VertexCount(); i++ {
		n := m.Normal(i)
		if l := n.Length(); l > 0 {
			putVec(m.Normals, i, n.DivScalar(l))
		}
	}
}

// appendLeaf adds a quad that grows from the anchor along the leaf heading.
func appendLeaf(m *Mesh, leaf turtle.Leaf, size float32) {
	o := leaf.Orientation
	if o == (math32.Quat{}) {
		o = math32.NewQuat(0, 0, 0, 1)
	}
	right := math32.Vec3(1, 0, 0).MulQuat(o).MulScalar(size / 2)
	up := math32.Vec3(0, 1, 0).MulQuat(o).MulScalar(size)
	normal := normalOr(right.Cross(up), math32.Vec3(0, 0, 1))

	base := uint32(len(m.Positions) / 3)
	corners := [4]math32.Vector3{
		leaf.Position.Sub(right),
		leaf.Position.Add(right),
		leaf.Position.Add(right).Add(up),
		leaf.Position.Sub(right).Add(up),
	}
	for i, c := range corners {
		m.Positions = append(m.Positions, c.X, c.Y, c.Z)
		putVec(m.Normals, int(base)+i, normal)
	}
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}
