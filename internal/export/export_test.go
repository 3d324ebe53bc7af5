package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"arborgen/internal/forest"
	"arborgen/internal/geometry"
	"arborgen/internal/turtle"
)

func sampleMesh() geometry.Mesh {
	opts := geometry.DefaultOptions()
	opts.RadialSegments = 4
	return geometry.Build(
		[]turtle.Segment{{Start: math32.Vec3(0, 0, 0), End: math32.Vec3(0, 1, 0), StartRadius: 0.1, EndRadius: 0.1}},
		[]turtle.Leaf{{Position: math32.Vec3(0, 1, 0)}},
		opts,
	)
}

func TestBinaryRoundTrip(t *testing.T) {
	mesh := sampleMesh()
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, mesh))
	assert.Equal(t, "TMSH", buf.String()[:4])
	assert.Equal(t, 4*5+4*6+4*(len(mesh.Positions)+len(mesh.Normals)+len(mesh.Indices)), buf.Len())

	got, err := ReadBinary(&buf)
	require.NoError(t, err)
	assert.Equal(t, mesh.Positions, got.Positions)
	assert.Equal(t, mesh.Normals, got.Normals)
	assert.Equal(t, mesh.Indices, got.Indices)
	assert.Equal(t, mesh.LeafStart, got.LeafStart)
	assert.Equal(t, mesh.Bounds, got.Bounds)
}

func TestReadBinaryRejectsGarbage(t *testing.T) {
	_, err := ReadBinary(strings.NewReader("OBJX" + strings.Repeat("\x00", 40)))
	assert.True(t, errors.Is(err, ErrBadMagic))

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sampleMesh()))
	data := buf.Bytes()
	data[4] = 9
	_, err = ReadBinary(bytes.NewReader(data))
	assert.EqualError(t, err, "unsupported TMSH version 9")

	_, err = ReadBinary(bytes.NewReader(data[:10]))
	assert.Error(t, err)
}

func TestWriteOBJ(t *testing.T) {
	mesh := sampleMesh()
	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, "oak", mesh))

	out := buf.String()
	assert.Contains(t, out, "o oak\n")
	assert.Contains(t, out, "g branches\n")
	assert.Contains(t, out, "g leaves\n")
	assert.Equal(t, mesh.VertexCount(), strings.Count(out, "\nv "))
	assert.Equal(t, mesh.VertexCount(), strings.Count(out, "\nvn "))
	assert.Equal(t, mesh.TriangleCount(), strings.Count(out, "\nf "))
	assert.Contains(t, out, "f 1//1 2//2 5//5\n")
}

func sampleLayout() forest.Layout {
	return forest.Layout{
		Bounds:        forest.Rect(10, 10),
		TargetDensity: 0.02,
		MinSpacing:    1,
		Seed:          5,
		Requested:     2,
		Placements: []forest.Placement{
			{ID: 0, Species: "oak", Position: math32.Vec3(1, 0.5, 2), Yaw: 1, Scale: math32.Vec3(1.1, 1.1, 1.1), TreeSeed: 77},
			{ID: 1, Species: "pine", Position: math32.Vec3(6, 0, 7), Scale: math32.Vec3(0.9, 0.9, 0.9), TreeSeed: 78},
		},
	}
}

func TestWriteLayoutJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLayout(&buf, "json", NewLayoutDoc("f-1", sampleLayout())))

	var doc LayoutDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "f-1", doc.ID)
	assert.Equal(t, 2, doc.Placed)
	assert.Equal(t, map[string]int{"oak": 1, "pine": 1}, doc.Counts)
	assert.Equal(t, [3]float32{1, 0.5, 2}, doc.Placements[0].Position)
	assert.InDelta(t, 1.1, doc.Placements[0].Scale, 1e-6)
	assert.Equal(t, 10.0, doc.Bounds.MaxX)
}

func TestWriteLayoutYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLayout(&buf, "yaml", NewLayoutDoc("", sampleLayout())))
	assert.Contains(t, buf.String(), "species: pine")
	assert.Contains(t, buf.String(), "position: [1, 0.5, 2]")

	var doc LayoutDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, int64(78), doc.Placements[1].TreeSeed)
}

func TestWriteLayoutUnknownFormat(t *testing.T) {
	err := WriteLayout(&bytes.Buffer{}, "xml", LayoutDoc{})
	assert.EqualError(t, err, `unknown layout format "xml"`)
}
