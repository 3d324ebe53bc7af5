// Package export writes meshes and layouts in interchange formats.
package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"cogentcore.org/core/math32"

	"arborgen/internal/geometry"
)

// BinaryVersion is the current TMSH layout version.
const BinaryVersion uint32 = 1

var binaryMagic = [4]byte{'T', 'M', 'S', 'H'}

// ErrBadMagic is returned when a stream is not a TMSH mesh.
var ErrBadMagic = errors.New("not a TMSH mesh")

type binaryHeader struct {
	Magic     [4]byte
	Version   uint32
	Vertices  uint32
	Indices   uint32
	LeafStart uint32
	Min, Max  [3]float32
}

// WriteBinary writes m as little-endian TMSH: magic, version, vertex count,
// index count, leaf start, six bounds floats, then positions, normals and
// indices.
func WriteBinary(w io.Writer, m geometry.Mesh) error {
	bw := bufio.NewWriter(w)
	header := binaryHeader{
		Magic:     binaryMagic,
		Version:   BinaryVersion,
		Vertices:  uint32(m.VertexCount()),
		Indices:   uint32(len(m.Indices)),
		LeafStart: uint32(m.LeafStart),
		Min:       [3]float32{m.Bounds.Min.X, m.Bounds.Min.Y, m.Bounds.Min.Z},
		Max:       [3]float32{m.Bounds.Max.X, m.Bounds.Max.Y, m.Bounds.Max.Z},
	}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write mesh header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Positions); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Normals); err != nil {
		return fmt.Errorf("write normals: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Indices); err != nil {
		return fmt.Errorf("write indices: %w", err)
	}
	return bw.Flush()
}

// maxBinaryElements bounds allocations when reading untrusted streams.
const maxBinaryElements = 1 << 28

// ReadBinary parses a TMSH stream written by WriteBinary.
func ReadBinary(r io.Reader) (geometry.Mesh, error) {
	br := bufio.NewReader(r)
	var header binaryHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return geometry.Mesh{}, fmt.Errorf("read mesh header: %w", err)
	}
	if header.Magic != binaryMagic {
		return geometry.Mesh{}, ErrBadMagic
	}
	if header.Version != BinaryVersion {
		return geometry.Mesh{}, fmt.Errorf("unsupported TMSH version %d", header.Version)
	}
	if uint64(header.Vertices)*3 > maxBinaryElements || header.Indices > maxBinaryElements || header.LeafStart > header.Indices {
		return geometry.Mesh{}, fmt.Errorf("mesh header out of range: %d vertices, %d indices", header.Vertices, header.Indices)
	}

	m := geometry.Mesh{
		Positions: make([]float32, header.Vertices*3),
		Normals:   make([]float32, header.Vertices*3),
		Indices:   make([]uint32, header.Indices),
		LeafStart: int(header.LeafStart),
		Bounds: math32.Box3{
			Min: math32.Vec3(header.Min[0], header.Min[1], header.Min[2]),
			Max: math32.Vec3(header.Max[0], header.Max[1], header.Max[2]),
		},
	}
	if err := binary.Read(br, binary.LittleEndian, m.Positions); err != nil {
		return geometry.Mesh{}, fmt.Errorf("read positions: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, m.Normals); err != nil {
		return geometry.Mesh{}, fmt.Errorf("read normals: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, m.Indices); err != nil {
		return geometry.Mesh{}, fmt.Errorf("read indices: %w", err)
	}
	for _, v := range m.Positions {
		if math.IsNaN(float64(v)) {
			return geometry.Mesh{}, errors.New("mesh contains NaN positions")
		}
	}
	for _, idx := range m.Indices {
		if idx >= header.Vertices {
			return geometry.Mesh{}, fmt.Errorf("index %d out of range for %d vertices", idx, header.Vertices)
		}
	}
	return m, nil
}
