package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"arborgen/internal/geometry"
)

// WriteOBJ writes m as a Wavefront OBJ object called name, with branch and
// leaf triangles in separate groups.
func WriteOBJ(w io.Writer, name string, m geometry.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# arborgen %d vertices %d triangles\n", m.VertexCount(), m.TriangleCount())
	fmt.Fprintf(bw, "o %s\n", name)

	for i := 0; i < m.VertexCount(); i++ {
		writeTriple(bw, "v", m.Positions[3*i:3*i+3])
	}
	for i := 0; i < m.VertexCount(); i++ {
		writeTriple(bw, "vn", m.Normals[3*i:3*i+3])
	}

	writeFaces(bw, "branches", m.Indices[:m.LeafStart])
	writeFaces(bw, "leaves", m.Indices[m.LeafStart:])
	return bw.Flush()
}

func writeTriple(w *bufio.Writer, tag string, v []float32) {
	w.WriteString(tag)
	for _, c := range v {
		w.WriteByte(' ')
		w.WriteString(strconv.FormatFloat(float64(c), 'f', -1, 32))
	}
	w.WriteByte('\n')
}

func writeFaces(w *bufio.Writer, group string, indices []uint32) {
	if len(indices) == 0 {
		return
	}
	fmt.Fprintf(w, "g %s\n", group)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i]+1, indices[i+1]+1, indices[i+2]+1
		fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
}
