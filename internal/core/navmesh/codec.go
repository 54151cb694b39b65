package navmesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeusync/navwalk/internal/core/systems/physics"
	"gopkg.in/yaml.v3"
)

// Document is the YAML navmesh asset layout.
type Document struct {
	Name      string       `yaml:"name"`
	Offset    [3]float64   `yaml:"offset,omitempty"`
	Vertices  [][3]float64 `yaml:"vertices"`
	Triangles [][3]int     `yaml:"triangles"`
}

// DecodeYAML reads a Document and builds its mesh.
func DecodeYAML(r io.Reader) (*Mesh, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode navmesh yaml: %w", err)
	}
	off := physics.Vec3(doc.Offset[0], doc.Offset[1], doc.Offset[2])
	verts := make([]physics.Vector3, len(doc.Vertices))
	for i, v := range doc.Vertices {
		verts[i] = physics.Vec3(v[0], v[1], v[2]).Add(off)
	}
	return NewMesh(verts, doc.Triangles)
}

// DecodeOBJ reads the vertex and face records of a Wavefront OBJ file.
// Polygons are fanned into triangles; normals, texture coordinates and
// groups are ignored.
func DecodeOBJ(r io.Reader) (*Mesh, error) {
	var (
		verts []physics.Vector3
		faces [][3]int
	)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: vertex needs 3 coordinates", line)
			}
			var c [3]float64
			for i := range c {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				c[i] = f
			}
			verts = append(verts, physics.Vec3(c[0], c[1], c[2]))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs 3 vertices", line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := objIndex(ref, len(verts))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				idx = append(idx, i)
			}
			for k := 1; k+1 < len(idx); k++ {
				faces = append(faces, [3]int{idx[0], idx[k], idx[k+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	return NewMesh(verts, faces)
}

// objIndex resolves "7", "7/2/3" or a negative relative reference to a
// zero-based vertex index.
func objIndex(ref string, count int) (int, error) {
	if slash := strings.IndexByte(ref, '/'); slash >= 0 {
		ref = ref[:slash]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0:
		return n - 1, nil
	case n < 0:
		return count + n, nil
	default:
		return 0, fmt.Errorf("vertex reference 0: %w", ErrInvalidIndex)
	}
}

// Decode picks a decoder from the file name. A trailing ".zst" means the
// payload is zstd-compressed.
func Decode(name string, r io.Reader) (*Mesh, error) {
	if strings.EqualFold(filepath.Ext(name), ".zst") {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer zr.Close()
		return Decode(strings.TrimSuffix(name, filepath.Ext(name)), zr)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return DecodeYAML(r)
	case ".obj":
		return DecodeOBJ(r)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
}

// ReadFile opens and decodes a navmesh asset from disk.
func ReadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(filepath.Base(path), f)
}
