package navmesh

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/navwalk/internal/core/observability/log"
)

const plateYAML = `
name: plate
offset: [0, 1, 0]
vertices:
  - [-2, 0, -2]
  - [2, 0, -2]
  - [2, 0, 2]
  - [-2, 0, 2]
triangles:
  - [0, 3, 2]
  - [0, 2, 1]
`

const stepsOBJ = `# two steps
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
v 1 0.5 -1
v 3 0.5 -1
v 3 0.5 1
v 1 0.5 1
vn 0 1 0
f 1//1 4//1 3//1 2//1
f -4 -1 -2 -3
`

func TestDecodeYAML(t *testing.T) {
	m, err := DecodeYAML(strings.NewReader(plateYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	hit, ok := m.CastDown(0, 100, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.0, hit.Y(), 1e-9, "offset is applied")
}

func TestDecodeOBJFansPolygons(t *testing.T) {
	m, err := DecodeOBJ(strings.NewReader(stepsOBJ))
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	hit, ok := m.CastDown(0, 100, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.0, hit.Y(), 1e-9)

	hit, ok = m.CastDown(2, 100, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.5, hit.Y(), 1e-9)
}

func TestDecodeOBJErrors(t *testing.T) {
	_, err := DecodeOBJ(strings.NewReader("v 0 0\n"))
	assert.Error(t, err)

	_, err = DecodeOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 0 1\nf 1 2 9\n"))
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = DecodeOBJ(strings.NewReader("v 0 0 0\nf 0 1 1\n"))
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestDecodeByExtension(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(plateYAML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	m, err := Decode("plate.yaml.zst", &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	_, err = Decode("plate.glb", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoaderDeliversMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plateYAML), 0o644))

	l := NewLoader(log.Nop())
	d := receive(t, l.Load(context.Background(), path))

	assert.NoError(t, d.Err)
	assert.False(t, d.Fallback)
	assert.Equal(t, path, d.Source)
	require.NotNil(t, d.Mesh)
	assert.Equal(t, 2, d.Mesh.Len())
}

func TestLoaderFallsBack(t *testing.T) {
	l := NewLoader(log.Nop())

	d := receive(t, l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.obj")))
	assert.True(t, d.Fallback)
	assert.ErrorIs(t, d.Err, os.ErrNotExist)
	require.NotNil(t, d.Mesh)
	assert.Equal(t, Fallback().Fingerprint(), d.Mesh.Fingerprint())

	d = receive(t, l.Load(context.Background(), ""))
	assert.True(t, d.Fallback)
	assert.ErrorIs(t, d.Err, ErrNoAsset)
}

func TestLoaderAbandonedOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(log.Nop())
	select {
	case d, ok := <-l.Load(ctx, ""):
		assert.False(t, ok, "unexpected delivery %+v", d)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func receive(t *testing.T, ch <-chan Delivery) Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "channel closed without delivery")
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
	}
	return Delivery{}
}

func TestShippedGallery(t *testing.T) {
	m, err := ReadFile(filepath.Join("..", "..", "..", "assets", "gallery.yaml"))
	require.NoError(t, err)
	v := NewView(m, DefaultProbeHeight)

	hit, ok := v.ProbeGround(30, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.0, hit.Y(), 1e-9)

	hit, ok = v.ProbeGround(5, 0)
	require.True(t, ok)
	assert.InDelta(t, 1.5, hit.Y(), 1e-9, "halfway up the ramp")

	hit, ok = v.ProbeGround(5, 10)
	require.True(t, ok)
	assert.InDelta(t, 3.0, hit.Y(), 1e-9, "mezzanine above the floor")

	hit, ok = v.ProbeBelow(5, 1, 10)
	require.True(t, ok)
	assert.InDelta(t, 3.0, hit.Y(), 1e-9, "probe origin is lifted above the avatar")

	assert.False(t, v.IsWalkable(45, 0))
}
