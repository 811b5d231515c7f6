package scenefile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
	"github.com/gekko3d/sdfblend/sdfrt/rt/encode"
)

const sampleScene = `
root:
  name: world
  blend: union
  smooth: {enabled: true, factor: 0.25}
  shapes:
    - name: ball
      sphere: {radius: 1.5}
      position: [0, 1, 0]
      color: tomato
  children:
    - name: cutter
      id: 3b241101-e2bb-4255-8caf-4136c566a962
      blend: difference
      parent_blend: intersection
      shapes:
        - box: {half_extents: [1, 0.5, 2]}
          rotation: [0, 90, 0]
          scale: [2, 2, 2]
          color: [0.2, 0.4, 1]
        - cylinder: {height: 3, radius: 0.25}
          color: "#ff000080"
`

func TestParseScene(t *testing.T) {
	root, err := Parse([]byte(sampleScene))
	require.NoError(t, err)

	assert.Equal(t, "world", root.Name)
	assert.True(t, root.SmoothBlend)
	assert.Equal(t, float32(0.25), root.SmoothFactor)
	require.Len(t, root.Shapes, 1)
	require.Len(t, root.Children, 1)

	ball := root.Shapes[0]
	assert.Equal(t, core.Sphere{Radius: 1.5}, ball.Geometry)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, ball.Transform.Position)
	assert.InDelta(t, 1.0, ball.Color[0], 1e-6)
	assert.InDelta(t, 99.0/255, ball.Color[1], 1e-6)

	cutter := root.Children[0]
	assert.Equal(t, uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962"), cutter.ID)
	assert.Equal(t, core.BlendDifference, cutter.Blend)
	assert.Equal(t, core.BlendIntersection, cutter.ParentBlend)
	require.Len(t, cutter.Shapes, 2)

	box := cutter.Shapes[0]
	assert.Equal(t, core.Box{HalfExtents: mgl32.Vec3{1, 0.5, 2}}, box.Geometry)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, box.Transform.Scale)
	assert.Equal(t, mgl32.Vec4{0.2, 0.4, 1, 1}, box.Color)
	assert.Equal(t, "root.children[0].shapes[0]", box.Name)

	cyl := cutter.Shapes[1]
	assert.Equal(t, core.Cylinder{Height: 3, Radius: 0.25}, cyl.Geometry)
	assert.InDelta(t, 128.0/255, cyl.Color[3], 1e-6)
}

func TestParsedSceneEncodes(t *testing.T) {
	root, err := Parse([]byte(sampleScene))
	require.NoError(t, err)

	containers, table, err := encode.EncodeContainers(nil, root, encode.Options{})
	require.NoError(t, err)
	shapes, err := encode.EncodeShapes(nil, root, table, encode.Options{})
	require.NoError(t, err)

	require.Len(t, containers, 2)
	require.Len(t, shapes, 3)
	assert.Equal(t, uint32(1), containers[0].SmoothBlend)
	assert.Equal(t, []uint32{0, 1, 1}, []uint32{shapes[0].OwnerIndex, shapes[1].OwnerIndex, shapes[2].OwnerIndex})
	assert.Equal(t, mgl32.Vec3{3, 0.25, 0}, shapes[2].Metadata)
}

func TestDerivedIDsAreStable(t *testing.T) {
	a, err := Parse([]byte(sampleScene))
	require.NoError(t, err)
	b, err := Parse([]byte(sampleScene))
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Shapes[0].ID, b.Shapes[0].ID)
	assert.NotEqual(t, a.ID, a.Shapes[0].ID)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no root":         "other: 1\n",
		"two geometries":  "root:\n  shapes:\n    - sphere: {radius: 1}\n      box: {half_extents: [1, 1, 1]}\n",
		"no geometry":     "root:\n  shapes:\n    - position: [0, 0, 0]\n",
		"bad blend":       "root:\n  blend: xor\n",
		"bad color name":  "root:\n  shapes:\n    - sphere: {radius: 1}\n      color: notacolor\n",
		"short color":     "root:\n  shapes:\n    - sphere: {radius: 1}\n      color: [1, 0]\n",
		"bad id":          "root:\n  id: nope\n",
		"smooth range":    "root:\n  smooth: {enabled: true, factor: 2}\n",
		"smooth nan":      "root:\n  smooth: {enabled: true, factor: .nan}\n",
		"short position":  "root:\n  shapes:\n    - sphere: {radius: 1}\n      position: [1, 2]\n",
		"malformed yaml":  "root: [\n",
		"nested bad kind": "root:\n  children:\n    - children:\n        - shapes:\n            - torus: {radius: 1}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("White")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, c)

	c, err = ParseColor("#000000")
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, c)

	_, err = ParseColor("#12")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root:\n  name: first\n"), 0644))

	var mu sync.Mutex
	var names []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(root *core.Container, err error) {
			if err != nil {
				return
			}
			mu.Lock()
			names = append(names, root.Name)
			mu.Unlock()
		})
	}()

	seen := func(name string) bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) > 0 && names[len(names)-1] == name
	}

	require.Eventually(t, func() bool { return seen("first") }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("root:\n  name: second\n"), 0644))
	require.Eventually(t, func() bool { return seen("second") }, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
