package main

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/sdfblend/sdfrt/rt/app"
	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
	"github.com/gekko3d/sdfblend/sdfrt/rt/encode"
	"github.com/gekko3d/sdfblend/sdfrt/rt/gpu"
)

func TestPrintFrame(t *testing.T) {
	root := core.NewContainer("root")
	root.SetSmooth(0.5)
	s := core.NewShape("ball", core.Sphere{Radius: 2})
	s.Transform.Position = mgl32.Vec3{1, 2, 3}
	root.AddShape(s)
	child := core.NewContainer("child")
	child.Blend = core.BlendDifference
	child.AddShape(core.NewShape("box", core.Box{HalfExtents: mgl32.Vec3{1, 1, 1}}))
	root.AddChild(child)

	orch := app.NewOrchestrator(gpu.NewBufferManager(gpu.NewMemorySink(0), gpu.DefaultLimits()), encode.Options{}, nil)
	fb, err := orch.EncodeFrame(root)
	require.NoError(t, err)

	var buf bytes.Buffer
	printFrame(&buf, fb)
	out := buf.String()

	assert.Contains(t, out, "Containers: 2")
	assert.Contains(t, out, "Shapes: 2")
	assert.Contains(t, out, "0.500")
	assert.Contains(t, out, "(1, 2, 3)")
	assert.Contains(t, out, root.ID.String())
	assert.Contains(t, out, child.ID.String())
}

func TestVec(t *testing.T) {
	assert.Equal(t, "()", vec(nil))
	assert.Equal(t, "(0.5, -1)", vec([]float32{0.5, -1}))
}
