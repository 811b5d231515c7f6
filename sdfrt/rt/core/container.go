package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Container groups shapes and child containers. Blend combines its own
// operands; ParentBlend describes how the combined result merges into the
// parent. Containers own their children exclusively; the tree is rebuilt by
// the authoring side between frames and read-only while encoding.
type Container struct {
	ID           uuid.UUID
	Name         string
	Blend        BlendOp
	ParentBlend  BlendOp
	SmoothBlend  bool
	SmoothFactor float32 // [0,1]

	Shapes   []*Shape
	Children []*Container
}

func NewContainer(name string) *Container {
	return &Container{
		ID:          uuid.New(),
		Name:        name,
		Blend:       BlendUnion,
		ParentBlend: BlendUnion,
	}
}

func (c *Container) AddShape(shapes ...*Shape) *Container {
	c.Shapes = append(c.Shapes, shapes...)
	return c
}

func (c *Container) AddChild(children ...*Container) *Container {
	c.Children = append(c.Children, children...)
	return c
}

// SetSmooth enables smooth blending with the factor clamped to [0,1].
func (c *Container) SetSmooth(factor float32) *Container {
	c.SmoothBlend = true
	c.SmoothFactor = ClampSmoothFactor(factor)
	return c
}

// ClampSmoothFactor clamps f to [0,1]. NaN maps to 0.
func ClampSmoothFactor(f float32) float32 {
	if f != f {
		return 0
	}
	return mgl32.Clamp(f, 0, 1)
}

// Clone deep-copies the subtree, keeping IDs. Nil entries are dropped.
func (c *Container) Clone() *Container {
	if c == nil {
		return nil
	}
	out := *c
	out.Shapes = make([]*Shape, 0, len(c.Shapes))
	for _, s := range c.Shapes {
		if s != nil {
			out.Shapes = append(out.Shapes, s.Clone())
		}
	}
	out.Children = make([]*Container, 0, len(c.Children))
	for _, ch := range c.Children {
		if ch != nil {
			out.Children = append(out.Children, ch.Clone())
		}
	}
	return &out
}

// LiveShapes returns the number of non-nil shapes.
func (c *Container) LiveShapes() int {
	n := 0
	for _, s := range c.Shapes {
		if s != nil {
			n++
		}
	}
	return n
}

// LiveChildren returns the number of non-nil child containers.
func (c *Container) LiveChildren() int {
	n := 0
	for _, ch := range c.Children {
		if ch != nil {
			n++
		}
	}
	return n
}

// CountNodes walks the subtree and returns the number of containers and
// shapes. It assumes a well-formed tree; use encode.Count to validate.
func (c *Container) CountNodes() (containers, shapes int) {
	if c == nil {
		return 0, 0
	}
	stack := []*Container{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		containers++
		shapes += cur.LiveShapes()
		for _, ch := range cur.Children {
			if ch != nil {
				stack = append(stack, ch)
			}
		}
	}
	return containers, shapes
}
