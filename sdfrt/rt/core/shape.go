package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ShapeKind is the primitive tag written into every shape record. Adding a
// kind means extending the metadata table in package encode and the shader's
// decode switch together.
type ShapeKind uint32

const (
	KindSphere ShapeKind = iota
	KindBox
	KindCylinder
)

func (k ShapeKind) Valid() bool {
	return k <= KindCylinder
}

func (k ShapeKind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	default:
		return fmt.Sprintf("ShapeKind(%d)", uint32(k))
	}
}

// Geometry holds the kind-specific parameters of a primitive. The set of
// implementations is closed: Sphere, Box and Cylinder.
type Geometry interface {
	Kind() ShapeKind
}

type Sphere struct {
	Radius float32
}

func (Sphere) Kind() ShapeKind { return KindSphere }

// Box is described by its half extents along each local axis.
type Box struct {
	HalfExtents mgl32.Vec3
}

func (Box) Kind() ShapeKind { return KindBox }

type Cylinder struct {
	Height float32
	Radius float32
}

func (Cylinder) Kind() ShapeKind { return KindCylinder }

// Shape is a primitive owned by exactly one Container.
type Shape struct {
	ID        uuid.UUID
	Name      string
	Transform Transform
	Color     mgl32.Vec4 // RGBA
	Geometry  Geometry
}

func NewShape(name string, geom Geometry) *Shape {
	return &Shape{
		ID:        uuid.New(),
		Name:      name,
		Transform: NewTransform(),
		Color:     mgl32.Vec4{1, 1, 1, 1},
		Geometry:  geom,
	}
}

// GeometryValue returns the value form of g. Pointers to the built-in
// variants are dereferenced, a nil pointer yields nil, and anything else is
// returned unchanged.
func GeometryValue(g Geometry) Geometry {
	switch g := g.(type) {
	case *Sphere:
		if g == nil {
			return nil
		}
		return *g
	case *Box:
		if g == nil {
			return nil
		}
		return *g
	case *Cylinder:
		if g == nil {
			return nil
		}
		return *g
	}
	return g
}

// Kind returns the geometry kind, or false when the shape has no geometry.
func (s *Shape) Kind() (ShapeKind, bool) {
	g := GeometryValue(s.Geometry)
	if g == nil {
		return 0, false
	}
	return g.Kind(), true
}

// Clone copies the shape. Pointer geometries are stored by value in the copy
// so later edits through the pointer do not reach it.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Geometry = GeometryValue(s.Geometry)
	return &c
}
