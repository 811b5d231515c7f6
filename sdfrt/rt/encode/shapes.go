package encode

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
)

// EncodeShapes appends one record per shape to dst[:0]. Each container's
// shapes are contiguous and containers appear in the same order as in the
// container pass, so OwnerIndex comes straight from table.
func EncodeShapes(dst []ShapeRecord, root *core.Container, table *IndexTable, opts Options) ([]ShapeRecord, error) {
	dst = dst[:0]

	err := walk(root, opts.Order, func(c, _ *core.Container) error {
		owner, ok := table.Index(c)
		if !ok {
			return fmt.Errorf("%w: container %q missing from index table", ErrInvalidTree, c.Name)
		}

		n := len(c.Shapes)
		for i := 0; i < n; i++ {
			s := c.Shapes[opts.Order.at(i, n)]
			if s == nil {
				continue
			}
			rec, err := encodeShape(s)
			if err != nil {
				return fmt.Errorf("container %q: %w", c.Name, err)
			}
			rec.OwnerIndex = owner
			dst = append(dst, rec)
		}
		return nil
	})
	return dst, err
}

func encodeShape(s *core.Shape) (ShapeRecord, error) {
	kind, meta, err := packMetadata(s.Geometry)
	if err != nil {
		return ShapeRecord{}, fmt.Errorf("shape %q: %w", s.Name, err)
	}
	return ShapeRecord{
		Kind:          kind,
		Position:      s.Transform.Position,
		InverseRotate: s.Transform.InverseRotation(),
		InverseScale:  s.Transform.InverseScale(),
		Color:         s.Color,
		Metadata:      meta,
	}, nil
}

// packMetadata fills the kind-dependent metadata slot. Pointers to the core
// variants are accepted like their values.
//
//	sphere:   (radius, 0, 0)
//	box:      (half extents x, y, z)
//	cylinder: (height, radius, 0)
func packMetadata(g core.Geometry) (core.ShapeKind, mgl32.Vec3, error) {
	switch g := core.GeometryValue(g).(type) {
	case core.Sphere:
		return core.KindSphere, mgl32.Vec3{g.Radius, 0, 0}, nil
	case core.Box:
		return core.KindBox, g.HalfExtents, nil
	case core.Cylinder:
		return core.KindCylinder, mgl32.Vec3{g.Height, g.Radius, 0}, nil
	case nil:
		return 0, mgl32.Vec3{}, fmt.Errorf("%w: no geometry", ErrUnsupportedShapeKind)
	default:
		return 0, mgl32.Vec3{}, fmt.Errorf("%w: %T", ErrUnsupportedShapeKind, g)
	}
}
