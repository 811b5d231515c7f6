// Package scenefile reads blend trees from YAML scene snapshots.
//
//	root:
//	  name: root
//	  blend: union
//	  smooth: {enabled: true, factor: 0.25}
//	  shapes:
//	    - sphere: {radius: 1}
//	      position: [0, 1, 0]
//	      color: tomato
//	  children:
//	    - blend: difference
//	      parent_blend: union
//	      shapes:
//	        - box: {half_extents: [1, 0.5, 1]}
//	          rotation: [0, 45, 0]
//	          scale: [1, 2, 1]
//	          color: [0.2, 0.4, 1, 1]
//
// Rotations are Euler angles in degrees. Colors are either 3 or 4 floats, a
// "#rrggbb" / "#rrggbbaa" hex string, or an SVG color name. Containers and
// shapes may carry an explicit "id"; otherwise one is derived from their
// position in the tree, so IDs stay stable across reloads of the same file.
package scenefile

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
)

// idSpace namespaces IDs derived from tree paths.
var idSpace = uuid.MustParse("6f1d3c52-9a0e-4b8e-a8f4-5d2c7e1b9a30")

type document struct {
	Root *containerDoc `yaml:"root"`
}

type containerDoc struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Blend       string         `yaml:"blend"`
	ParentBlend string         `yaml:"parent_blend"`
	Smooth      *smoothDoc     `yaml:"smooth"`
	Shapes      []shapeDoc     `yaml:"shapes"`
	Children    []containerDoc `yaml:"children"`
}

type smoothDoc struct {
	Enabled bool    `yaml:"enabled"`
	Factor  float32 `yaml:"factor"`
}

type shapeDoc struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Sphere   *sphereDoc   `yaml:"sphere"`
	Box      *boxDoc      `yaml:"box"`
	Cylinder *cylinderDoc `yaml:"cylinder"`
	Position *[3]float32  `yaml:"position"`
	Rotation *[3]float32  `yaml:"rotation"`
	Scale    *[3]float32  `yaml:"scale"`
	Color    *Color       `yaml:"color"`
}

type sphereDoc struct {
	Radius float32 `yaml:"radius"`
}

type boxDoc struct {
	HalfExtents [3]float32 `yaml:"half_extents"`
}

type cylinderDoc struct {
	Height float32 `yaml:"height"`
	Radius float32 `yaml:"radius"`
}

// Color decodes the color forms accepted in scene files.
type Color mgl32.Vec4

func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := ParseColor(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = Color(v)
		return nil
	case yaml.SequenceNode:
		var vals []float32
		if err := node.Decode(&vals); err != nil {
			return err
		}
		switch len(vals) {
		case 3:
			*c = Color{vals[0], vals[1], vals[2], 1}
		case 4:
			*c = Color{vals[0], vals[1], vals[2], vals[3]}
		default:
			return fmt.Errorf("line %d: color needs 3 or 4 components, got %d", node.Line, len(vals))
		}
		return nil
	}
	return fmt.Errorf("line %d: unsupported color value", node.Line)
}

// ParseColor resolves an SVG color name or a #rrggbb[aa] hex string.
func ParseColor(s string) (mgl32.Vec4, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") {
		raw, err := hex.DecodeString(s[1:])
		if err != nil || (len(raw) != 3 && len(raw) != 4) {
			return mgl32.Vec4{}, fmt.Errorf("bad hex color %q", s)
		}
		a := uint8(255)
		if len(raw) == 4 {
			a = raw[3]
		}
		return rgba8(raw[0], raw[1], raw[2], a), nil
	}
	named, ok := colornames.Map[s]
	if !ok {
		return mgl32.Vec4{}, fmt.Errorf("unknown color name %q", s)
	}
	return rgba8(named.R, named.G, named.B, named.A), nil
}

func rgba8(r, g, b, a uint8) mgl32.Vec4 {
	return mgl32.Vec4{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

// Load reads and parses a scene file.
func Load(path string) (*core.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Parse builds a tree from YAML.
func Parse(data []byte) (*core.Container, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("scene has no root container")
	}
	return buildContainer(doc.Root, "root")
}

func buildContainer(d *containerDoc, path string) (*core.Container, error) {
	id, err := nodeID(d.ID, path)
	if err != nil {
		return nil, err
	}

	c := core.NewContainer(d.Name)
	c.ID = id
	if c.Name == "" {
		c.Name = path
	}
	if c.Blend, err = core.ParseBlendOp(d.Blend); err != nil {
		return nil, fmt.Errorf("%s.blend: %w", path, err)
	}
	if c.ParentBlend, err = core.ParseBlendOp(d.ParentBlend); err != nil {
		return nil, fmt.Errorf("%s.parent_blend: %w", path, err)
	}
	if d.Smooth != nil {
		if f := d.Smooth.Factor; !(f >= 0 && f <= 1) {
			return nil, fmt.Errorf("%s.smooth.factor: %v outside [0,1]", path, d.Smooth.Factor)
		}
		c.SmoothBlend = d.Smooth.Enabled
		c.SmoothFactor = d.Smooth.Factor
	}

	for i := range d.Shapes {
		s, err := buildShape(&d.Shapes[i], fmt.Sprintf("%s.shapes[%d]", path, i))
		if err != nil {
			return nil, err
		}
		c.AddShape(s)
	}
	for i := range d.Children {
		child, err := buildContainer(&d.Children[i], fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		c.AddChild(child)
	}
	return c, nil
}

func buildShape(d *shapeDoc, path string) (*core.Shape, error) {
	var geoms []core.Geometry
	if d.Sphere != nil {
		geoms = append(geoms, core.Sphere{Radius: d.Sphere.Radius})
	}
	if d.Box != nil {
		geoms = append(geoms, core.Box{HalfExtents: mgl32.Vec3(d.Box.HalfExtents)})
	}
	if d.Cylinder != nil {
		geoms = append(geoms, core.Cylinder{Height: d.Cylinder.Height, Radius: d.Cylinder.Radius})
	}
	if len(geoms) != 1 {
		return nil, fmt.Errorf("%s: need exactly one of sphere, box or cylinder, got %d", path, len(geoms))
	}

	id, err := nodeID(d.ID, path)
	if err != nil {
		return nil, err
	}
	s := core.NewShape(d.Name, geoms[0])
	s.ID = id
	if s.Name == "" {
		s.Name = path
	}
	if d.Position != nil {
		s.Transform.Position = mgl32.Vec3(*d.Position)
	}
	if d.Rotation != nil {
		s.Transform.SetEulerDegrees(d.Rotation[0], d.Rotation[1], d.Rotation[2])
	}
	if d.Scale != nil {
		s.Transform.Scale = mgl32.Vec3(*d.Scale)
	}
	if d.Color != nil {
		s.Color = mgl32.Vec4(*d.Color)
	}
	return s, nil
}

func nodeID(explicit, path string) (uuid.UUID, error) {
	if explicit == "" {
		return uuid.NewSHA1(idSpace, []byte(path)), nil
	}
	id, err := uuid.Parse(explicit)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s.id: %w", path, err)
	}
	return id, nil
}
