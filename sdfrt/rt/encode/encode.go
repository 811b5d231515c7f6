// Package encode flattens a blend-container tree into the shape and
// container records consumed by the raymarching shader.
//
// Both encoders walk the tree with the same pre-order traversal: a container
// is visited before its descendants, and the Order option decides whether
// children and shapes are taken front-to-back or back-to-front. The
// container pass assigns flat indices and returns them in an IndexTable,
// which the shape pass uses to tag every shape with its owner.
//
// Shape records carry the inverse rotation and inverse scale of the shape's
// transform. The shader multiplies world-space sample points by these
// directly and never inverts anything itself.
package encode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
)

var (
	// ErrInvalidTree is returned for a missing root, or for a container
	// reachable more than once (shared subtree or cycle).
	ErrInvalidTree = errors.New("invalid blend tree")

	// ErrUnsupportedShapeKind is returned when a shape's geometry is not one
	// of the known variants. Such shapes are never skipped: dropping one would
	// desynchronise the owner's advertised shape count.
	ErrUnsupportedShapeKind = errors.New("unsupported shape kind")
)

type Order int

const (
	OrderForward Order = iota
	OrderReverse
)

func (o Order) String() string {
	if o == OrderReverse {
		return "reverse"
	}
	return "forward"
}

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward":
		return OrderForward, nil
	case "reverse":
		return OrderReverse, nil
	}
	return 0, fmt.Errorf("unknown traversal order %q", s)
}

type Options struct {
	Order Order
	// RootParent is written as the root container's parent index. The root
	// always receives flat index 0, so the default also means "self".
	RootParent uint32
}

// at returns the i-th element of n in traversal order.
func (o Order) at(i, n int) int {
	if o == OrderReverse {
		return n - 1 - i
	}
	return i
}

// walk visits every container reachable from root in pre-order, passing the
// container and its parent (nil for the root). Nil children are skipped.
func walk(root *core.Container, order Order, fn func(c, parent *core.Container) error) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInvalidTree)
	}

	type frame struct {
		c, parent *core.Container
	}

	seen := make(map[*core.Container]struct{})
	stack := []frame{{c: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, dup := seen[f.c]; dup {
			return fmt.Errorf("%w: container %q (%s) reached twice", ErrInvalidTree, f.c.Name, f.c.ID)
		}
		seen[f.c] = struct{}{}

		if err := fn(f.c, f.parent); err != nil {
			return err
		}

		// Push in reverse visiting order so the first child pops first.
		n := len(f.c.Children)
		for i := n - 1; i >= 0; i-- {
			ch := f.c.Children[order.at(i, n)]
			if ch != nil {
				stack = append(stack, frame{c: ch, parent: f.c})
			}
		}
	}
	return nil
}

// Count is the cheap pre-pass used to size buffers before encoding. It
// validates the tree shape but not the shapes' geometry.
func Count(root *core.Container, opts Options) (containers, shapes int, err error) {
	err = walk(root, opts.Order, func(c, _ *core.Container) error {
		containers++
		shapes += c.LiveShapes()
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return containers, shapes, nil
}
