package core

import (
	"fmt"
	"strings"
)

// BlendOp is the boolean combination rule applied between SDF operands.
// Values are part of the GPU record layout and must not be reordered.
type BlendOp uint32

const (
	BlendUnion BlendOp = iota
	BlendIntersection
	BlendDifference
)

func (op BlendOp) Valid() bool {
	return op <= BlendDifference
}

func (op BlendOp) String() string {
	switch op {
	case BlendUnion:
		return "union"
	case BlendIntersection:
		return "intersection"
	case BlendDifference:
		return "difference"
	default:
		return fmt.Sprintf("BlendOp(%d)", uint32(op))
	}
}

// ParseBlendOp accepts the lower-case names produced by String. An empty
// string is a union.
func ParseBlendOp(s string) (BlendOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "union":
		return BlendUnion, nil
	case "intersection", "intersect":
		return BlendIntersection, nil
	case "difference", "subtract":
		return BlendDifference, nil
	}
	return 0, fmt.Errorf("unknown blend op %q", s)
}
