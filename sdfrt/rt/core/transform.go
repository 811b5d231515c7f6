package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a shape's world placement. Containers carry no transform.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// SetEulerDegrees sets the rotation from Euler angles in degrees, applied
// Z first, then X, then Y.
func (t *Transform) SetEulerDegrees(x, y, z float32) {
	qx := mgl32.QuatRotate(mgl32.DegToRad(x), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(mgl32.DegToRad(y), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(z), mgl32.Vec3{0, 0, 1})
	t.Rotation = qy.Mul(qx).Mul(qz).Normalize()
}

func (t Transform) RotationMatrix() mgl32.Mat3 {
	return t.Rotation.Normalize().Mat4().Mat3()
}

// InverseRotation is the transpose of the rotation matrix (conjugate quaternion).
func (t Transform) InverseRotation() mgl32.Mat3 {
	return t.Rotation.Normalize().Conjugate().Mat4().Mat3()
}

func (t Transform) ScaleMatrix() mgl32.Mat3 {
	return mgl32.Diag3(t.Scale)
}

// InverseScale returns the inverse of the scale matrix. A zero scale
// component makes the matrix singular, in which case the zero matrix is
// returned.
func (t Transform) InverseScale() mgl32.Mat3 {
	return mgl32.Diag3(t.Scale).Inv()
}
