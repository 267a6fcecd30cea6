package math3d

import "math"

// Quat is a rotation quaternion with vector part (X, Y, Z) and scalar part W.
// The zero value is not a valid rotation; use QuatIdentity.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// QuatAxisAngle returns the rotation of angle radians around axis.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	axis = axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, c}
}

// QuatRotationX returns a rotation around the X axis.
func QuatRotationX(angle float64) Quat {
	s, c := math.Sincos(angle / 2)
	return Quat{s, 0, 0, c}
}

// QuatRotationY returns a rotation around the Y axis.
func QuatRotationY(angle float64) Quat {
	s, c := math.Sincos(angle / 2)
	return Quat{0, s, 0, c}
}

// QuatRotationZ returns a rotation around the Z axis.
func QuatRotationZ(angle float64) Quat {
	s, c := math.Sincos(angle / 2)
	return Quat{0, 0, s, c}
}

// Mul returns the Hamilton product q * r: the rotation r followed by q.
//
//nolint:st1016 // q*r naming convention is clearer for quaternion products
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Len returns the quaternion norm.
func (q Quat) Len() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns the unit quaternion. A zero quaternion normalizes to identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return QuatIdentity()
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Mat4 returns the rotation as a column-major matrix.
func (q Quat) Mat4() Mat4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// ApproxEqual reports whether q and r describe the same rotation within eps.
// q and -q are the same rotation.
func (q Quat) ApproxEqual(r Quat, eps float64) bool {
	d := math.Abs(q.X*r.X + q.Y*r.Y + q.Z*r.Z + q.W*r.W)
	return math.Abs(d-1) <= eps
}
