package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// RotatePoint applies Euler rotations in degrees about X, then Y, then Z,
// the same order the kernels use for Rotate.
func RotatePoint(p [3]float64, x, y, z float64) [3]float64 {
	v := r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	if x != 0 {
		v = r3.NewRotation(x*math.Pi/180, r3.Vec{X: 1}).Rotate(v)
	}
	if y != 0 {
		v = r3.NewRotation(y*math.Pi/180, r3.Vec{Y: 1}).Rotate(v)
	}
	if z != 0 {
		v = r3.NewRotation(z*math.Pi/180, r3.Vec{Z: 1}).Rotate(v)
	}
	return [3]float64{v.X, v.Y, v.Z}
}

// TransformBox returns the axis-aligned box enclosing the given box after
// rotating it by Euler angles (degrees) and then translating it.
func TransformBox(min, max, rotation, translation [3]float64) (outMin, outMax [3]float64) {
	t := r3.Vec{X: translation[0], Y: translation[1], Z: translation[2]}
	first := true
	for i := 0; i < 8; i++ {
		corner := [3]float64{min[0], min[1], min[2]}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				corner[axis] = max[axis]
			}
		}
		c := RotatePoint(corner, rotation[0], rotation[1], rotation[2])
		v := r3.Add(r3.Vec{X: c[0], Y: c[1], Z: c[2]}, t)
		p := [3]float64{v.X, v.Y, v.Z}
		if first {
			outMin, outMax = p, p
			first = false
			continue
		}
		outMin, outMax = Expand(outMin, outMax, p, p)
	}
	return outMin, outMax
}

// Expand folds the box (bMin, bMax) into (min, max), taking the
// coordinate-wise minimum of minima and maximum of maxima.
func Expand(min, max, bMin, bMax [3]float64) (outMin, outMax [3]float64) {
	for i := 0; i < 3; i++ {
		outMin[i] = math.Min(min[i], bMin[i])
		outMax[i] = math.Max(max[i], bMax[i])
	}
	return outMin, outMax
}
