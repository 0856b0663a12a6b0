package build

import "math"

// DefaultCurvePoints is the number of segments used per half curve.
const DefaultCurvePoints = 64

// boundary describes the plasma cross-section: a D shape centred on
// (major, 0) with half width minor, half height elongation*minor.
type boundary struct {
	major, minor  float64
	elongation    float64
	triangularity float64
}

// at returns the point at angle theta on the curve offset from the plasma
// by d horizontally and by vUp/vLow vertically above/below the midplane.
// d = vUp = vLow = 0 is the plasma boundary itself. Growing any offset moves
// every point away from the centre, so curves with larger offsets enclose
// curves with smaller ones.
func (b boundary) at(theta, d, vUp, vLow float64) Point {
	s := math.Sin(theta)
	v := vUp
	if s < 0 {
		v = vLow
	}
	return Point{
		R: b.major + (b.minor+d)*math.Cos(theta+b.triangularity*s),
		Z: (b.elongation*b.minor + v) * s,
	}
}

// arc samples n+1 points on an offset curve from theta0 to theta1.
func (b boundary) arc(theta0, theta1 float64, n int, off offsets) []Point {
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		theta := theta0 + (theta1-theta0)*float64(i)/float64(n)
		pts = append(pts, b.at(theta, off.d, off.vUp, off.vLow))
	}
	return pts
}

// closed samples the complete offset curve with 2n points.
func (b boundary) closed(n int, off offsets) []Point {
	pts := make([]Point, 0, 2*n)
	for i := 0; i < 2*n; i++ {
		theta := math.Pi * float64(i) / float64(n)
		pts = append(pts, b.at(theta, off.d, off.vUp, off.vLow))
	}
	return pts
}

// top returns the height of an offset curve above the midplane.
func (b boundary) top(off offsets) float64 {
	return b.elongation*b.minor + off.vUp
}

// bottom returns the depth of an offset curve below the midplane.
func (b boundary) bottom(off offsets) float64 {
	return b.elongation*b.minor + off.vLow
}

// offsets positions one curve relative to the plasma boundary.
type offsets struct {
	d, vUp, vLow float64
}

// shell is the region between a near and a far offset curve.
type shell struct {
	near, far offsets
}

// halfShell returns the closed polygon between the near and far curves over
// [theta0, theta1]: the far curve forward, then the near curve backward.
func (b boundary) halfShell(theta0, theta1 float64, n int, s shell) []Point {
	far := b.arc(theta0, theta1, n, s.far)
	near := b.arc(theta1, theta0, n, s.near)
	return append(far, near...)
}

// columnCap returns an outboard shell that is carried horizontally back to a
// center column whose outer face sits at radius column. Curve points that
// would cross the column face are clamped onto it.
func (b boundary) columnCap(n int, s shell, column float64) []Point {
	far := clampR(b.arc(-math.Pi/2, math.Pi/2, n, s.far), column)
	near := clampR(b.arc(math.Pi/2, -math.Pi/2, n, s.near), column)

	pts := make([]Point, 0, len(far)+len(near)+4)
	pts = append(pts, Point{R: column, Z: -b.bottom(s.far)})
	pts = append(pts, far...)
	pts = append(pts, Point{R: column, Z: b.top(s.far)}, Point{R: column, Z: b.top(s.near)})
	pts = append(pts, near...)
	pts = append(pts, Point{R: column, Z: -b.bottom(s.near)})
	return pts
}

func clampR(pts []Point, min float64) []Point {
	for i := range pts {
		if pts[i].R < min {
			pts[i].R = min
		}
	}
	return pts
}

// rect returns the rectangle [r0, r1] x [z0, z1] counter-clockwise.
func rect(r0, r1, z0, z1 float64) []Point {
	return []Point{{r0, z0}, {r1, z0}, {r1, z1}, {r0, z1}}
}
