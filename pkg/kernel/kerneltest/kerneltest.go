// Package kerneltest provides a bounding-box kernel for tests that need
// kernel.Kernel without the cost of real geometry. Solids carry only their
// boxes and meshes are the twelve triangles of that box.
package kerneltest

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/toroid/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// Solid is a box-only solid.
type Solid struct {
	Min, Max [3]float64
}

// BoundingBox returns the stored box.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	return s.Min, s.Max
}

// Kernel is safe for concurrent use.
type Kernel struct {
	// FailRevolve, when set, is returned by every Revolve call.
	FailRevolve error

	mu       sync.Mutex
	revolves int
	meshes   int
	unions   int
}

// New returns a fresh fake kernel.
func New() *Kernel {
	return &Kernel{}
}

// Revolves reports how many solids have been revolved.
func (k *Kernel) Revolves() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.revolves
}

// Meshes reports how many meshes have been generated.
func (k *Kernel) Meshes() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.meshes
}

// Unions reports how many unions have been taken.
func (k *Kernel) Unions() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.unions
}

// Revolve computes the exact box of the swept profile.
func (k *Kernel) Revolve(profile [][2]float64, angle float64) (kernel.Solid, error) {
	if k.FailRevolve != nil {
		return nil, k.FailRevolve
	}
	if len(profile) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 points, got %d", kernel.ErrInvalidProfile, len(profile))
	}
	if angle <= 0 || angle > 360 {
		return nil, fmt.Errorf("%w: revolve angle %g outside (0, 360]", kernel.ErrInvalidProfile, angle)
	}

	rMin, rMax := math.Inf(1), math.Inf(-1)
	zMin, zMax := math.Inf(1), math.Inf(-1)
	for i, p := range profile {
		if p[0] < 0 {
			return nil, fmt.Errorf("%w: point %d has negative radius %g", kernel.ErrInvalidProfile, i, p[0])
		}
		rMin, rMax = math.Min(rMin, p[0]), math.Max(rMax, p[0])
		zMin, zMax = math.Min(zMin, p[1]), math.Max(zMax, p[1])
	}

	// Extremes in X and Y occur at the wedge edges or at a cardinal
	// direction inside the wedge.
	phis := []float64{0, angle}
	for _, c := range []float64{90, 180, 270} {
		if c < angle {
			phis = append(phis, c)
		}
	}
	s := &Solid{
		Min: [3]float64{math.Inf(1), math.Inf(1), zMin},
		Max: [3]float64{math.Inf(-1), math.Inf(-1), zMax},
	}
	for _, phi := range phis {
		rad := phi * math.Pi / 180
		for _, r := range []float64{rMin, rMax} {
			x, y := r*math.Cos(rad), r*math.Sin(rad)
			s.Min[0], s.Max[0] = math.Min(s.Min[0], x), math.Max(s.Max[0], x)
			s.Min[1], s.Max[1] = math.Min(s.Min[1], y), math.Max(s.Max[1], y)
		}
	}

	k.mu.Lock()
	k.revolves++
	k.mu.Unlock()
	return s, nil
}

// Union returns the box enclosing both solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	aMin, aMax := a.BoundingBox()
	bMin, bMax := b.BoundingBox()
	min, max := kernel.Expand(aMin, aMax, bMin, bMax)

	k.mu.Lock()
	k.unions++
	k.mu.Unlock()
	return &Solid{Min: min, Max: max}
}

// Translate shifts the box.
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	min, max := s.BoundingBox()
	min, max = kernel.TransformBox(min, max, [3]float64{}, [3]float64{x, y, z})
	return &Solid{Min: min, Max: max}
}

// Rotate returns the box enclosing the rotated box.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	min, max := s.BoundingBox()
	min, max = kernel.TransformBox(min, max, [3]float64{x, y, z}, [3]float64{})
	return &Solid{Min: min, Max: max}
}

// boxFaces lists the corner indices of each box face, wound outward.
// Corner i has bit 0 set for max X, bit 1 for max Y, bit 2 for max Z.
var boxFaces = [6][4]uint32{
	{0, 2, 3, 1}, // -Z
	{4, 5, 7, 6}, // +Z
	{0, 1, 5, 4}, // -Y
	{2, 6, 7, 3}, // +Y
	{0, 4, 6, 2}, // -X
	{1, 3, 7, 5}, // +X
}

// ToMesh returns the box as eight shared vertices and twelve triangles.
func (k *Kernel) ToMesh(s kernel.Solid, opts kernel.MeshOptions) (*kernel.Mesh, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	min, max := s.BoundingBox()

	m := &kernel.Mesh{}
	for i := 0; i < 8; i++ {
		var c [3]float64
		for axis := 0; axis < 3; axis++ {
			c[axis] = min[axis]
			if i&(1<<axis) != 0 {
				c[axis] = max[axis]
			}
		}
		m.Vertices = append(m.Vertices, float32(c[0]), float32(c[1]), float32(c[2]))
		m.Normals = append(m.Normals, 0, 0, 0)
	}
	for _, f := range boxFaces {
		m.Indices = append(m.Indices, f[0], f[1], f[2], f[0], f[2], f[3])
	}

	k.mu.Lock()
	k.meshes++
	k.mu.Unlock()
	return m, nil
}
