// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solids of revolution, booleans and meshing behind
// this interface, so the rest of the system never inspects solid internals.
package kernel

import (
	"errors"
	"fmt"
	"math"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation. Solids are immutable;
// every operation returns a new handle.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Revolve sweeps a closed (R, Z) polygon about the Z axis by angle
	// degrees, starting from the +X direction. An angle of 360 produces a
	// full solid of revolution; smaller angles produce a closed wedge.
	Revolve(profile [][2]float64, angle float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid, opts MeshOptions) (*Mesh, error)
}

// ErrInvalidProfile is returned by Revolve for unusable profiles.
var ErrInvalidProfile = errors.New("invalid profile")

// DefaultMeshCells is the marching-cubes resolution used along the longest
// side of a solid when no mesh sizes are given.
const DefaultMeshCells = 200

// MeshOptions bounds the edge length of generated elements. The zero value
// selects DefaultMeshCells.
type MeshOptions struct {
	MinSize  float64 // smallest allowed element edge
	MaxSize  float64 // largest allowed element edge
	MaxCells int     // hard cap on cells along the longest side, 0 = DefaultMeshCells
}

// Validate checks that the bounds are usable.
func (o MeshOptions) Validate() error {
	if o.MinSize < 0 || o.MaxSize < 0 || o.MaxCells < 0 {
		return fmt.Errorf("mesh options must not be negative: %+v", o)
	}
	if o.MaxSize > 0 && o.MinSize > o.MaxSize {
		return fmt.Errorf("min mesh size %g exceeds max mesh size %g", o.MinSize, o.MaxSize)
	}
	return nil
}

// Cells returns the number of cells along a side of length extent: enough
// that no cell exceeds MaxSize, few enough that none falls below MinSize,
// and never more than the cap.
func (o MeshOptions) Cells(extent float64) int {
	limit := o.MaxCells
	if limit <= 0 {
		limit = DefaultMeshCells
	}
	if o.MaxSize <= 0 || extent <= 0 {
		return limit
	}
	cells := int(math.Ceil(extent / o.MaxSize))
	if o.MinSize > 0 {
		if most := int(math.Floor(extent / o.MinSize)); most < cells {
			cells = most
		}
	}
	if cells > limit {
		cells = limit
	}
	if cells < 1 {
		cells = 1
	}
	return cells
}

// Extent returns the longest side of a bounding box.
func Extent(min, max [3]float64) float64 {
	return math.Max(max[0]-min[0], math.Max(max[1]-min[1], max[2]-min[2]))
}
