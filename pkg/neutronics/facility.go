package neutronics

import (
	"fmt"
	"math"

	"github.com/chazu/toroid/pkg/assembly"
)

// FacilityOptions sizes the concrete around a reactor, in cm.
type FacilityOptions struct {
	BioshieldGap       float64 `json:"bioshield_gap" yaml:"bioshield_gap" validate:"gte=0"`
	BioshieldThickness float64 `json:"bioshield_thickness" yaml:"bioshield_thickness" validate:"gt=0"`
	FloorThickness     float64 `json:"floor_thickness" yaml:"floor_thickness" validate:"gt=0"`
	CeilingThickness   float64 `json:"ceiling_thickness" yaml:"ceiling_thickness" validate:"gt=0"`
	FloorGap           float64 `json:"floor_gap" yaml:"floor_gap" validate:"gte=0"`
	CeilingGap         float64 `json:"ceiling_gap" yaml:"ceiling_gap" validate:"gte=0"`
}

// DefaultFacility returns the sizes used by the structured mesh example.
func DefaultFacility() FacilityOptions {
	return FacilityOptions{
		BioshieldGap:       500,
		BioshieldThickness: 200,
		FloorThickness:     200,
		CeilingThickness:   200,
		FloorGap:           100,
		CeilingGap:         150,
	}
}

// Facility is the envelope around a reactor: a cylindrical bioshield with
// a floor and a ceiling. The floor's underside is at z = 0 and the reactor
// is lifted by Offset so it sits FloorGap above the floor.
type Facility struct {
	ReactorRadius  float64 `json:"reactor_radius"`
	Offset         float64 `json:"offset"`
	BioshieldInner float64 `json:"bioshield_inner"`
	BioshieldOuter float64 `json:"bioshield_outer"`
	FloorTop       float64 `json:"floor_top"`
	CeilingBottom  float64 `json:"ceiling_bottom"`
	CeilingTop     float64 `json:"ceiling_top"`
}

// NewFacility sizes a facility around the assembly's bounding box.
func NewFacility(a *assembly.Assembly, opts FacilityOptions) (Facility, error) {
	min, max, err := a.BoundingBox()
	if err != nil {
		return Facility{}, fmt.Errorf("facility: %w", err)
	}
	for _, v := range []float64{opts.BioshieldGap, opts.BioshieldThickness, opts.FloorThickness, opts.CeilingThickness, opts.FloorGap, opts.CeilingGap} {
		if v < 0 {
			return Facility{}, fmt.Errorf("facility: negative size in %+v", opts)
		}
	}

	radius := math.Max(math.Max(math.Abs(min[0]), math.Abs(min[1])), math.Max(math.Abs(max[0]), math.Abs(max[1])))
	height := max[2] - min[2]
	f := Facility{
		ReactorRadius: radius,
		Offset:        math.Abs(min[2]) + opts.FloorThickness + opts.FloorGap,
		FloorTop:      opts.FloorThickness,
	}
	f.BioshieldInner = radius + opts.BioshieldGap
	f.BioshieldOuter = f.BioshieldInner + opts.BioshieldThickness
	f.CeilingBottom = opts.FloorThickness + opts.FloorGap + opts.CeilingGap + height
	f.CeilingTop = f.CeilingBottom + opts.CeilingThickness
	return f, nil
}

// TallyMesh is a cylindrical mesh covering the whole facility.
type TallyMesh struct {
	RMax   float64 `json:"r_max"`
	ZMax   float64 `json:"z_max"`
	PhiMax float64 `json:"phi_max"`
	Bins   int     `json:"bins"`
}

// DefaultTallyBins is the number of bins along each mesh axis.
const DefaultTallyBins = 100

// Mesh returns a tally mesh over the facility for a wedge of phiMax radians.
func (f Facility) Mesh(phiMax float64) TallyMesh {
	return TallyMesh{RMax: f.BioshieldOuter, ZMax: f.CeilingTop, PhiMax: phiMax, Bins: DefaultTallyBins}
}
