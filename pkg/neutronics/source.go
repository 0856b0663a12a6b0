// Package neutronics derives the inputs of a fixed-source transport run from
// reactor geometry: neutron sources placed from the assembly's shape
// metadata and bounding box, and a concrete facility around the machine.
// No transport is run here.
package neutronics

import (
	"fmt"
	"math"

	"github.com/chazu/toroid/pkg/assembly"
)

// Energy distribution kinds.
const (
	EnergyMuir     = "muir"
	EnergyDiscrete = "discrete"
)

// Energy describes the source energy spectrum. Energies are in eV.
type Energy struct {
	Kind      string  `json:"kind"`
	E0        float64 `json:"e0"`
	MassRatio float64 `json:"m_rat,omitempty"`
	KT        float64 `json:"kt,omitempty"`
}

// Muir returns the D-T fusion spectrum used for ring sources.
func Muir() Energy {
	return Energy{Kind: EnergyMuir, E0: 14.08e6, MassRatio: 5, KT: 20000}
}

// Monoenergetic14MeV returns a single 14 MeV line.
func Monoenergetic14MeV() Energy {
	return Energy{Kind: EnergyDiscrete, E0: 14e6}
}

// RingSource emits isotropically from a ring of fixed radius and height,
// uniformly in azimuth over [PhiMin, PhiMax] radians.
type RingSource struct {
	Radius float64 `json:"radius"`
	Z      float64 `json:"z"`
	PhiMin float64 `json:"phi_min"`
	PhiMax float64 `json:"phi_max"`
	Energy Energy  `json:"energy"`
}

// NewRingSource places a ring at the assembly's major radius, at height z,
// spanning the revolved wedge.
func NewRingSource(a *assembly.Assembly, z float64) (RingSource, error) {
	meta := a.Metadata
	if meta.MajorRadius <= 0 {
		return RingSource{}, fmt.Errorf("ring source: assembly has no major radius")
	}
	angle := meta.RotationAngle
	if angle <= 0 || angle > 360 {
		angle = 360
	}
	return RingSource{
		Radius: meta.MajorRadius,
		Z:      z,
		PhiMax: angle * math.Pi / 180,
		Energy: Muir(),
	}, nil
}

// Nudge moves point sources off the center so they do not land on a mesh
// vertex.
const Nudge = 0.1

// PointSource emits isotropically from a single point.
type PointSource struct {
	Position [3]float64 `json:"position"`
	Energy   Energy     `json:"energy"`
}

// NewPointSource places a source at the nudged center of the assembly's
// bounding box.
func NewPointSource(a *assembly.Assembly) (PointSource, error) {
	c, err := a.Center()
	if err != nil {
		return PointSource{}, fmt.Errorf("point source: %w", err)
	}
	return PointSource{
		Position: [3]float64{c[0] + Nudge, c[1] + Nudge, c[2] + Nudge},
		Energy:   Monoenergetic14MeV(),
	}, nil
}
