package build

import (
	"fmt"
	"strings"

	"github.com/chazu/toroid/pkg/paint"
)

// LayerType tags an entry of a build.
type LayerType int

const (
	LayerGap    LayerType = iota // empty space, only advances the offset
	LayerSolid                   // material-bearing shell
	LayerPlasma                  // central plasma region
)

func (t LayerType) String() string {
	switch t {
	case LayerGap:
		return "gap"
	case LayerSolid:
		return "solid"
	case LayerPlasma:
		return "plasma"
	default:
		return fmt.Sprintf("LayerType(%d)", int(t))
	}
}

// ParseLayerType converts "gap", "solid" or "plasma" (any case) to a LayerType.
func ParseLayerType(s string) (LayerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gap":
		return LayerGap, nil
	case "solid":
		return LayerSolid, nil
	case "plasma":
		return LayerPlasma, nil
	}
	return 0, fmt.Errorf("unknown layer type %q, expected gap, solid or plasma", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t LayerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LayerType) UnmarshalText(b []byte) error {
	v, err := ParseLayerType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Layer is one (type, thickness) entry of a build. Thickness is in cm.
type Layer struct {
	Type      LayerType `json:"type" yaml:"type"`
	Thickness float64   `json:"thickness" yaml:"thickness"`
}

// Gap returns a gap layer.
func Gap(thickness float64) Layer { return Layer{Type: LayerGap, Thickness: thickness} }

// Solid returns a solid layer.
func Solid(thickness float64) Layer { return Layer{Type: LayerSolid, Thickness: thickness} }

// Plasma returns a plasma layer.
func Plasma(thickness float64) Layer { return Layer{Type: LayerPlasma, Thickness: thickness} }

// RadialBuild lists layers from the machine axis outward.
type RadialBuild []Layer

// VerticalBuild lists layers from the bottom of the machine upward.
type VerticalBuild []Layer

// Clone returns a copy that shares no memory with b.
func (b RadialBuild) Clone() RadialBuild {
	return append(RadialBuild(nil), b...)
}

// Clone returns a copy that shares no memory with b.
func (b VerticalBuild) Clone() VerticalBuild {
	return append(VerticalBuild(nil), b...)
}

// Family selects how the profiles of a build are shaped.
type Family int

const (
	// FamilyTokamakFromPlasma wraps every solid layer around the plasma as a
	// D-shaped half shell on its side of the plasma.
	FamilyTokamakFromPlasma Family = iota
	// FamilySphericalTokamakFromPlasma turns inboard layers into a straight
	// center column and wraps outboard layers back to the column.
	FamilySphericalTokamakFromPlasma
	// FamilyTokamak derives elongation and vertical layer offsets from a
	// vertical build.
	FamilyTokamak
)

func (f Family) String() string {
	switch f {
	case FamilyTokamakFromPlasma:
		return "tokamak-from-plasma"
	case FamilySphericalTokamakFromPlasma:
		return "spherical-tokamak-from-plasma"
	case FamilyTokamak:
		return "tokamak"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ParseFamily accepts the kebab-case family names produced by String.
func ParseFamily(s string) (Family, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "tokamak-from-plasma":
		return FamilyTokamakFromPlasma, nil
	case "spherical-tokamak-from-plasma":
		return FamilySphericalTokamakFromPlasma, nil
	case "tokamak":
		return FamilyTokamak, nil
	}
	return 0, fmt.Errorf("unknown reactor family %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Family) UnmarshalText(b []byte) error {
	v, err := ParseFamily(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ShapeParameters controls the plasma cross-section and the revolution.
type ShapeParameters struct {
	Elongation    float64 `json:"elongation" yaml:"elongation"`
	Triangularity float64 `json:"triangularity" yaml:"triangularity"`
	// RotationAngle is the revolved sweep in degrees. Zero means a full
	// 360 degree revolution.
	RotationAngle float64 `json:"rotation_angle" yaml:"rotation_angle"`
}

// Side locates a profile relative to the plasma.
type Side int

const (
	SideCore     Side = iota // the plasma itself
	SideInboard              // between the axis and the plasma
	SideOutboard             // beyond the plasma
)

func (s Side) String() string {
	switch s {
	case SideCore:
		return "core"
	case SideInboard:
		return "inboard"
	case SideOutboard:
		return "outboard"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Point is a position in the (R, Z) half plane.
type Point struct {
	R float64 `json:"r"`
	Z float64 `json:"z"`
}

// Profile is a closed cross-section polygon ready for revolution about Z.
type Profile struct {
	Name       string      `json:"name"`
	Kind       LayerType   `json:"kind"`
	LayerIndex int         `json:"layer_index"` // 1-based for solids, 0 for the plasma
	BuildIndex int         `json:"build_index"` // position of the entry in the radial build
	Side       Side        `json:"side"`
	Color      paint.Color `json:"color"`
	Points     []Point     `json:"points"`
}

// Extents returns the axis-aligned bounds of the polygon.
func (p Profile) Extents() (min, max Point) {
	if len(p.Points) == 0 {
		return Point{}, Point{}
	}
	min, max = p.Points[0], p.Points[0]
	for _, pt := range p.Points[1:] {
		if pt.R < min.R {
			min.R = pt.R
		}
		if pt.Z < min.Z {
			min.Z = pt.Z
		}
		if pt.R > max.R {
			max.R = pt.R
		}
		if pt.Z > max.Z {
			max.Z = pt.Z
		}
	}
	return min, max
}

// Request is the full input to Resolve.
type Request struct {
	Family   Family
	Radial   RadialBuild
	Vertical VerticalBuild // only read by FamilyTokamak
	Shape    ShapeParameters
	// Colors overrides the default color of a profile by name.
	Colors map[string]paint.Color
	// CurvePoints is the number of segments per half curve. Zero selects
	// DefaultCurvePoints.
	CurvePoints int
}

// Resolution is the output of Resolve.
type Resolution struct {
	Profiles      []Profile
	MajorRadius   float64
	MinorRadius   float64
	Elongation    float64
	Triangularity float64
	RotationAngle float64
}

// Names returns the profile names in order.
func (r *Resolution) Names() []string {
	names := make([]string, len(r.Profiles))
	for i, p := range r.Profiles {
		names[i] = p.Name
	}
	return names
}
