package build

import (
	"fmt"
	"math"

	"github.com/chazu/toroid/pkg/paint"
)

// PlasmaName is the name of the plasma profile.
const PlasmaName = "plasma"

// LayerName returns the name of the n-th (1-based) solid layer.
func LayerName(n int) string {
	return fmt.Sprintf("layer_%d", n)
}

// span is the extent of one build entry along its axis.
type span struct {
	lo, hi float64
}

// plasmaRun locates the plasma entry. A build has exactly one.
type plasmaRun struct {
	start, end int // entries [start, end), end = start+1
	lo, hi     float64
}

func (p plasmaRun) thickness() float64 { return p.hi - p.lo }

// scan validates a build and returns the span of every entry and the
// plasma entry.
func scan(kind string, layers []Layer) ([]span, plasmaRun, error) {
	if len(layers) == 0 {
		return nil, plasmaRun{}, invalid(kind, -1, "build is empty")
	}

	spans := make([]span, len(layers))
	run := plasmaRun{start: -1, end: -1}
	pos := 0.0
	for i, l := range layers {
		if math.IsNaN(l.Thickness) || math.IsInf(l.Thickness, 0) || l.Thickness <= 0 {
			return nil, plasmaRun{}, invalid(kind, i, "thickness must be positive, got %g", l.Thickness)
		}
		switch l.Type {
		case LayerGap, LayerSolid:
		case LayerPlasma:
			if run.start >= 0 {
				return nil, plasmaRun{}, invalid(kind, i, "second plasma entry, the plasma is already entry %d", run.start)
			}
			run.start, run.end = i, i+1
		default:
			return nil, plasmaRun{}, invalid(kind, i, "unknown layer type %d", int(l.Type))
		}
		spans[i] = span{lo: pos, hi: pos + l.Thickness}
		pos += l.Thickness
	}
	if run.start < 0 {
		return nil, plasmaRun{}, invalid(kind, -1, "no plasma layer")
	}
	run.lo = spans[run.start].lo
	run.hi = spans[run.start].hi
	return spans, run, nil
}

// rankedOffsets returns the offsets of the solid layers on each side of
// the plasma, nearest first.
func rankedOffsets(layers []Layer, spans []span, run plasmaRun) (below, above []span) {
	for i := run.start - 1; i >= 0; i-- {
		if layers[i].Type == LayerSolid {
			below = append(below, span{lo: run.lo - spans[i].hi, hi: run.lo - spans[i].lo})
		}
	}
	for i := run.end; i < len(layers); i++ {
		if layers[i].Type == LayerSolid {
			above = append(above, span{lo: spans[i].lo - run.hi, hi: spans[i].hi - run.hi})
		}
	}
	return below, above
}

func validateShape(s ShapeParameters, family Family) (ShapeParameters, error) {
	if s.RotationAngle == 0 {
		s.RotationAngle = 360
	}
	if math.IsNaN(s.RotationAngle) || s.RotationAngle < 0 || s.RotationAngle > 360 {
		return s, invalid("shape", -1, "rotation angle must be in (0, 360] degrees, got %g", s.RotationAngle)
	}
	if math.IsNaN(s.Triangularity) || math.Abs(s.Triangularity) >= 1 {
		return s, invalid("shape", -1, "triangularity must be in (-1, 1), got %g", s.Triangularity)
	}
	if family != FamilyTokamak && (math.IsNaN(s.Elongation) || s.Elongation <= 0) {
		return s, invalid("shape", -1, "elongation must be positive, got %g", s.Elongation)
	}
	return s, nil
}

// Validate checks a request without producing profiles.
func Validate(req Request) error {
	_, err := Resolve(req)
	return err
}

// Resolve turns a build request into one profile per non-gap entry, in
// build order, with solid layers named layer_1, layer_2, ... sequentially
// across the whole radial build and the plasma named "plasma". A build holds
// exactly one plasma entry. Resolve never modifies req.
func Resolve(req Request) (*Resolution, error) {
	if req.Family < FamilyTokamakFromPlasma || req.Family > FamilyTokamak {
		return nil, invalid("shape", -1, "unknown reactor family %d", int(req.Family))
	}
	shape, err := validateShape(req.Shape, req.Family)
	if err != nil {
		return nil, err
	}

	spans, run, err := scan("radial", req.Radial)
	if err != nil {
		return nil, err
	}
	inboard, outboard := rankedOffsets(req.Radial, spans, run)

	minor := run.thickness() / 2
	b := boundary{
		major:         run.lo + minor,
		minor:         minor,
		elongation:    shape.Elongation,
		triangularity: shape.Triangularity,
	}

	// Vertical offsets default to the radial ones.
	up := func(rank int, fallback span) span { return fallback }
	low := up
	if req.Family == FamilyTokamak {
		if len(req.Vertical) == 0 {
			return nil, invalid("vertical", -1, "tokamak family requires a vertical build")
		}
		vspans, vrun, err := scan("vertical", req.Vertical)
		if err != nil {
			return nil, err
		}
		b.elongation = vrun.thickness() / run.thickness()
		below, above := rankedOffsets(req.Vertical, vspans, vrun)
		up = pick(above)
		low = pick(below)
	}

	n := req.CurvePoints
	if n <= 0 {
		n = DefaultCurvePoints
	}

	shells := make(map[int]shell, len(req.Radial))
	for rank, i := 0, run.start-1; i >= 0; i-- {
		if req.Radial[i].Type != LayerSolid {
			continue
		}
		r := inboard[rank]
		shells[i] = shell{
			near: offsets{d: r.lo, vUp: up(rank, r).lo, vLow: low(rank, r).lo},
			far:  offsets{d: r.hi, vUp: up(rank, r).hi, vLow: low(rank, r).hi},
		}
		rank++
	}
	for rank, i := 0, run.end; i < len(req.Radial); i++ {
		if req.Radial[i].Type != LayerSolid {
			continue
		}
		r := outboard[rank]
		shells[i] = shell{
			near: offsets{d: r.lo, vUp: up(rank, r).lo, vLow: low(rank, r).lo},
			far:  offsets{d: r.hi, vUp: up(rank, r).hi, vLow: low(rank, r).hi},
		}
		rank++
	}

	// Spherical machines: the column is as tall as the outermost cap and
	// the caps end at the column's outer face.
	columnTop, columnBottom := b.top(offsets{}), b.bottom(offsets{})
	column := 0.0
	for i, s := range shells {
		if i >= run.end {
			columnTop = math.Max(columnTop, b.top(s.far))
			columnBottom = math.Max(columnBottom, b.bottom(s.far))
		} else {
			column = math.Max(column, spans[i].hi)
		}
	}

	res := &Resolution{
		MajorRadius:   b.major,
		MinorRadius:   b.minor,
		Elongation:    b.elongation,
		Triangularity: b.triangularity,
		RotationAngle: shape.RotationAngle,
	}

	layer := 0
	for i, l := range req.Radial {
		p := Profile{BuildIndex: i, Kind: l.Type}
		switch {
		case l.Type == LayerGap:
			continue
		case l.Type == LayerPlasma:
			p.Name = PlasmaName
			p.Side = SideCore
			p.Color = paint.Plasma
			p.Points = b.closed(n, offsets{})
		default:
			layer++
			p.Name = LayerName(layer)
			p.LayerIndex = layer
			p.Color = paint.Layer(layer)
			s := shells[i]
			inner := i < run.start
			if inner {
				p.Side = SideInboard
			} else {
				p.Side = SideOutboard
			}
			switch {
			case req.Family == FamilySphericalTokamakFromPlasma && inner:
				p.Points = rect(spans[i].lo, spans[i].hi, -columnBottom, columnTop)
			case req.Family == FamilySphericalTokamakFromPlasma:
				p.Points = b.columnCap(n, s, column)
			case inner:
				p.Points = b.halfShell(math.Pi/2, 3*math.Pi/2, n, s)
			default:
				p.Points = b.halfShell(-math.Pi/2, math.Pi/2, n, s)
			}
		}
		if c, ok := req.Colors[p.Name]; ok {
			p.Color = c
		}
		res.Profiles = append(res.Profiles, p)
	}

	return res, nil
}

// pick returns a lookup of vertical offsets by rank that falls back to the
// radial offsets when the vertical build has fewer solid layers.
func pick(ranked []span) func(int, span) span {
	return func(rank int, fallback span) span {
		if rank < len(ranked) {
			return ranked[rank]
		}
		return fallback
	}
}
