// Package reactor builds reactor assemblies: it resolves a layer build into
// profiles, revolves each profile through a geometry kernel and collects
// the solids into an assembly carrying the reactor's shape metadata.
package reactor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/toroid/pkg/assembly"
	"github.com/chazu/toroid/pkg/build"
	"github.com/chazu/toroid/pkg/kernel"
	"github.com/chazu/toroid/pkg/paint"
)

// DefaultName is the root of part paths when a reactor has no name.
const DefaultName = "reactor"

// Builder turns build requests into assemblies.
type Builder struct {
	kernel kernel.Kernel
	logger *zap.Logger
}

// NewBuilder returns a builder revolving solids with k. A nil logger
// discards output.
func NewBuilder(k kernel.Kernel, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{kernel: k, logger: logger}
}

// PartPath returns the hierarchical part name of a profile.
func PartPath(reactor, profile string) string {
	if reactor == "" {
		reactor = DefaultName
	}
	return "/" + strings.Trim(reactor, "/") + "/" + profile
}

// Build resolves req and revolves every profile. Parts are named
// /<name>/<profile> and appear in build order. Kernel errors are returned
// wrapped with the profile name.
func (b *Builder) Build(ctx context.Context, name string, req build.Request) (*assembly.Assembly, error) {
	res, err := build.Resolve(req)
	if err != nil {
		return nil, err
	}

	a := assembly.New(assembly.Metadata{
		Elongation:    res.Elongation,
		Triangularity: res.Triangularity,
		MajorRadius:   res.MajorRadius,
		MinorRadius:   res.MinorRadius,
		RotationAngle: res.RotationAngle,
	}).WithLogger(b.logger)

	for _, p := range res.Profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pts := make([][2]float64, len(p.Points))
		for i, pt := range p.Points {
			pts[i] = [2]float64{pt.R, pt.Z}
		}
		solid, err := b.kernel.Revolve(pts, res.RotationAngle)
		if err != nil {
			return nil, fmt.Errorf("revolve %s: %w", p.Name, err)
		}
		part := assembly.Part{
			Solid:      solid,
			Name:       PartPath(name, p.Name),
			Color:      p.Color,
			LayerIndex: p.LayerIndex,
		}
		if err := a.Add(part); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("reactor built",
		zap.String("name", name),
		zap.Stringer("family", req.Family),
		zap.Int("parts", a.Len()),
		zap.Float64("major_radius", res.MajorRadius),
		zap.Float64("minor_radius", res.MinorRadius),
	)
	return a, nil
}

// TokamakFromPlasma builds a tokamak whose layers wrap a D-shaped plasma.
func (b *Builder) TokamakFromPlasma(ctx context.Context, name string, radial build.RadialBuild, shape build.ShapeParameters, colors map[string]paint.Color) (*assembly.Assembly, error) {
	return b.Build(ctx, name, build.Request{
		Family: build.FamilyTokamakFromPlasma,
		Radial: radial,
		Shape:  shape,
		Colors: colors,
	})
}

// SphericalTokamakFromPlasma builds a spherical tokamak with a straight
// center column.
func (b *Builder) SphericalTokamakFromPlasma(ctx context.Context, name string, radial build.RadialBuild, shape build.ShapeParameters, colors map[string]paint.Color) (*assembly.Assembly, error) {
	return b.Build(ctx, name, build.Request{
		Family: build.FamilySphericalTokamakFromPlasma,
		Radial: radial,
		Shape:  shape,
		Colors: colors,
	})
}

// Tokamak builds a tokamak from radial and vertical builds. Elongation is
// derived from the builds, so shape.Elongation is ignored.
func (b *Builder) Tokamak(ctx context.Context, name string, radial build.RadialBuild, vertical build.VerticalBuild, shape build.ShapeParameters, colors map[string]paint.Color) (*assembly.Assembly, error) {
	return b.Build(ctx, name, build.Request{
		Family:   build.FamilyTokamak,
		Radial:   radial,
		Vertical: vertical,
		Shape:    shape,
		Colors:   colors,
	})
}
