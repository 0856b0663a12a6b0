// Package assembly holds revolved reactor solids as named, colored,
// positioned parts together with the shape metadata of the reactor they
// came from.
//
// An Assembly is filled once during construction and afterwards only
// filtered: Filter and Remove return a new Assembly and never touch the
// receiver. Solids are immutable handles, so filtered assemblies share
// them with their source.
package assembly

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/toroid/pkg/kernel"
	"github.com/chazu/toroid/pkg/paint"
)

// ErrEmptyAssembly is returned by aggregate queries on an assembly with no
// parts.
var ErrEmptyAssembly = errors.New("assembly has no parts")

// PartNotFoundWarning reports that Filter matched nothing. It is
// recoverable: the assembly returned alongside it is complete.
type PartNotFoundWarning struct {
	Name string
}

func (w *PartNotFoundWarning) Error() string {
	return fmt.Sprintf("no part named %q to remove", w.Name)
}

// Location places a part. Rotation is Euler degrees applied X, then Y, then
// Z, before Translation.
type Location struct {
	Translation [3]float64 `json:"translation"`
	Rotation    [3]float64 `json:"rotation"`
}

// IsIdentity reports whether the location leaves a solid where it is.
func (l Location) IsIdentity() bool {
	return l == Location{}
}

// Part is one solid in an assembly.
type Part struct {
	Solid      kernel.Solid `json:"-"`
	Name       string       `json:"name"` // hierarchical path, e.g. /reactor/layer_3
	Location   Location     `json:"location"`
	Color      paint.Color  `json:"color"`
	LayerIndex int          `json:"layer_index,omitempty"`
}

// SimpleName returns the last segment of the part's path.
func (p Part) SimpleName() string {
	if i := strings.LastIndexByte(p.Name, '/'); i >= 0 {
		return p.Name[i+1:]
	}
	return p.Name
}

// matches reports whether name is the part's simple name.
func (p Part) matches(name string) bool {
	return p.SimpleName() == name
}

// BoundingBox returns the part's box after its location is applied.
func (p Part) BoundingBox() (min, max [3]float64) {
	min, max = p.Solid.BoundingBox()
	if p.Location.IsIdentity() {
		return min, max
	}
	return kernel.TransformBox(min, max, p.Location.Rotation, p.Location.Translation)
}

// Metadata describes the reactor shape an assembly was built from. It is
// carried along verbatim by filtering.
type Metadata struct {
	Elongation    float64 `json:"elongation"`
	Triangularity float64 `json:"triangularity"`
	MajorRadius   float64 `json:"major_radius"`
	MinorRadius   float64 `json:"minor_radius"`
	RotationAngle float64 `json:"rotation_angle"`
}

// Assembly is an ordered collection of parts.
type Assembly struct {
	Metadata Metadata

	parts  []Part
	logger *zap.Logger
}

// New returns an empty assembly carrying meta.
func New(meta Metadata) *Assembly {
	return &Assembly{Metadata: meta, logger: zap.NewNop()}
}

// WithLogger sets the logger used for warnings and returns the assembly.
func (a *Assembly) WithLogger(l *zap.Logger) *Assembly {
	if l == nil {
		l = zap.NewNop()
	}
	a.logger = l
	return a
}

// Add appends a part. Parts are added once each while the assembly is
// being constructed.
func (a *Assembly) Add(p Part) error {
	if p.Solid == nil {
		return fmt.Errorf("part %q has no solid", p.Name)
	}
	if p.Name == "" {
		return errors.New("part has no name")
	}
	a.parts = append(a.parts, p)
	return nil
}

// Parts returns a copy of the parts in order.
func (a *Assembly) Parts() []Part {
	out := make([]Part, len(a.parts))
	copy(out, a.parts)
	return out
}

// Len returns the number of parts.
func (a *Assembly) Len() int {
	return len(a.parts)
}

// Names returns the simple name of every part in order. Duplicates are
// kept.
func (a *Assembly) Names() []string {
	names := make([]string, len(a.parts))
	for i, p := range a.parts {
		names[i] = p.SimpleName()
	}
	return names
}

// Lookup returns the first part whose simple name is name.
func (a *Assembly) Lookup(name string) (Part, bool) {
	for _, p := range a.parts {
		if p.matches(name) {
			return p, true
		}
	}
	return Part{}, false
}

// Filter returns a new assembly without the parts whose simple name equals
// name. Matching is exact and case-sensitive. When nothing matched, the copy
// is returned together with a *PartNotFoundWarning.
func (a *Assembly) Filter(name string) (*Assembly, error) {
	out := &Assembly{Metadata: a.Metadata, logger: a.logger}
	out.parts = make([]Part, 0, len(a.parts))
	if name == "" {
		out.parts = append(out.parts, a.parts...)
		return out, errors.New("remove: empty part name")
	}

	removed := 0
	for _, p := range a.parts {
		if p.matches(name) {
			removed++
			continue
		}
		out.parts = append(out.parts, p)
	}
	if removed == 0 {
		return out, &PartNotFoundWarning{Name: name}
	}
	return out, nil
}

// Remove is Filter with the not-found case logged as a warning instead of
// returned.
func (a *Assembly) Remove(name string) *Assembly {
	out, err := a.Filter(name)
	if err != nil {
		a.logger.Warn("part not removed", zap.String("name", name), zap.Error(err))
	}
	return out
}

// Place returns a copy with every part moved to loc. Parts keep no earlier
// location.
func (a *Assembly) Place(loc Location) *Assembly {
	out := &Assembly{Metadata: a.Metadata, logger: a.logger}
	out.parts = make([]Part, len(a.parts))
	for i, p := range a.parts {
		p.Location = loc
		out.parts[i] = p
	}
	return out
}

// BoundingBox returns the smallest axis-aligned box enclosing every located
// part.
func (a *Assembly) BoundingBox() (min, max [3]float64, err error) {
	if len(a.parts) == 0 {
		return min, max, ErrEmptyAssembly
	}
	min, max = a.parts[0].BoundingBox()
	for _, p := range a.parts[1:] {
		pMin, pMax := p.BoundingBox()
		min, max = kernel.Expand(min, max, pMin, pMax)
	}
	return min, max, nil
}

// Center returns the midpoint of the bounding box.
func (a *Assembly) Center() ([3]float64, error) {
	min, max, err := a.BoundingBox()
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2, (min[2] + max[2]) / 2}, nil
}
