package neutronics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/chazu/toroid/pkg/assembly"
)

// ErrEmptySource is returned by NewPlan when no source can be placed.
var ErrEmptySource = errors.New("plan has no source")

// Settings are the run controls of a fixed-source simulation.
type Settings struct {
	Batches   int    `json:"batches" yaml:"batches" validate:"gt=0"`
	Particles int    `json:"particles" yaml:"particles" validate:"gt=0"`
	RunMode   string `json:"run_mode" yaml:"run_mode"`
}

// DefaultSettings returns a short fixed source run.
func DefaultSettings() Settings {
	return Settings{Batches: 10, Particles: 10000, RunMode: "fixed source"}
}

// Plan collects everything a transport run needs besides the mesh file.
type Plan struct {
	Reactor      string            `json:"reactor"`
	Metadata     assembly.Metadata `json:"metadata"`
	BoundingBox  [2][3]float64     `json:"bounding_box"`
	MaterialTags []string          `json:"material_tags"`
	Ring         *RingSource       `json:"ring_source,omitempty"`
	Point        *PointSource      `json:"point_source,omitempty"`
	Facility     *Facility         `json:"facility,omitempty"`
	Tally        *TallyMesh        `json:"tally_mesh,omitempty"`
	Settings     Settings          `json:"settings"`
}

// PlanOptions selects what NewPlan derives.
type PlanOptions struct {
	// Facility, when set, surrounds the reactor and lifts the ring source to
	// the reactor's midplane inside it.
	Facility *FacilityOptions
	// Point adds a nudged point source at the bounding-box center.
	Point    bool
	Settings Settings
}

// NewPlan derives a plan from a meshed assembly. tags must be the material
// tags the assembly was meshed with.
func NewPlan(name string, a *assembly.Assembly, tags []string, opts PlanOptions) (*Plan, error) {
	min, max, err := a.BoundingBox()
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", name, err)
	}
	if len(tags) != a.Len() {
		return nil, fmt.Errorf("plan %s: %d material tags for %d parts", name, len(tags), a.Len())
	}

	p := &Plan{
		Reactor:      name,
		Metadata:     a.Metadata,
		BoundingBox:  [2][3]float64{min, max},
		MaterialTags: append([]string(nil), tags...),
		Settings:     opts.Settings,
	}
	if p.Settings == (Settings{}) {
		p.Settings = DefaultSettings()
	}

	z := 0.0
	if opts.Facility != nil {
		f, err := NewFacility(a, *opts.Facility)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", name, err)
		}
		p.Facility = &f
		z = f.Offset
	}
	if a.Metadata.MajorRadius > 0 {
		ring, err := NewRingSource(a, z)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", name, err)
		}
		p.Ring = &ring
		if p.Facility != nil {
			tally := p.Facility.Mesh(ring.PhiMax)
			p.Tally = &tally
		}
	}
	if opts.Point {
		pt, err := NewPointSource(a)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", name, err)
		}
		p.Point = &pt
	}
	if p.Ring == nil && p.Point == nil {
		return nil, fmt.Errorf("plan %s: %w", name, ErrEmptySource)
	}
	return p, nil
}

// WriteJSON writes the plan as indented JSON.
func (p *Plan) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
