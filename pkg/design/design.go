// Package design holds the reactor descriptions produced by evaluating a
// reactor source file: which reactors to build, which parts to strip before
// meshing and the material tag of every part that remains.
package design

import (
	"github.com/chazu/toroid/pkg/assembly"
	"github.com/chazu/toroid/pkg/build"
)

// Reactor describes one reactor to construct.
type Reactor struct {
	Name    string        `json:"name"`
	Request build.Request `json:"request"`
	// Remove lists simple part names stripped from the assembly before
	// meshing, in order.
	Remove []string `json:"remove,omitempty"`
	// MaterialTags names the material of each remaining part in assembly
	// order. Empty means the part names are used as tags.
	MaterialTags []string          `json:"material_tags,omitempty"`
	Location     assembly.Location `json:"location"`
}

// Design is the immutable result of one evaluation. It is never mutated
// once evaluation returns; each evaluation produces a new design.
type Design struct {
	Reactors  []*Reactor     `json:"reactors"`
	NameIndex map[string]int `json:"name_index"`
	Version   uint64         `json:"version"`
}

// New creates an empty Design.
func New() *Design {
	return &Design{NameIndex: make(map[string]int)}
}

// Add appends a reactor. It does not check for duplicate names; Validate
// reports them.
func (d *Design) Add(r *Reactor) {
	if _, taken := d.NameIndex[r.Name]; !taken {
		d.NameIndex[r.Name] = len(d.Reactors)
	}
	d.Reactors = append(d.Reactors, r)
}

// Lookup returns the reactor with the given name, or nil.
func (d *Design) Lookup(name string) *Reactor {
	i, ok := d.NameIndex[name]
	if !ok {
		return nil
	}
	return d.Reactors[i]
}

// Len returns the number of reactors.
func (d *Design) Len() int {
	return len(d.Reactors)
}

// PartNames resolves the reactor's build and returns the simple names of the
// parts left after the removals, in assembly order.
func (r *Reactor) PartNames() ([]string, error) {
	res, err := build.Resolve(r.Request)
	if err != nil {
		return nil, err
	}
	removed := make(map[string]bool, len(r.Remove))
	for _, name := range r.Remove {
		removed[name] = true
	}
	var names []string
	for _, name := range res.Names() {
		if !removed[name] {
			names = append(names, name)
		}
	}
	return names, nil
}

// Tags returns the material tag of every remaining part: MaterialTags when
// set, otherwise the part names.
func (r *Reactor) Tags() ([]string, error) {
	if len(r.MaterialTags) > 0 {
		out := make([]string, len(r.MaterialTags))
		copy(out, r.MaterialTags)
		return out, nil
	}
	return r.PartNames()
}
