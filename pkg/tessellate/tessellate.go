// Package tessellate turns a filtered assembly into triangle meshes using a
// geometry kernel. One mesh is produced per part, tagged with the part's
// material and color.
package tessellate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/toroid/pkg/assembly"
	"github.com/chazu/toroid/pkg/kernel"
)

// ErrMaterialTagMismatch is returned when the material tags do not line up
// one to one with the assembly's parts.
var ErrMaterialTagMismatch = errors.New("material tags do not match parts")

// Options controls tessellation.
type Options struct {
	// Mesh bounds the element edge length.
	Mesh kernel.MeshOptions
	// MaterialTags holds one tag per part in assembly order. Empty means
	// each part is tagged with its simple name.
	MaterialTags []string
	// MergeByTag unions all parts sharing a tag into a single mesh, in order
	// of first appearance.
	MergeByTag bool
	Logger     *zap.Logger
}

// Tags returns the material tag of every part, checking alignment.
func Tags(a *assembly.Assembly, tags []string) ([]string, error) {
	if len(tags) == 0 {
		return a.Names(), nil
	}
	if len(tags) != a.Len() {
		return nil, fmt.Errorf("%w: %d tags for %d parts", ErrMaterialTagMismatch, len(tags), a.Len())
	}
	for i, t := range tags {
		if t == "" {
			return nil, fmt.Errorf("%w: tag %d is empty", ErrMaterialTagMismatch, i)
		}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out, nil
}

// placed applies a part's location: rotation first, then translation.
func placed(k kernel.Kernel, p assembly.Part) kernel.Solid {
	solid := p.Solid
	rot := p.Location.Rotation
	if rot != [3]float64{} {
		solid = k.Rotate(solid, rot[0], rot[1], rot[2])
	}
	trans := p.Location.Translation
	if trans != [3]float64{} {
		solid = k.Translate(solid, trans[0], trans[1], trans[2])
	}
	return solid
}

// Tessellate meshes every part of a. It is read-only and never mutates the
// assembly. Kernel errors are returned wrapped with the part name.
func Tessellate(ctx context.Context, a *assembly.Assembly, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if a == nil {
		return nil, nil
	}
	if err := opts.Mesh.Validate(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tags, err := Tags(a, opts.MaterialTags)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	parts := a.Parts()
	if opts.MergeByTag {
		parts, tags = mergeByTag(k, parts, tags)
	}

	meshes := make([]*kernel.Mesh, 0, len(parts))
	for i, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mesh, err := k.ToMesh(placed(k, p), opts.Mesh)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", p.Name, err)
		}
		mesh.PartName = p.Name
		mesh.Material = tags[i]
		mesh.Color = p.Color
		if mesh.IsEmpty() {
			logger.Warn("part produced an empty mesh", zap.String("part", p.Name))
		}
		meshes = append(meshes, mesh)
	}

	logger.Debug("tessellated", zap.Int("parts", a.Len()), zap.Int("meshes", len(meshes)))
	return meshes, nil
}

// mergeByTag collapses parts sharing a tag into one part whose solid is the
// union of theirs. The merged part is named after the tag and keeps the
// color of its first member.
func mergeByTag(k kernel.Kernel, parts []assembly.Part, tags []string) ([]assembly.Part, []string) {
	index := make(map[string]int)
	var merged []assembly.Part
	var mergedTags []string
	for i, p := range parts {
		solid := placed(k, p)
		j, ok := index[tags[i]]
		if !ok {
			index[tags[i]] = len(merged)
			merged = append(merged, assembly.Part{Solid: solid, Name: tags[i], Color: p.Color, LayerIndex: p.LayerIndex})
			mergedTags = append(mergedTags, tags[i])
			continue
		}
		merged[j].Solid = k.Union(merged[j].Solid, solid)
	}
	return merged, mergedTags
}
