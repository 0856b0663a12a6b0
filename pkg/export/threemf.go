// Package export writes tagged meshes to disk as 3MF packages.
package export

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hpinc/go3mf"

	"github.com/chazu/toroid/pkg/kernel"
)

// ErrNoMeshes is returned when there is nothing to write.
var ErrNoMeshes = errors.New("no meshes to export")

// materialsID is the resource ID of the base material group. Objects are
// numbered after it.
const materialsID = 1

// Model builds a 3MF model with one object per mesh. Every distinct
// material tag becomes a base material, colored like the first mesh that
// carries it, and each object references its tag's material. Coordinates
// are in centimeters.
func Model(meshes []*kernel.Mesh) (*go3mf.Model, error) {
	if len(meshes) == 0 {
		return nil, ErrNoMeshes
	}

	model := &go3mf.Model{Units: go3mf.UnitCentimeter}
	base := &go3mf.BaseMaterials{ID: materialsID}
	index := make(map[string]uint32)

	for i, m := range meshes {
		if m.IsEmpty() {
			return nil, fmt.Errorf("mesh %d (%s) is empty", i, m.PartName)
		}
		if len(m.Indices)%3 != 0 {
			return nil, fmt.Errorf("mesh %d (%s): index count %d is not a multiple of 3", i, m.PartName, len(m.Indices))
		}

		tag := m.Material
		if tag == "" {
			tag = m.PartName
		}
		pindex, ok := index[tag]
		if !ok {
			r, g, b, a := m.Color.Bytes()
			pindex = uint32(len(base.Materials))
			index[tag] = pindex
			base.Materials = append(base.Materials, go3mf.Base{
				Name:  tag,
				Color: color.RGBA{R: r, G: g, B: b, A: a},
			})
		}

		mesh := &go3mf.Mesh{}
		mesh.Vertices.Vertex = make([]go3mf.Point3D, 0, m.VertexCount())
		for v := 0; v < m.VertexCount(); v++ {
			mesh.Vertices.Vertex = append(mesh.Vertices.Vertex, go3mf.Point3D(m.Vertex(v)))
		}
		mesh.Triangles.Triangle = make([]go3mf.Triangle, 0, m.TriangleCount())
		for t := 0; t < m.TriangleCount(); t++ {
			mesh.Triangles.Triangle = append(mesh.Triangles.Triangle, go3mf.Triangle{
				V1: m.Indices[3*t],
				V2: m.Indices[3*t+1],
				V3: m.Indices[3*t+2],
			})
		}

		id := uint32(materialsID + 1 + i)
		model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{
			ID:     id,
			Name:   m.PartName,
			PID:    materialsID,
			PIndex: pindex,
			Mesh:   mesh,
		})
		model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: id})
	}

	model.Resources.Assets = append(model.Resources.Assets, base)
	return model, nil
}

// Write3MF writes meshes to path as a 3MF package.
func Write3MF(path string, meshes []*kernel.Mesh) error {
	model, err := Model(meshes)
	if err != nil {
		return err
	}
	w, err := go3mf.CreateWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := w.Encode(model); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
