package asset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildDocument assembles a small skinned-triangle document by hand.
func buildDocument(t *testing.T) (*Document, []float32) {
	t.Helper()
	doc := NewDocument()

	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}

	buf, err := doc.Buffers.Create("buffer")
	require.NoError(t, err)
	off := buf.AppendData(floatBytes(positions...))

	view, err := doc.BufferViews.Create("view_pos")
	require.NoError(t, err)
	view.Buffer = buf
	view.ByteOffset = off
	view.ByteLength = len(positions) * 4
	view.Target = TargetArrayBuffer

	acc, err := doc.Accessors.Create("acc_pos")
	require.NoError(t, err)
	acc.BufferView = view
	acc.ComponentType = ComponentFloat
	acc.Count = 3
	acc.Type = TypeVec3

	mat, err := doc.Materials.Create("mat")
	require.NoError(t, err)
	mat.Diffuse.Color = []float64{1, 0, 0, 1}
	mat.Shininess = 8

	mesh, err := doc.Meshes.Create("mesh")
	require.NoError(t, err)
	mesh.Primitives = []Primitive{{
		Mode:       ModeTriangles,
		Attributes: Attributes{Position: AccessorList{acc}},
		Material:   mat,
	}}

	joint, err := doc.Nodes.Create("joint0")
	require.NoError(t, err)
	joint.JointName = "joint0"

	skin, err := doc.Skins.Create("skin")
	require.NoError(t, err)
	skin.JointNames = []*Node{joint}

	root, err := doc.Nodes.Create("root")
	require.NoError(t, err)
	root.Meshes = []*Mesh{mesh}
	root.Skin = skin
	root.Children = []*Node{joint}
	joint.Parent = root

	scene, err := doc.Scenes.Create("scene")
	require.NoError(t, err)
	scene.Nodes = []*Node{root}
	doc.Scene = scene

	return doc, positions
}

func TestSaveRoundTrip(t *testing.T) {
	doc, positions := buildDocument(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "model.gltf")
	require.NoError(t, doc.Save(path))

	// The buffer's contents land in a side-file next to the manifest.
	side, err := os.ReadFile(filepath.Join(dir, "buffer.bin"))
	require.NoError(t, err)
	require.Equal(t, floatBytes(positions...), side)

	loaded, err := Load(path, false)
	require.NoError(t, err)

	require.NotNil(t, loaded.Scene)
	require.Equal(t, "scene", loaded.Scene.ID)
	require.Equal(t, "1.0", loaded.Asset.Version)

	root := loaded.Scene.Nodes[0]
	require.Equal(t, "root", root.ID)
	require.Len(t, root.Children, 1)
	require.Equal(t, root, root.Children[0].Parent)

	prim := root.Meshes[0].Primitives[0]
	got, err := prim.Attributes.Position[0].Float32s()
	require.NoError(t, err)
	require.Equal(t, positions, got)

	require.NotNil(t, prim.Material)
	require.Equal(t, []float64{1, 0, 0, 1}, prim.Material.Diffuse.Color)
	require.Equal(t, float64(8), prim.Material.Shininess)

	require.NotNil(t, root.Skin)
	require.Len(t, root.Skin.JointNames, 1)
	require.Equal(t, "joint0", root.Skin.JointNames[0].JointName)
}

func TestSaveBinaryRoundTrip(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.SetAsBinary())

	body := doc.BodyBuffer()
	off := body.AppendData(floatBytes(1, 2, 3))

	view, err := doc.BufferViews.Create("view")
	require.NoError(t, err)
	view.Buffer = body
	view.ByteOffset = off
	view.ByteLength = 12

	acc, err := doc.Accessors.Create("acc")
	require.NoError(t, err)
	acc.BufferView = view
	acc.ComponentType = ComponentFloat
	acc.Count = 3
	acc.Type = TypeScalar

	mesh, err := doc.Meshes.Create("mesh")
	require.NoError(t, err)
	mesh.Primitives = []Primitive{{
		Mode:       ModeTriangles,
		Attributes: Attributes{Position: AccessorList{acc}},
	}}

	node, err := doc.Nodes.Create("node")
	require.NoError(t, err)
	node.Meshes = []*Mesh{mesh}

	scene, err := doc.Scenes.Create("scene")
	require.NoError(t, err)
	scene.Nodes = []*Node{node}
	doc.Scene = scene

	path := filepath.Join(t.TempDir(), "model.glb")
	require.NoError(t, doc.SaveBinary(path))

	loaded, err := Load(path, true)
	require.NoError(t, err)

	require.Equal(t, doc.BodyBuffer().Bytes(), loaded.BodyBuffer().Bytes())
	got, err := loaded.Scene.Nodes[0].Meshes[0].Primitives[0].Attributes.Position[0].Float32s()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, got)
}
