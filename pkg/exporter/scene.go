// Package exporter converts an in-memory host scene into a document,
// appending vertex payloads to the document's buffer and wiring skins
// with at most four bone influences per vertex.
package exporter

// Scene is the host-side scene to export: a node hierarchy plus the mesh
// pool the nodes index into.
type Scene struct {
	Name   string
	Root   *Node
	Meshes []*Mesh
}

// Node is one element of the host hierarchy. MeshIndices index into the
// owning Scene's mesh pool.
type Node struct {
	Name        string
	Children    []*Node
	MeshIndices []int
	Matrix      *[16]float64
}

// Mesh is host-side geometry. Positions are mandatory; normals and
// texture coordinates are exported when present and must then match the
// vertex count.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Indices   []uint16
	Bones     []*Bone
	Material  *Material
}

// Bone attaches a set of weighted vertices to a named skeleton node. The
// name must match a Node in the exported hierarchy.
type Bone struct {
	Name         string
	OffsetMatrix [16]float32
	Weights      []VertexWeight
}

// VertexWeight is one bone's influence on one vertex.
type VertexWeight struct {
	Vertex int
	Weight float32
}

// Material is a host-side surface description.
type Material struct {
	Name         string
	Ambient      [4]float64
	Diffuse      [4]float64
	Specular     [4]float64
	Emission     [4]float64
	Transparency *float64
	Shininess    float64
}
