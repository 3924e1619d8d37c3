package exporter

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/goopsie/gltfkit/pkg/asset"
)

// Exporter builds one document from one host scene. Not reusable across
// scenes: create a fresh Exporter per export.
type Exporter struct {
	log    *zap.Logger
	binary bool

	doc  *asset.Document
	body *asset.Buffer

	meshes     []*asset.Mesh
	nodeByName map[string]*asset.Node
	materials  map[*Material]*asset.Material

	// payload content hash -> bufferView, so identical payloads share
	// one buffer range.
	views map[uint64]*asset.BufferView
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for tolerated export conditions.
func WithLogger(log *zap.Logger) Option {
	return func(e *Exporter) { e.log = log }
}

// WithBinary makes the exported document carry its payload in the
// embedded body buffer instead of a side-file buffer.
func WithBinary() Option {
	return func(e *Exporter) { e.binary = true }
}

// New creates an exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		log:        zap.NewNop(),
		nodeByName: make(map[string]*asset.Node),
		materials:  make(map[*Material]*asset.Material),
		views:      make(map[uint64]*asset.BufferView),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export converts the host scene into a document ready for Save or
// SaveBinary.
func (e *Exporter) Export(scene *Scene) (*asset.Document, error) {
	e.doc = asset.NewDocument(asset.WithLogger(e.log))
	e.doc.Asset.Generator = "gltfkit"

	if e.binary {
		if err := e.doc.SetAsBinary(); err != nil {
			return nil, err
		}
		e.body = e.doc.BodyBuffer()
	} else {
		body, err := e.doc.Buffers.Create(e.doc.FindUniqueID(scene.Name, "buffer"))
		if err != nil {
			return nil, err
		}
		e.body = body
	}

	for i, mesh := range scene.Meshes {
		exported, err := e.exportMesh(mesh)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		e.meshes = append(e.meshes, exported)
	}

	if scene.Root != nil {
		root, err := e.exportNode(scene.Root)
		if err != nil {
			return nil, err
		}
		sc, err := e.doc.Scenes.Create(e.doc.FindUniqueID(scene.Name, "scene"))
		if err != nil {
			return nil, err
		}
		sc.Nodes = []*asset.Node{root}
		e.doc.Scene = sc
	}

	for i, mesh := range scene.Meshes {
		if len(mesh.Bones) == 0 {
			continue
		}
		if err := e.exportSkin(mesh, e.meshes[i]); err != nil {
			return nil, fmt.Errorf("mesh %d skin: %w", i, err)
		}
	}
	return e.doc, nil
}

// exportNode recursively mirrors the host hierarchy into the document.
func (e *Exporter) exportNode(n *Node) (*asset.Node, error) {
	node, err := e.doc.Nodes.Create(e.doc.FindUniqueID(n.Name, "node"))
	if err != nil {
		return nil, err
	}
	node.Name = n.Name
	node.Matrix = n.Matrix
	if n.Name != "" {
		e.nodeByName[n.Name] = node
	}

	for _, idx := range n.MeshIndices {
		if idx < 0 || idx >= len(e.meshes) {
			return nil, fmt.Errorf("%w: mesh index %d on node %q", asset.ErrNotFound, idx, n.Name)
		}
		node.Meshes = append(node.Meshes, e.meshes[idx])
	}
	for _, c := range n.Children {
		child, err := e.exportNode(c)
		if err != nil {
			return nil, err
		}
		child.Parent = node
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// exportMesh writes one host mesh's vertex streams as accessors and
// assembles its single primitive.
func (e *Exporter) exportMesh(m *Mesh) (*asset.Mesh, error) {
	mesh, err := e.doc.Meshes.Create(e.doc.FindUniqueID(m.Name, "mesh"))
	if err != nil {
		return nil, err
	}
	mesh.Name = m.Name

	prim := asset.Primitive{Mode: asset.ModeTriangles}

	pos, err := e.exportData(m.Name, len(m.Positions), vec3Bytes(m.Positions),
		asset.ComponentFloat, asset.TypeVec3, asset.TargetArrayBuffer)
	if err != nil {
		return nil, err
	}
	prim.Attributes.Position = asset.AccessorList{pos}

	if len(m.Normals) > 0 {
		if len(m.Normals) != len(m.Positions) {
			return nil, fmt.Errorf("%w: mesh %q: %d normals for %d vertices",
				asset.ErrInvalidDocument, m.Name, len(m.Normals), len(m.Positions))
		}
		nrm, err := e.exportData(m.Name, len(m.Normals), vec3Bytes(m.Normals),
			asset.ComponentFloat, asset.TypeVec3, asset.TargetArrayBuffer)
		if err != nil {
			return nil, err
		}
		prim.Attributes.Normal = asset.AccessorList{nrm}
	}
	if len(m.TexCoords) > 0 {
		if len(m.TexCoords) != len(m.Positions) {
			return nil, fmt.Errorf("%w: mesh %q: %d texcoords for %d vertices",
				asset.ErrInvalidDocument, m.Name, len(m.TexCoords), len(m.Positions))
		}
		uv, err := e.exportData(m.Name, len(m.TexCoords), vec2Bytes(m.TexCoords),
			asset.ComponentFloat, asset.TypeVec2, asset.TargetArrayBuffer)
		if err != nil {
			return nil, err
		}
		prim.Attributes.TexCoord = asset.AccessorList{uv}
	}
	if len(m.Indices) > 0 {
		idx, err := e.exportData(m.Name, len(m.Indices), uint16Bytes(m.Indices),
			asset.ComponentUnsignedShort, asset.TypeScalar, asset.TargetElementArrayBuffer)
		if err != nil {
			return nil, err
		}
		prim.Indices = idx
	}
	if m.Material != nil {
		mat, err := e.exportMaterial(m.Material)
		if err != nil {
			return nil, err
		}
		prim.Material = mat
	}

	mesh.Primitives = []asset.Primitive{prim}
	return mesh, nil
}

// exportMaterial converts a host material, reusing the converted object
// when several meshes share one.
func (e *Exporter) exportMaterial(m *Material) (*asset.Material, error) {
	if mat, ok := e.materials[m]; ok {
		return mat, nil
	}
	mat, err := e.doc.Materials.Create(e.doc.FindUniqueID(m.Name, "material"))
	if err != nil {
		return nil, err
	}
	mat.Name = m.Name
	mat.Ambient.Color = m.Ambient[:]
	mat.Diffuse.Color = m.Diffuse[:]
	mat.Specular.Color = m.Specular[:]
	mat.Emission.Color = m.Emission[:]
	mat.Transparency = m.Transparency
	mat.Shininess = m.Shininess
	e.materials[m] = mat
	return mat, nil
}

// exportData appends one dense payload to the body buffer and returns an
// accessor over it. Identical payloads share one bufferView; each call
// still gets its own accessor.
func (e *Exporter) exportData(name string, count int, data []byte,
	comp asset.ComponentType, shape asset.AttribType, target asset.BufferViewTarget) (*asset.Accessor, error) {

	hash := xxhash.Sum64(data)
	view, ok := e.views[hash]
	if ok && view.ByteLength != len(data) {
		ok = false // hash collision, fall through to a fresh range
	}
	if !ok {
		v, err := e.doc.BufferViews.Create(e.doc.FindUniqueID(name, "view"))
		if err != nil {
			return nil, err
		}
		v.Buffer = e.body
		v.ByteOffset = e.body.Length()
		v.ByteLength = len(data)
		v.Target = target
		e.body.Grow(len(data))
		view = v
		e.views[hash] = v
	}

	acc, err := e.doc.Accessors.Create(e.doc.FindUniqueID(name, "accessor"))
	if err != nil {
		return nil, err
	}
	acc.BufferView = view
	acc.ComponentType = comp
	acc.Count = count
	acc.Type = shape

	if !ok {
		if err := acc.WriteData(count, data, acc.ElementSize()); err != nil {
			return nil, err
		}
	}
	if comp == asset.ComponentFloat {
		acc.Min, acc.Max = floatMinMax(data, acc.NumComponents(), count)
	}
	return acc, nil
}

// floatMinMax computes the per-component bounds of a dense float payload.
func floatMinMax(data []byte, numComp, count int) (min, max []float64) {
	if count == 0 {
		return nil, nil
	}
	min = make([]float64, numComp)
	max = make([]float64, numComp)
	for c := range min {
		min[c] = math.Inf(1)
		max[c] = math.Inf(-1)
	}
	for i := 0; i < count; i++ {
		for c := 0; c < numComp; c++ {
			bits := binary.LittleEndian.Uint32(data[(i*numComp+c)*4:])
			v := float64(math.Float32frombits(bits))
			if v < min[c] {
				min[c] = v
			}
			if v > max[c] {
				max[c] = v
			}
		}
	}
	return min, max
}

func vec3Bytes(vals [][3]float32) []byte {
	out := make([]byte, 12*len(vals))
	for i, v := range vals {
		for c, f := range v {
			binary.LittleEndian.PutUint32(out[(i*3+c)*4:], math.Float32bits(f))
		}
	}
	return out
}

func vec2Bytes(vals [][2]float32) []byte {
	out := make([]byte, 8*len(vals))
	for i, v := range vals {
		for c, f := range v {
			binary.LittleEndian.PutUint32(out[(i*2+c)*4:], math.Float32bits(f))
		}
	}
	return out
}

func uint16Bytes(vals []uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func vec4Bytes(vals [][4]float32) []byte {
	out := make([]byte, 16*len(vals))
	for i, v := range vals {
		for c, f := range v {
			binary.LittleEndian.PutUint32(out[(i*4+c)*4:], math.Float32bits(f))
		}
	}
	return out
}

func mat4Bytes(vals [][16]float32) []byte {
	out := make([]byte, 64*len(vals))
	for i, v := range vals {
		for c, f := range v {
			binary.LittleEndian.PutUint32(out[(i*16+c)*4:], math.Float32bits(f))
		}
	}
	return out
}
