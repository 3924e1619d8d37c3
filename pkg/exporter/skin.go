package exporter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goopsie/gltfkit/pkg/asset"
)

// maxInfluences is the per-vertex bone influence cap. Influences beyond
// it are dropped in arrival order, without renormalizing the survivors.
const maxInfluences = 4

var identityMatrix = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// exportSkin converts a host mesh's bones into a skin: per-vertex joint
// index and weight accessors on the mesh's primitive, an inverse-bind
// matrix accessor, and skin/skeleton references on the node that draws
// the mesh.
func (e *Exporter) exportSkin(m *Mesh, mesh *asset.Mesh) error {
	numVerts := len(m.Positions)
	jointData := make([][4]float32, numVerts)
	weightData := make([][4]float32, numVerts)
	influences := make([]int, numVerts)

	var joints []*asset.Node
	var inverseBind [][16]float32
	jointIndex := make(map[string]int)

	for _, bone := range m.Bones {
		idx, ok := jointIndex[bone.Name]
		if !ok {
			node, found := e.nodeByName[bone.Name]
			if !found {
				return fmt.Errorf("%w: no node for bone %q", asset.ErrNotFound, bone.Name)
			}
			node.JointName = node.ID
			idx = len(joints)
			jointIndex[bone.Name] = idx
			joints = append(joints, node)
			inverseBind = append(inverseBind, bone.OffsetMatrix)
		}

		for _, w := range bone.Weights {
			if w.Vertex < 0 || w.Vertex >= numVerts {
				return fmt.Errorf("%w: bone %q weights vertex %d of %d",
					asset.ErrInvalidDocument, bone.Name, w.Vertex, numVerts)
			}
			slot := influences[w.Vertex]
			if slot >= maxInfluences {
				e.log.Warn("dropping bone influence beyond the per-vertex cap",
					zap.String("mesh", m.Name),
					zap.String("bone", bone.Name),
					zap.Int("vertex", w.Vertex))
				continue
			}
			jointData[w.Vertex][slot] = float32(idx)
			weightData[w.Vertex][slot] = w.Weight
			influences[w.Vertex] = slot + 1
		}
	}

	jointAcc, err := e.exportData(m.Name, numVerts, vec4Bytes(jointData),
		asset.ComponentFloat, asset.TypeVec4, asset.TargetArrayBuffer)
	if err != nil {
		return err
	}
	weightAcc, err := e.exportData(m.Name, numVerts, vec4Bytes(weightData),
		asset.ComponentFloat, asset.TypeVec4, asset.TargetArrayBuffer)
	if err != nil {
		return err
	}
	ibmAcc, err := e.exportData(m.Name, len(inverseBind), mat4Bytes(inverseBind),
		asset.ComponentFloat, asset.TypeMat4, asset.TargetNone)
	if err != nil {
		return err
	}

	skin, err := e.doc.Skins.Create(e.doc.FindUniqueID(m.Name, "skin"))
	if err != nil {
		return err
	}
	bind := identityMatrix
	skin.BindShapeMatrix = &bind
	skin.JointNames = joints
	skin.InverseBindMatrices = ibmAcc

	prim := &mesh.Primitives[0]
	prim.Attributes.Joint = asset.AccessorList{jointAcc}
	prim.Attributes.Weight = asset.AccessorList{weightAcc}

	node := e.findMeshNode(mesh)
	if node == nil {
		return fmt.Errorf("%w: no node draws mesh %q", asset.ErrNotFound, mesh.ID)
	}
	node.Skin = skin
	if len(joints) > 0 {
		node.Skeletons = []*asset.Node{skeletonRootJoint(joints[0])}
	}
	return nil
}

// findMeshNode locates the exported node that draws the given mesh.
func (e *Exporter) findMeshNode(mesh *asset.Mesh) *asset.Node {
	for i := 0; i < e.doc.Nodes.Len(); i++ {
		node, _ := e.doc.Nodes.GetByIndex(i)
		for _, m := range node.Meshes {
			if m == mesh {
				return node
			}
		}
	}
	return nil
}

// skeletonRootJoint climbs from a joint to the topmost ancestor that is
// still a joint.
func skeletonRootJoint(joint *asset.Node) *asset.Node {
	for joint.Parent != nil && joint.Parent.JointName != "" {
		joint = joint.Parent
	}
	return joint
}
