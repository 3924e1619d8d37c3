package asset

import (
	"encoding/json"
	"fmt"
)

// Node is one element of the scene hierarchy. Parent is maintained by
// whichever side builds the hierarchy (manifest read or export) and is
// not serialized.
type Node struct {
	Object
	Parent    *Node
	Children  []*Node
	Meshes    []*Mesh
	Skeletons []*Node
	Skin      *Skin
	JointName string

	Matrix      *[16]float64
	Translation *[3]float64
	Rotation    *[4]float64
	Scale       *[3]float64
}

func (n *Node) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		Children    []string     `json:"children"`
		Meshes      []string     `json:"meshes"`
		Skeletons   []string     `json:"skeletons"`
		Skin        *string      `json:"skin"`
		JointName   string       `json:"jointName"`
		Matrix      *[16]float64 `json:"matrix"`
		Translation *[3]float64  `json:"translation"`
		Rotation    *[4]float64  `json:"rotation"`
		Scale       *[3]float64  `json:"scale"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: node %q: %v", ErrMalformedObject, n.ID, err)
	}

	n.JointName = dto.JointName
	n.Matrix = dto.Matrix
	n.Translation = dto.Translation
	n.Rotation = dto.Rotation
	n.Scale = dto.Scale

	for _, id := range dto.Children {
		child, err := doc.Nodes.Get(id)
		if err != nil {
			return err
		}
		child.Parent = n
		n.Children = append(n.Children, child)
	}
	for _, id := range dto.Meshes {
		mesh, err := doc.Meshes.Get(id)
		if err != nil {
			return err
		}
		n.Meshes = append(n.Meshes, mesh)
	}
	for _, id := range dto.Skeletons {
		skel, err := doc.Nodes.Get(id)
		if err != nil {
			return err
		}
		n.Skeletons = append(n.Skeletons, skel)
	}
	if dto.Skin != nil {
		skin, err := doc.Skins.Get(*dto.Skin)
		if err != nil {
			return err
		}
		n.Skin = skin
	}
	return nil
}

func nodeIDs(nodes []*Node) []any {
	ids := make([]any, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func (n *Node) writeTo(obj map[string]any) {
	if n.Matrix != nil {
		obj["matrix"] = n.Matrix[:]
	}
	if n.Translation != nil {
		obj["translation"] = n.Translation[:]
	}
	if n.Rotation != nil {
		obj["rotation"] = n.Rotation[:]
	}
	if n.Scale != nil {
		obj["scale"] = n.Scale[:]
	}
	if len(n.Children) > 0 {
		obj["children"] = nodeIDs(n.Children)
	}
	if len(n.Meshes) > 0 {
		ids := make([]any, len(n.Meshes))
		for i, m := range n.Meshes {
			ids[i] = m.ID
		}
		obj["meshes"] = ids
	}
	if len(n.Skeletons) > 0 {
		obj["skeletons"] = nodeIDs(n.Skeletons)
	}
	if n.Skin != nil {
		obj["skin"] = n.Skin.ID
	}
	if n.JointName != "" {
		obj["jointName"] = n.JointName
	}
}

// Scene is a named list of root nodes.
type Scene struct {
	Object
	Nodes []*Node
}

func (s *Scene) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		Nodes []string `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: scene %q: %v", ErrMalformedObject, s.ID, err)
	}
	for _, id := range dto.Nodes {
		node, err := doc.Nodes.Get(id)
		if err != nil {
			return err
		}
		s.Nodes = append(s.Nodes, node)
	}
	return nil
}

func (s *Scene) writeTo(obj map[string]any) {
	if len(s.Nodes) > 0 {
		obj["nodes"] = nodeIDs(s.Nodes)
	}
}
