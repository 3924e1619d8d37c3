package asset

import (
	"encoding/json"
	"fmt"
)

// Skin binds a mesh to its skeleton: an ordered joint list whose index
// positions are the joint indices used by vertex joint-index accessors,
// plus the matching inverse-bind matrices.
type Skin struct {
	Object
	BindShapeMatrix     *[16]float64
	InverseBindMatrices *Accessor
	JointNames          []*Node
}

func (s *Skin) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		BindShapeMatrix     *[16]float64 `json:"bindShapeMatrix"`
		InverseBindMatrices *string      `json:"inverseBindMatrices"`
		JointNames          []string     `json:"jointNames"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: skin %q: %v", ErrMalformedObject, s.ID, err)
	}

	s.BindShapeMatrix = dto.BindShapeMatrix
	if dto.InverseBindMatrices != nil {
		acc, err := doc.Accessors.Get(*dto.InverseBindMatrices)
		if err != nil {
			return err
		}
		s.InverseBindMatrices = acc
	}
	// Joint names match the node ids of joint nodes.
	for _, jointName := range dto.JointNames {
		node, err := doc.Nodes.Get(jointName)
		if err != nil {
			return err
		}
		if node.JointName == "" {
			node.JointName = jointName
		}
		s.JointNames = append(s.JointNames, node)
	}
	return nil
}

func (s *Skin) writeTo(obj map[string]any) {
	if len(s.JointNames) > 0 {
		names := make([]any, len(s.JointNames))
		for i, n := range s.JointNames {
			names[i] = n.JointName
		}
		obj["jointNames"] = names
	}
	if s.BindShapeMatrix != nil {
		obj["bindShapeMatrix"] = s.BindShapeMatrix[:]
	}
	if s.InverseBindMatrices != nil {
		obj["inverseBindMatrices"] = s.InverseBindMatrices.ID
	}
}
