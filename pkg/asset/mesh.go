package asset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// PrimitiveMode is the draw mode of a primitive.
type PrimitiveMode int

const (
	ModePoints PrimitiveMode = iota
	ModeLines
	ModeLineLoop
	ModeLineStrip
	ModeTriangles
	ModeTriangleStrip
	ModeTriangleFan
)

// AccessorList holds the numbered accessor slots of one attribute
// semantic. Slots referenced only by a high-numbered suffix leave the
// lower slots nil.
type AccessorList []*Accessor

// Attributes maps each known semantic to its accessor slots.
type Attributes struct {
	Position    AccessorList
	Normal      AccessorList
	TexCoord    AccessorList
	Color       AccessorList
	Joint       AccessorList
	JointMatrix AccessorList
	Weight      AccessorList
}

// Primitive is one drawable part of a mesh.
type Primitive struct {
	Mode       PrimitiveMode
	Attributes Attributes
	Indices    *Accessor
	Material   *Material
}

// Mesh owns an ordered sequence of primitives.
type Mesh struct {
	Object
	Primitives []Primitive
}

// attrSlots matches an attribute key by semantic prefix, returning the
// accessor list for that semantic and the length of the matched prefix.
// JOINTMATRIX is tested before JOINT because the latter is a prefix of
// the former.
func attrSlots(p *Primitive, key string) (*AccessorList, int, bool) {
	semantics := []struct {
		prefix string
		list   *AccessorList
	}{
		{"POSITION", &p.Attributes.Position},
		{"NORMAL", &p.Attributes.Normal},
		{"TEXCOORD", &p.Attributes.TexCoord},
		{"COLOR", &p.Attributes.Color},
		{"JOINTMATRIX", &p.Attributes.JointMatrix},
		{"JOINT", &p.Attributes.Joint},
		{"WEIGHT", &p.Attributes.Weight},
	}
	for _, s := range semantics {
		if strings.HasPrefix(key, s.prefix) {
			return s.list, len(s.prefix), true
		}
	}
	return nil, 0, false
}

func (m *Mesh) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		Primitives []struct {
			Mode       *int                       `json:"mode"`
			Attributes map[string]json.RawMessage `json:"attributes"`
			Indices    *string                    `json:"indices"`
			Material   *string                    `json:"material"`
		} `json:"primitives"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: mesh %q: %v", ErrMalformedObject, m.ID, err)
	}

	m.Primitives = make([]Primitive, len(dto.Primitives))
	for i, pd := range dto.Primitives {
		p := &m.Primitives[i]
		p.Mode = ModeTriangles
		if pd.Mode != nil {
			p.Mode = PrimitiveMode(*pd.Mode)
		}

		for key, val := range pd.Attributes {
			var accessorID string
			if err := json.Unmarshal(val, &accessorID); err != nil {
				doc.log.Warn("skipping non-string attribute value",
					zap.String("mesh", m.ID), zap.String("attribute", key))
				continue
			}
			list, pos, ok := attrSlots(p, key)
			if !ok {
				doc.log.Warn("skipping unknown attribute semantic",
					zap.String("mesh", m.ID), zap.String("attribute", key))
				continue
			}

			// A trailing _<N> suffix selects the N-th slot; default 0.
			slot := 0
			if pos < len(key) && key[pos] == '_' {
				n, err := strconv.Atoi(key[pos+1:])
				if err != nil || n < 0 {
					doc.log.Warn("skipping attribute with bad set index",
						zap.String("mesh", m.ID), zap.String("attribute", key))
					continue
				}
				slot = n
			}
			for len(*list) <= slot {
				*list = append(*list, nil)
			}

			acc, err := doc.Accessors.Get(accessorID)
			if err != nil {
				return err
			}
			(*list)[slot] = acc
		}

		if pd.Indices != nil {
			acc, err := doc.Accessors.Get(*pd.Indices)
			if err != nil {
				return err
			}
			p.Indices = acc
		}
		if pd.Material != nil {
			mat, err := doc.Materials.Get(*pd.Material)
			if err != nil {
				return err
			}
			p.Material = mat
		}
	}
	return nil
}

// writeAttrs emits one semantic's accessor slots. A single slot emits the
// bare semantic key unless forceNumber is set; multiple slots emit
// SEMANTIC_<i> keys.
func writeAttrs(attrs map[string]any, list AccessorList, semantic string, forceNumber bool) {
	if len(list) == 0 {
		return
	}
	if len(list) == 1 && !forceNumber {
		if list[0] != nil {
			attrs[semantic] = list[0].ID
		}
		return
	}
	for i, acc := range list {
		if acc == nil {
			continue
		}
		attrs[fmt.Sprintf("%s_%d", semantic, i)] = acc.ID
	}
}

func (m *Mesh) writeTo(obj map[string]any) {
	primitives := make([]any, 0, len(m.Primitives))
	for i := range m.Primitives {
		p := &m.Primitives[i]
		prim := map[string]any{"mode": int(p.Mode)}
		if p.Material != nil {
			prim["material"] = p.Material.ID
		}
		if p.Indices != nil {
			prim["indices"] = p.Indices.ID
		}

		attrs := make(map[string]any)
		writeAttrs(attrs, p.Attributes.Position, "POSITION", false)
		writeAttrs(attrs, p.Attributes.Normal, "NORMAL", false)
		writeAttrs(attrs, p.Attributes.TexCoord, "TEXCOORD", true)
		writeAttrs(attrs, p.Attributes.Color, "COLOR", false)
		writeAttrs(attrs, p.Attributes.Joint, "JOINT", false)
		writeAttrs(attrs, p.Attributes.JointMatrix, "JOINTMATRIX", false)
		writeAttrs(attrs, p.Attributes.Weight, "WEIGHT", false)
		prim["attributes"] = attrs

		primitives = append(primitives, prim)
	}
	obj["primitives"] = primitives
}
