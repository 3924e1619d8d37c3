package asset

import (
	"encoding/json"
	"fmt"
)

// ColorOrTex holds a material property that is either a flat color or a
// reference to a texture by id.
type ColorOrTex struct {
	Color     []float64
	TextureID string
}

func (c *ColorOrTex) set(raw json.RawMessage) {
	var id string
	if json.Unmarshal(raw, &id) == nil {
		c.TextureID = id
		return
	}
	var color []float64
	if json.Unmarshal(raw, &color) == nil {
		c.Color = color
	}
}

func (c *ColorOrTex) value() any {
	if c.TextureID != "" {
		return c.TextureID
	}
	if c.Color != nil {
		return c.Color
	}
	return nil
}

// Material is the surface description referenced by mesh primitives.
// Only the common-profile "values" block is modeled.
type Material struct {
	Object
	Ambient      ColorOrTex
	Diffuse      ColorOrTex
	Specular     ColorOrTex
	Emission     ColorOrTex
	Transparency *float64
	Shininess    float64
}

func (m *Material) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		Values map[string]json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: material %q: %v", ErrMalformedObject, m.ID, err)
	}

	for key, val := range dto.Values {
		switch key {
		case "ambient":
			m.Ambient.set(val)
		case "diffuse":
			m.Diffuse.set(val)
		case "specular":
			m.Specular.set(val)
		case "emission":
			m.Emission.set(val)
		case "transparency":
			var t float64
			if json.Unmarshal(val, &t) == nil {
				m.Transparency = &t
			}
		case "shininess":
			_ = json.Unmarshal(val, &m.Shininess)
		}
	}
	return nil
}

func (m *Material) writeTo(obj map[string]any) {
	values := make(map[string]any)
	if v := m.Ambient.value(); v != nil {
		values["ambient"] = v
	}
	if v := m.Diffuse.value(); v != nil {
		values["diffuse"] = v
	}
	if v := m.Specular.value(); v != nil {
		values["specular"] = v
	}
	if v := m.Emission.value(); v != nil {
		values["emission"] = v
	}
	if m.Transparency != nil {
		values["transparency"] = *m.Transparency
	}
	values["shininess"] = m.Shininess
	obj["values"] = values
}
