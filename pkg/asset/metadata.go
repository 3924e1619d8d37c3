package asset

import (
	"encoding/json"
	"strings"
)

// Metadata is the document's top-level asset description.
type Metadata struct {
	Copyright          string
	Generator          string
	Version            string
	PremultipliedAlpha bool
	ProfileAPI         string
	ProfileVersion     string
}

func (m *Metadata) read(root map[string]json.RawMessage) {
	raw, ok := root["asset"]
	if !ok {
		return
	}
	var dto struct {
		Copyright          string `json:"copyright"`
		Generator          string `json:"generator"`
		Version            string `json:"version"`
		PremultipliedAlpha bool   `json:"premultipliedAlpha"`
		Profile            struct {
			API     string `json:"api"`
			Version string `json:"version"`
		} `json:"profile"`
	}
	if json.Unmarshal(raw, &dto) != nil {
		return
	}
	m.Copyright = dto.Copyright
	m.Generator = dto.Generator
	m.Version = dto.Version
	m.PremultipliedAlpha = dto.PremultipliedAlpha
	m.ProfileAPI = dto.Profile.API
	m.ProfileVersion = dto.Profile.Version
}

// Supported reports whether the stated asset version is one this package
// can read. A missing version defaults to 1.0.
func (m *Metadata) Supported() bool {
	if m.Version == "" {
		return true
	}
	return m.Version == "1" || strings.HasPrefix(m.Version, "1.")
}

func (m *Metadata) write(root map[string]any) {
	obj := make(map[string]any)
	if m.Copyright != "" {
		obj["copyright"] = m.Copyright
	}
	if m.Generator != "" {
		obj["generator"] = m.Generator
	}
	version := m.Version
	if version == "" {
		version = "1.0"
	}
	obj["version"] = version
	if m.PremultipliedAlpha {
		obj["premultipliedAlpha"] = true
	}
	if m.ProfileAPI != "" || m.ProfileVersion != "" {
		obj["profile"] = map[string]any{
			"api":     m.ProfileAPI,
			"version": m.ProfileVersion,
		}
	}
	root["asset"] = obj
}
