package asset

import (
	"encoding/json"
	"fmt"
)

// section is the type-erased dictionary interface the document drives
// during load and save.
type section interface {
	attach(root map[string]json.RawMessage)
	detach()
	sectionID() string
	writeObjects(root map[string]any)
}

// Dict is a lazy registry mapping string id to objects of one entity kind,
// backed by a named section of the manifest. Objects are constructed on
// first Get and each id resolves to exactly one instance.
type Dict[T any, P entityPtr[T]] struct {
	doc    *Document
	dictID string
	extID  string // non-empty: section nests under "extensions"

	section map[string]json.RawMessage

	objs []P
	byID map[string]int
}

func newDict[T any, P entityPtr[T]](doc *Document, dictID, extID string) *Dict[T, P] {
	d := &Dict[T, P]{
		doc:    doc,
		dictID: dictID,
		extID:  extID,
		byID:   make(map[string]int),
	}
	doc.dicts = append(doc.dicts, d)
	return d
}

func (d *Dict[T, P]) sectionID() string { return d.dictID }

// attach binds the dictionary to its manifest section, optionally nested
// under "extensions". A missing or non-object section leaves the
// dictionary unattached; that only becomes an error if Get needs it.
func (d *Dict[T, P]) attach(root map[string]json.RawMessage) {
	container := root
	if d.extID != "" {
		exts, ok := root["extensions"]
		if !ok {
			return
		}
		var nested map[string]json.RawMessage
		if json.Unmarshal(exts, &nested) != nil {
			return
		}
		inner, ok := nested[d.extID]
		if !ok {
			return
		}
		container = nil
		if json.Unmarshal(inner, &container) != nil {
			return
		}
	}

	raw, ok := container[d.dictID]
	if !ok {
		return
	}
	var sec map[string]json.RawMessage
	if json.Unmarshal(raw, &sec) != nil {
		return
	}
	d.section = sec
}

// detach clears the manifest binding once loading completes, so later
// mutation never touches the original manifest tree.
func (d *Dict[T, P]) detach() { d.section = nil }

// Len returns the number of materialized objects.
func (d *Dict[T, P]) Len() int { return len(d.objs) }

// GetByIndex retrieves an already-materialized object by insertion order.
func (d *Dict[T, P]) GetByIndex(i int) (P, error) {
	if i < 0 || i >= len(d.objs) {
		return nil, fmt.Errorf("%w: index %d out of range in %q", ErrNotFound, i, d.dictID)
	}
	return d.objs[i], nil
}

// Get returns the object for id, materializing it from the attached
// manifest section on first use. Resolution is recursive: readFrom may
// call Get on other dictionaries, so the object graph resolves in
// reference order rather than declaration order.
func (d *Dict[T, P]) Get(id string) (P, error) {
	if i, ok := d.byID[id]; ok {
		return d.objs[i], nil
	}

	if d.section == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingSection, d.dictID)
	}

	raw, ok := d.section[id]
	if !ok {
		return nil, fmt.Errorf("%w: no %q in %q", ErrMissingObject, id, d.dictID)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %q in %q is not a JSON object", ErrMalformedObject, id, d.dictID)
	}

	inst := P(new(T))
	inst.object().ID = id
	if name, ok := obj["name"]; ok {
		_ = json.Unmarshal(name, &inst.object().Name)
	}
	if err := inst.readFrom(raw, d.doc); err != nil {
		return nil, err
	}
	d.add(inst)
	return inst, nil
}

// Create allocates a fresh instance with no manifest backing. It fails if
// id is already used anywhere in the document.
func (d *Dict[T, P]) Create(id string) (P, error) {
	if d.doc.ids.has(id) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	inst := P(new(T))
	inst.object().ID = id
	d.add(inst)
	return inst, nil
}

func (d *Dict[T, P]) add(inst P) {
	d.byID[inst.object().ID] = len(d.objs)
	d.objs = append(d.objs, inst)
	d.doc.ids.reserve(inst.object().ID)
}

// writeObjects serializes every materialized object into the manifest tree.
func (d *Dict[T, P]) writeObjects(root map[string]any) {
	if len(d.objs) == 0 {
		return
	}
	sec := make(map[string]any, len(d.objs))
	for _, inst := range d.objs {
		obj := make(map[string]any)
		if name := inst.object().Name; name != "" {
			obj["name"] = name
		}
		inst.writeTo(obj)
		sec[inst.object().ID] = obj
	}
	root[d.dictID] = sec
}
