package asset

import "encoding/json"

// Object is the identity shared by every dictionary-held entity. IDs are
// unique across the whole document, not per dictionary.
type Object struct {
	ID   string
	Name string
}

func (o *Object) object() *Object { return o }

// entity is implemented by every type stored in a Dict. readFrom populates
// type-specific fields from the manifest value and may recursively resolve
// references through the document's dictionaries. writeTo is its inverse:
// it emits the fields into a fresh manifest object, with references as id
// strings and absent optional fields omitted.
type entity interface {
	object() *Object
	readFrom(raw json.RawMessage, doc *Document) error
	writeTo(obj map[string]any)
}

// entityPtr constrains a Dict's element pointer type.
type entityPtr[T any] interface {
	*T
	entity
}
