package asset

import (
	"encoding/json"
	"fmt"
)

// BufferViewTarget is a usage hint for the byte range.
type BufferViewTarget int

const (
	TargetNone               BufferViewTarget = 0
	TargetArrayBuffer        BufferViewTarget = 34962
	TargetElementArrayBuffer BufferViewTarget = 34963
)

// BufferView is an immutable window into one Buffer.
type BufferView struct {
	Object
	Buffer     *Buffer
	ByteOffset int
	ByteLength int
	Target     BufferViewTarget
}

func (bv *BufferView) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		Buffer     *string `json:"buffer"`
		ByteOffset int     `json:"byteOffset"`
		ByteLength int     `json:"byteLength"`
		Target     int     `json:"target"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: bufferView %q: %v", ErrMalformedObject, bv.ID, err)
	}

	// A bufferView may legitimately reference no buffer.
	if dto.Buffer != nil {
		buf, err := doc.Buffers.Get(*dto.Buffer)
		if err != nil {
			return err
		}
		bv.Buffer = buf
	}
	bv.ByteOffset = dto.ByteOffset
	bv.ByteLength = dto.ByteLength
	bv.Target = BufferViewTarget(dto.Target)
	return nil
}

func (bv *BufferView) writeTo(obj map[string]any) {
	if bv.Buffer != nil {
		obj["buffer"] = bv.Buffer.ID
	}
	obj["byteOffset"] = bv.ByteOffset
	obj["byteLength"] = bv.ByteLength
	if bv.Target != TargetNone {
		obj["target"] = int(bv.Target)
	}
}
