package asset

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// ComponentType is the datatype of the components in an accessor element.
type ComponentType int

const (
	ComponentByte          ComponentType = 5120
	ComponentUnsignedByte  ComponentType = 5121
	ComponentShort         ComponentType = 5122
	ComponentUnsignedShort ComponentType = 5123
	ComponentUnsignedInt   ComponentType = 5125
	ComponentFloat         ComponentType = 5126
)

// Size returns the byte size of one component, or 0 for unknown types.
func (c ComponentType) Size() int {
	switch c {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	default:
		return 0
	}
}

// AttribType is the element shape of an accessor: scalar, vector or matrix.
type AttribType string

const (
	TypeScalar AttribType = "SCALAR"
	TypeVec2   AttribType = "VEC2"
	TypeVec3   AttribType = "VEC3"
	TypeVec4   AttribType = "VEC4"
	TypeMat2   AttribType = "MAT2"
	TypeMat3   AttribType = "MAT3"
	TypeMat4   AttribType = "MAT4"
)

// NumComponents returns the component count of the shape, or 0 for
// unknown shapes.
func (t AttribType) NumComponents() int {
	switch t {
	case TypeScalar:
		return 1
	case TypeVec2:
		return 2
	case TypeVec3:
		return 3
	case TypeVec4, TypeMat2:
		return 4
	case TypeMat3:
		return 9
	case TypeMat4:
		return 16
	default:
		return 0
	}
}

// Accessor is a typed, strided view into a BufferView.
type Accessor struct {
	Object
	BufferView    *BufferView
	ByteOffset    int // relative to the bufferView
	ByteStride    int // 0 means tightly packed
	ComponentType ComponentType
	Count         int
	Type          AttribType
	Max           []float64
	Min           []float64
}

func (a *Accessor) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		BufferView    *string   `json:"bufferView"`
		ByteOffset    int       `json:"byteOffset"`
		ByteStride    int       `json:"byteStride"`
		ComponentType int       `json:"componentType"`
		Count         int       `json:"count"`
		Type          string    `json:"type"`
		Max           []float64 `json:"max"`
		Min           []float64 `json:"min"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: accessor %q: %v", ErrMalformedObject, a.ID, err)
	}

	if dto.BufferView != nil {
		bv, err := doc.BufferViews.Get(*dto.BufferView)
		if err != nil {
			return err
		}
		a.BufferView = bv
	}
	a.ByteOffset = dto.ByteOffset
	a.ByteStride = dto.ByteStride
	a.ComponentType = ComponentType(dto.ComponentType)
	if dto.ComponentType == 0 {
		a.ComponentType = ComponentByte
	}
	a.Count = dto.Count
	a.Type = TypeScalar
	if dto.Type != "" {
		a.Type = AttribType(dto.Type)
	}
	a.Max = dto.Max
	a.Min = dto.Min
	return nil
}

// NumComponents returns the component count of one element.
func (a *Accessor) NumComponents() int { return a.Type.NumComponents() }

// BytesPerComponent returns the byte size of one component.
func (a *Accessor) BytesPerComponent() int { return a.ComponentType.Size() }

// ElementSize returns the byte size of one tightly-packed element.
func (a *Accessor) ElementSize() int { return a.NumComponents() * a.BytesPerComponent() }

// stride returns the effective distance between elements.
func (a *Accessor) stride() int {
	if a.ByteStride != 0 {
		return a.ByteStride
	}
	return a.ElementSize()
}

// ptr resolves the accessor's first element to backing bytes, applying the
// buffer's active-decoded-region redirection. Returns nil when the
// bufferView or its buffer is unset.
func (a *Accessor) ptr() []byte {
	if a.BufferView == nil || a.BufferView.Buffer == nil {
		return nil
	}
	return a.BufferView.Buffer.at(a.ByteOffset + a.BufferView.ByteOffset)
}

// Data extracts the accessor's elements as one dense byte slice of
// Count*ElementSize bytes. Tightly-packed sources are copied in bulk;
// strided sources are copied element by element.
func (a *Accessor) Data() ([]byte, error) {
	src := a.ptr()
	if src == nil {
		return nil, fmt.Errorf("%w: accessor %q has no backing buffer", ErrInvalidDocument, a.ID)
	}

	elemSize := a.ElementSize()
	stride := a.stride()
	total := elemSize * a.Count
	if a.Count*stride > a.BufferView.ByteLength {
		return nil, fmt.Errorf("%w: accessor %q overruns its bufferView", ErrInvalidDocument, a.ID)
	}
	// The view itself may overstate its buffer, so check the bytes that
	// actually back it too.
	if need := (a.Count-1)*stride + elemSize; a.Count > 0 && need > len(src) {
		return nil, fmt.Errorf("%w: accessor %q overruns its buffer", ErrInvalidDocument, a.ID)
	}

	out := make([]byte, total)
	if stride == elemSize {
		copy(out, src[:total])
		return out, nil
	}
	for i := 0; i < a.Count; i++ {
		copy(out[i*elemSize:(i+1)*elemSize], src[i*stride:])
	}
	return out, nil
}

// WriteData copies count elements from src into the accessor's backing
// range at the accessor's tightly-packed element stride. When srcStride
// differs, the overlapping prefix of each element is copied and any
// destination tail is zero-filled. This is the accessor's only way to
// change buffer contents.
func (a *Accessor) WriteData(count int, src []byte, srcStride int) error {
	if a.BufferView == nil || a.BufferView.Buffer == nil {
		return fmt.Errorf("%w: accessor %q has no backing buffer", ErrInvalidDocument, a.ID)
	}
	dst := a.BufferView.Buffer.at(a.ByteOffset + a.BufferView.ByteOffset)
	if dst == nil {
		return fmt.Errorf("%w: accessor %q has no backing data", ErrInvalidDocument, a.ID)
	}

	dstStride := a.ElementSize()
	if count*dstStride > len(dst) {
		return fmt.Errorf("%w: accessor %q write overruns its buffer", ErrInvalidDocument, a.ID)
	}
	copyStrided(dst, dstStride, src, srcStride, count)
	return nil
}

// copyStrided copies count elements between byte regions of possibly
// different strides. Equal strides degrade to one bulk copy; otherwise
// the overlapping prefix is copied per element and the destination tail
// is zeroed.
func copyStrided(dst []byte, dstStride int, src []byte, srcStride, count int) {
	if srcStride == dstStride {
		copy(dst, src[:count*srcStride])
		return
	}
	n := srcStride
	if dstStride < n {
		n = dstStride
	}
	for i := 0; i < count; i++ {
		d := dst[i*dstStride : (i+1)*dstStride]
		copy(d[:n], src[i*srcStride:])
		for j := n; j < dstStride; j++ {
			d[j] = 0
		}
	}
}

// Float32s decodes the accessor's components as a flat float32 sequence.
func (a *Accessor) Float32s() ([]float32, error) {
	if a.ComponentType != ComponentFloat {
		return nil, fmt.Errorf("%w: accessor %q is not FLOAT", ErrInvalidDocument, a.ID)
	}
	data, err := a.Data()
	if err != nil {
		return nil, err
	}
	out := make([]float32, a.Count*a.NumComponents())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// UInts decodes the accessor's components as zero-extended uint32 values.
// Used for index and joint data stored as unsigned byte, short or int.
func (a *Accessor) UInts() ([]uint32, error) {
	data, err := a.Data()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, a.Count*a.NumComponents())
	switch a.ComponentType {
	case ComponentUnsignedByte:
		for i := range out {
			out[i] = uint32(data[i])
		}
	case ComponentUnsignedShort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case ComponentUnsignedInt:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("%w: accessor %q has unsupported index component type %d", ErrInvalidDocument, a.ID, a.ComponentType)
	}
	return out, nil
}

// Vec4s decodes the accessor as VEC4 float elements.
func (a *Accessor) Vec4s() ([][4]float32, error) {
	if a.Type != TypeVec4 {
		return nil, fmt.Errorf("%w: accessor %q is not VEC4", ErrInvalidDocument, a.ID)
	}
	flat, err := a.Float32s()
	if err != nil {
		return nil, err
	}
	out := make([][4]float32, a.Count)
	for i := range out {
		copy(out[i][:], flat[i*4:])
	}
	return out, nil
}

// Mat4s decodes the accessor as MAT4 float elements.
func (a *Accessor) Mat4s() ([][16]float32, error) {
	if a.Type != TypeMat4 {
		return nil, fmt.Errorf("%w: accessor %q is not MAT4", ErrInvalidDocument, a.ID)
	}
	flat, err := a.Float32s()
	if err != nil {
		return nil, err
	}
	out := make([][16]float32, a.Count)
	for i := range out {
		copy(out[i][:], flat[i*16:])
	}
	return out, nil
}

// Indexer provides single-element random access into the accessor.
type Indexer struct {
	data     []byte
	elemSize int
	stride   int
}

// Indexer returns a random-access view of the accessor's elements.
func (a *Accessor) Indexer() Indexer {
	return Indexer{
		data:     a.ptr(),
		elemSize: a.ElementSize(),
		stride:   a.stride(),
	}
}

// Valid reports whether the indexer has backing data.
func (ix *Indexer) Valid() bool { return ix.data != nil }

// At returns the i-th element's raw bytes. The slice aliases the buffer
// and holds exactly ElementSize bytes.
func (ix *Indexer) At(i int) []byte {
	return ix.data[i*ix.stride : i*ix.stride+ix.elemSize]
}

// UInt reads the i-th element as an unsigned integer, zero-extending
// elements narrower than four bytes. Elements wider than four bytes are
// truncated to their leading bytes rather than rejected.
func (ix *Indexer) UInt(i int) uint32 {
	var scratch [4]byte
	n := ix.elemSize
	if n > 4 {
		n = 4
	}
	copy(scratch[:n], ix.data[i*ix.stride:])
	return binary.LittleEndian.Uint32(scratch[:])
}

func (a *Accessor) writeTo(obj map[string]any) {
	if a.BufferView != nil {
		obj["bufferView"] = a.BufferView.ID
	}
	obj["byteOffset"] = a.ByteOffset
	if a.ByteStride != 0 {
		obj["byteStride"] = a.ByteStride
	}
	obj["componentType"] = int(a.ComponentType)
	obj["count"] = a.Count
	obj["type"] = string(a.Type)
	if len(a.Max) > 0 {
		obj["max"] = a.Max
	}
	if len(a.Min) > 0 {
		obj["min"] = a.Min
	}
}
