// Package glb provides types and functions for the binary scene container format.
package glb

import (
	"encoding/binary"
	"fmt"
)

// Magic bytes identifying a binary container header.
var Magic = [4]byte{'g', 'l', 'T', 'F'}

// Version is the container format version this package reads and writes.
const Version = 1

// SceneFormatJSON is the only defined scene format: plain JSON text.
const SceneFormatJSON = 0

// HeaderSize is the fixed binary size of a container header.
const HeaderSize = 20 // 4 + 4 + 4 + 4 + 4 bytes

// Header represents the header of a binary scene container file.
// The manifest text occupies SceneLength bytes immediately after the
// header; the binary body, when present, is everything after that.
type Header struct {
	Magic       [4]byte
	Version     uint32
	Length      uint32 // Total file length including the header
	SceneLength uint32 // Manifest text length
	SceneFormat uint32
}

// Size returns the binary size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("unsupported container version: expected %d, got %d", Version, h.Version)
	}
	if h.SceneFormat != SceneFormatJSON {
		return fmt.Errorf("unsupported scene format: %d", h.SceneFormat)
	}
	if h.SceneLength == 0 {
		return fmt.Errorf("scene length is zero")
	}
	if uint64(HeaderSize)+uint64(h.SceneLength) > uint64(h.Length) {
		return fmt.Errorf("scene length %d exceeds file length %d", h.SceneLength, h.Length)
	}
	return nil
}

// BodyOffset returns the byte offset of the binary body within the file.
func (h *Header) BodyOffset() int64 {
	return int64(HeaderSize) + int64(h.SceneLength)
}

// BodyLength returns the byte length of the binary body.
func (h *Header) BodyLength() int64 {
	return int64(h.Length) - h.BodyOffset()
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Length)
	binary.LittleEndian.PutUint32(buf[12:16], h.SceneLength)
	binary.LittleEndian.PutUint32(buf[16:20], h.SceneFormat)
}

// UnmarshalBinary decodes the header from binary format.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.Length = binary.LittleEndian.Uint32(data[8:12])
	h.SceneLength = binary.LittleEndian.Uint32(data[12:16])
	h.SceneFormat = binary.LittleEndian.Uint32(data[16:20])
}

// NewHeader creates a new container header for the given scene and body sizes.
func NewHeader(sceneLength, bodyLength uint32) *Header {
	return &Header{
		Magic:       Magic,
		Version:     Version,
		Length:      HeaderSize + sceneLength + bodyLength,
		SceneLength: sceneLength,
		SceneFormat: SceneFormatJSON,
	}
}
