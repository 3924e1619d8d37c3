package asset

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DataDog/zstd"
)

// BufferKind distinguishes binary payload buffers from text ones.
type BufferKind int

const (
	BufferKindBinary BufferKind = iota
	BufferKindText
)

func (k BufferKind) String() string {
	if k == BufferKindText {
		return "text"
	}
	return "arraybuffer"
}

// EncodedRegion records a byte range of a buffer whose raw (encoded)
// contents are logically replaced by separately-owned decoded bytes.
type EncodedRegion struct {
	ID            string
	Offset        int
	EncodedLength int
	Decoded       []byte
}

// Buffer is a contiguous growable byte region holding binary payload data.
// Registered encoded regions can locally override the raw bytes: while a
// region is current, address resolution inside its decoded span lands in
// the region's own storage instead of the raw arena. This lets accessors
// read decoded data for the object being processed while the rest of the
// buffer stays in its original encoding.
type Buffer struct {
	Object
	Kind BufferKind

	byteLength int // logical size under the current decode state
	data       []byte
	special    bool // true for the document's embedded body buffer

	regions []*EncodedRegion
	current *EncodedRegion
}

// Length returns the logically-addressable size of the buffer: the raw
// length plus the net size delta of all registered encoded regions.
func (b *Buffer) Length() int { return b.byteLength }

// MarkSpecial flags the buffer as the document's own embedded body buffer.
func (b *Buffer) MarkSpecial() { b.special = true }

// Special reports whether this is the document's embedded body buffer.
func (b *Buffer) Special() bool { return b.special }

// URI returns the side-file name the buffer's contents are written to.
func (b *Buffer) URI() string { return b.ID + ".bin" }

func (b *Buffer) readFrom(raw json.RawMessage, doc *Document) error {
	var dto struct {
		ByteLength int     `json:"byteLength"`
		URI        *string `json:"uri"`
		Type       string  `json:"type"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return fmt.Errorf("%w: buffer %q: %v", ErrMalformedObject, b.ID, err)
	}
	if dto.Type == "text" {
		b.Kind = BufferKindText
	}

	stated := dto.ByteLength
	b.byteLength = stated

	if dto.URI == nil {
		if stated > 0 {
			return fmt.Errorf("%w: buffer %q with non-zero length missing the \"uri\" attribute", ErrInvalidDocument, b.ID)
		}
		return nil
	}
	uri := *dto.URI

	if payload, isBase64, ok := parseDataURI(uri); ok {
		if isBase64 {
			decoded, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				return fmt.Errorf("%w: buffer %q: bad base64 payload: %v", ErrInvalidDocument, b.ID, err)
			}
			if stated > 0 && len(decoded) != stated {
				return fmt.Errorf("%w: buffer %q: expected %d bytes, but found %d", ErrInvalidDocument, b.ID, stated, len(decoded))
			}
			b.data = decoded
			b.byteLength = len(decoded)
			return nil
		}
		// Raw, non-base64 payload: the stated length must match exactly.
		if stated != len(payload) {
			return fmt.Errorf("%w: buffer %q: expected %d bytes, but found %d", ErrInvalidDocument, b.ID, stated, len(payload))
		}
		b.data = []byte(payload)
		return nil
	}

	// Local file, relative to the manifest's directory.
	if stated > 0 {
		path := filepath.Join(doc.dir, filepath.FromSlash(uri))
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: buffer %q: could not open referenced file %q: %v", ErrIO, b.ID, uri, err)
		}
		defer f.Close()
		if err := b.LoadFromStream(f, int64(stated), 0); err != nil {
			return fmt.Errorf("%w: buffer %q: error while reading referenced file %q: %v", ErrIO, b.ID, uri, err)
		}
	}
	return nil
}

// parseDataURI splits a data: URI into its payload. The second result
// reports whether the payload is base64-encoded.
func parseDataURI(uri string) (payload string, isBase64, ok bool) {
	if !strings.HasPrefix(uri, "data:") {
		return "", false, false
	}
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return "", false, false
	}
	header := uri[5:comma]
	return uri[comma+1:], strings.Contains(header, ";base64") || strings.HasSuffix(header, "base64"), true
}

// LoadFromStream reads exactly length bytes starting at baseOffset, or the
// whole stream if length is 0.
func (b *Buffer) LoadFromStream(r io.ReadSeeker, length, baseOffset int64) error {
	if length == 0 {
		size, err := r.Seek(0, io.SeekEnd)
		if err != nil {
			return fmt.Errorf("size stream: %w", err)
		}
		length = size - baseOffset
	}
	if _, err := r.Seek(baseOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek stream: %w", err)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("short read: %w", err)
	}
	b.data = data
	b.byteLength = int(length)
	return nil
}

// Grow extends the logical length by amount. When the existing capacity
// already covers the new length only the length changes; otherwise the
// arena reallocates to max(1.5*cap, newLength), which amortizes the
// append-many-small-chunks export pattern.
func (b *Buffer) Grow(amount int) {
	if amount <= 0 {
		return
	}
	need := len(b.data) + amount
	if cap(b.data) < need {
		newCap := cap(b.data) + cap(b.data)/2
		if newCap < need {
			newCap = need
		}
		grown := make([]byte, need, newCap)
		copy(grown, b.data)
		b.data = grown
	} else {
		b.data = b.data[:need]
	}
	b.byteLength += amount
}

// AppendData grows the buffer and copies data in, returning the byte
// offset the new data now occupies. The offset is relative to the raw
// arena, so it stays valid even when encoded regions have shifted the
// logical length.
func (b *Buffer) AppendData(data []byte) int {
	offset := len(b.data)
	b.Grow(len(data))
	copy(b.data[offset:], data)
	return offset
}

// ReplaceData splices the byte range [offset, offset+count) with repl,
// preserving every byte outside the replaced range. It returns false if
// count or repl is empty or the range falls outside the raw data.
func (b *Buffer) ReplaceData(offset, count int, repl []byte) bool {
	if count == 0 || len(repl) == 0 {
		return false
	}
	if offset < 0 || offset+count > len(b.data) {
		return false
	}

	spliced := make([]byte, 0, len(b.data)-count+len(repl))
	spliced = append(spliced, b.data[:offset]...)
	spliced = append(spliced, repl...)
	spliced = append(spliced, b.data[offset+count:]...)
	b.data = spliced
	b.byteLength = len(spliced)
	return true
}

// MarkEncodedRegion registers [offset, offset+encodedLength) as logically
// replaced by decoded, and adjusts the buffer's visible length so that
// accessor offsets computed afterwards land in decoded coordinates.
func (b *Buffer) MarkEncodedRegion(offset, encodedLength int, decoded []byte, id string) error {
	if decoded == nil {
		return fmt.Errorf("%w: marking an encoded region requires decoded data", ErrInvalidDocument)
	}
	if offset < 0 || offset > b.byteLength {
		return fmt.Errorf("%w: incorrect offset %d for marking encoded region", ErrInvalidDocument, offset)
	}
	if offset+encodedLength > b.byteLength {
		return fmt.Errorf("%w: encoded region %d/%d is out of range", ErrInvalidDocument, offset, encodedLength)
	}

	b.regions = append(b.regions, &EncodedRegion{
		ID:            id,
		Offset:        offset,
		EncodedLength: encodedLength,
		Decoded:       decoded,
	})
	b.byteLength += len(decoded) - encodedLength
	return nil
}

// SetCurrentRegion selects which registered region is active for address
// resolution. At most one region is active at a time.
func (b *Buffer) SetCurrentRegion(id string) error {
	if b.current != nil && b.current.ID == id {
		return nil
	}
	for _, reg := range b.regions {
		if reg.ID == id {
			b.current = reg
			return nil
		}
	}
	return fmt.Errorf("%w: encoded region %q", ErrNotFound, id)
}

// ClearCurrentRegion deactivates the active region, if any.
func (b *Buffer) ClearCurrentRegion() { b.current = nil }

// DecodeRegion zstd-decompresses the byte range [offset, offset+encodedLength)
// of the raw arena and registers the result as an encoded region under id.
func (b *Buffer) DecodeRegion(offset, encodedLength int, id string) error {
	if offset < 0 || offset+encodedLength > len(b.data) {
		return fmt.Errorf("%w: compressed region %d/%d is out of range", ErrInvalidDocument, offset, encodedLength)
	}
	decoded, err := zstd.Decompress(nil, b.data[offset:offset+encodedLength])
	if err != nil {
		return fmt.Errorf("%w: decompress region %q: %v", ErrInvalidDocument, id, err)
	}
	return b.MarkEncodedRegion(offset, encodedLength, decoded, id)
}

// at resolves a logical offset to backing bytes. Offsets that fall within
// the active region's decoded span resolve into the region's storage; all
// others resolve into the raw arena. Returns nil when the buffer holds no
// data or the offset is out of range. The returned slice is invalidated
// by Grow, AppendData and ReplaceData.
func (b *Buffer) at(offset int) []byte {
	if b.current != nil {
		begin := b.current.Offset
		end := begin + len(b.current.Decoded)
		if offset >= begin && offset < end {
			return b.current.Decoded[offset-begin:]
		}
	}
	if b.data == nil || offset < 0 || offset > len(b.data) {
		return nil
	}
	return b.data[offset:]
}

// Bytes returns the raw arena contents. The writer flushes this to the
// buffer's side-file.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) writeTo(obj map[string]any) {
	obj["byteLength"] = b.byteLength
	obj["type"] = b.Kind.String()
	if b.special {
		obj["uri"] = b.ID
	} else {
		obj["uri"] = b.URI()
	}
}
