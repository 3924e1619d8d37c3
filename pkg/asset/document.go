// Package asset implements a reader/writer for JSON-manifest scene
// documents with binary payload buffers. Objects are addressed by
// document-unique string ids and materialize lazily, in reference order,
// as the designated root scene is resolved.
package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goopsie/gltfkit/pkg/glb"
)

// bodyBufferID is the id of the embedded body buffer of binary documents.
const bodyBufferID = "binary_glTF"

// idRegistry enforces the single global id namespace across every
// dictionary of one document.
type idRegistry struct {
	used map[string]struct{}
}

func newIDRegistry() *idRegistry {
	return &idRegistry{used: make(map[string]struct{})}
}

func (r *idRegistry) reserve(id string) { r.used[id] = struct{}{} }

func (r *idRegistry) has(id string) bool {
	_, ok := r.used[id]
	return ok
}

// Document owns one lazy dictionary per object kind plus the body buffer
// of binary-embedded documents. A document and everything it owns is
// scoped to one load-or-export session and is not safe for concurrent
// use.
type Document struct {
	log *zap.Logger
	dir string

	ids   *idRegistry
	dicts []section

	Asset Metadata
	Scene *Scene

	Buffers     *Dict[Buffer, *Buffer]
	BufferViews *Dict[BufferView, *BufferView]
	Accessors   *Dict[Accessor, *Accessor]
	Meshes      *Dict[Mesh, *Mesh]
	Materials   *Dict[Material, *Material]
	Skins       *Dict[Skin, *Skin]
	Nodes       *Dict[Node, *Node]
	Scenes      *Dict[Scene, *Scene]

	bodyBuffer *Buffer
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for tolerated load conditions.
func WithLogger(log *zap.Logger) Option {
	return func(d *Document) {
		d.log = log
	}
}

// NewDocument creates an empty document ready for export or loading.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		log: zap.NewNop(),
		ids: newIDRegistry(),
	}

	d.Buffers = newDict[Buffer, *Buffer](d, "buffers", "")
	d.BufferViews = newDict[BufferView, *BufferView](d, "bufferViews", "")
	d.Accessors = newDict[Accessor, *Accessor](d, "accessors", "")
	d.Meshes = newDict[Mesh, *Mesh](d, "meshes", "")
	d.Materials = newDict[Material, *Material](d, "materials", "")
	d.Skins = newDict[Skin, *Skin](d, "skins", "")
	d.Nodes = newDict[Node, *Node](d, "nodes", "")
	d.Scenes = newDict[Scene, *Scene](d, "scenes", "")

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load opens the manifest at path, parses it and resolves the designated
// root scene. When binary is set the file is a binary container whose
// header locates the manifest text and the embedded body.
func Load(path string, binary bool, opts ...Option) (*Document, error) {
	doc := NewDocument(opts...)
	if err := doc.Load(path, binary); err != nil {
		return nil, err
	}
	return doc, nil
}

// BodyBuffer returns the embedded body buffer of a binary document, or
// nil for plain-text documents.
func (d *Document) BodyBuffer() *Buffer { return d.bodyBuffer }

// Dir returns the directory buffer uris resolve against.
func (d *Document) Dir() string { return d.dir }

// SetAsBinary creates the special body buffer of a binary document. On
// load it must exist before the manifest JSON is touched, so that buffer
// entries referencing the body resolve to it instead of reading a uri.
func (d *Document) SetAsBinary() error {
	if d.bodyBuffer != nil {
		return nil
	}
	body, err := d.Buffers.Create(bodyBufferID)
	if err != nil {
		return err
	}
	body.MarkSpecial()
	d.bodyBuffer = body
	return nil
}

// Load reads the manifest (and, for binary containers, the body payload)
// at path into this document. See the package-level Load.
func (d *Document) Load(path string, binary bool) error {
	d.dir = filepath.Dir(path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: could not open %q: %v", ErrIO, path, err)
	}
	defer f.Close()

	var sceneLength, bodyOffset, bodyLength int64
	if binary {
		if err := d.SetAsBinary(); err != nil {
			return err
		}
		var headerBuf [glb.HeaderSize]byte
		if _, err := io.ReadFull(f, headerBuf[:]); err != nil {
			return fmt.Errorf("%w: could not read container header: %v", ErrIO, err)
		}
		header := &glb.Header{}
		if err := header.UnmarshalBinary(headerBuf[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		sceneLength = int64(header.SceneLength)
		bodyOffset = header.BodyOffset()
		bodyLength = header.BodyLength()
	} else {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("%w: could not stat %q: %v", ErrIO, path, err)
		}
		sceneLength = info.Size()
	}

	// The smallest legal manifest is "{}"; the binary container
	// addresses the manifest length as a 32-bit value.
	if sceneLength < 2 {
		return fmt.Errorf("%w: no manifest contents", ErrInvalidDocument)
	}
	if sceneLength >= math.MaxUint32 {
		return fmt.Errorf("%w: manifest larger than 4GiB", ErrInvalidDocument)
	}

	sceneData := make([]byte, sceneLength)
	if _, err := io.ReadFull(f, sceneData); err != nil {
		return fmt.Errorf("%w: could not read manifest contents: %v", ErrIO, err)
	}

	root, err := parseManifest(sceneData)
	if err != nil {
		return err
	}

	// Fill the body buffer with the file's embedded contents.
	if bodyLength > 0 {
		if err := d.bodyBuffer.LoadFromStream(f, bodyLength, bodyOffset); err != nil {
			return fmt.Errorf("%w: could not read body payload: %v", ErrIO, err)
		}
	}

	d.Asset.read(root)
	if !d.Asset.Supported() {
		d.log.Warn("unsupported asset version, leaving document empty",
			zap.String("version", d.Asset.Version))
		return nil
	}

	for _, dict := range d.dicts {
		dict.attach(root)
	}
	defer func() {
		for _, dict := range d.dicts {
			dict.detach()
		}
	}()

	// Resolving the designated scene recursively materializes everything
	// it references.
	if rawScene, ok := root["scene"]; ok {
		var sceneID string
		if err := json.Unmarshal(rawScene, &sceneID); err != nil {
			return fmt.Errorf("%w: \"scene\" is not a string", ErrInvalidDocument)
		}
		scene, err := d.Scenes.Get(sceneID)
		if err != nil {
			return err
		}
		d.Scene = scene
	}
	return nil
}

// parseManifest parses the manifest text into its top-level sections.
func parseManifest(data []byte) (map[string]json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: offset %d: %v", ErrParse, syntaxErr.Offset, err)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: manifest root must be a JSON object", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return root, nil
}

// FindUniqueID returns an id not yet used anywhere in the document,
// starting from the given base and suffix.
func (d *Document) FindUniqueID(base, suffix string) string {
	if base == "" && suffix == "" {
		return uuid.NewString()
	}

	id := base
	if id != "" {
		if !d.ids.has(id) {
			return id
		}
		id += "_"
	}
	id += suffix
	if !d.ids.has(id) {
		return id
	}

	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s_%d", id, i)
		if !d.ids.has(candidate) {
			return candidate
		}
	}
}
