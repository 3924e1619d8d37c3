package asset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goopsie/gltfkit/pkg/glb"
)

// manifest serializes the document's materialized object graph into the
// manifest tree.
func (d *Document) manifest() ([]byte, error) {
	root := make(map[string]any)
	d.Asset.write(root)
	for _, dict := range d.dicts {
		dict.writeObjects(root)
	}
	if d.Scene != nil {
		root["scene"] = d.Scene.ID
	}

	data, err := json.MarshalIndent(root, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return data, nil
}

// Save writes the manifest to path and each non-embedded buffer's
// contents to an "<id>.bin" side-file beside it.
func (d *Document) Save(path string) error {
	data, err := d.manifest()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: could not write manifest %q: %v", ErrIO, path, err)
	}

	dir := filepath.Dir(path)
	for i := 0; i < d.Buffers.Len(); i++ {
		buf, _ := d.Buffers.GetByIndex(i)
		if buf.Special() || len(buf.Bytes()) == 0 {
			continue
		}
		side := filepath.Join(dir, buf.URI())
		if err := os.WriteFile(side, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("%w: could not write buffer file %q: %v", ErrIO, side, err)
		}
	}
	return nil
}

// SaveBinary writes the document as a single binary container: the fixed
// header, the manifest text and the embedded body payload.
func (d *Document) SaveBinary(path string) error {
	var body []byte
	if d.bodyBuffer != nil {
		body = d.bodyBuffer.Bytes()
	}

	data, err := d.manifest()
	if err != nil {
		return err
	}

	header := glb.NewHeader(uint32(len(data)), uint32(len(body)))
	headerBuf := make([]byte, glb.HeaderSize)
	header.EncodeTo(headerBuf)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: could not create %q: %v", ErrIO, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(headerBuf); err != nil {
		return fmt.Errorf("%w: could not write container header: %v", ErrIO, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: could not write manifest contents: %v", ErrIO, err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("%w: could not write body payload: %v", ErrIO, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: flush %q: %v", ErrIO, path, err)
	}
	return nil
}
