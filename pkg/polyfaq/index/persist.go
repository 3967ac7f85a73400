package index

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
)

// Write encodes ix as indented JSON.
func Write(w io.Writer, ix *SearchIndex) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ix); err != nil {
		return errors.Wrap(err, "encode index")
	}
	return nil
}

// Read decodes and validates an index.
func Read(r io.Reader) (*SearchIndex, error) {
	var ix SearchIndex
	if err := json.NewDecoder(r).Decode(&ix); err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidIndex, "decode: %v", err)
	}
	if err := ix.Validate(); err != nil {
		return nil, err
	}
	return &ix, nil
}

// SaveFile validates ix and writes it to path atomically: a temp file in
// the same directory is renamed over the target. An invalid index leaves
// the target untouched.
func SaveFile(path string, ix *SearchIndex) error {
	if err := ix.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, ix); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}

// LoadFile reads and validates an index file.
func LoadFile(path string) (*SearchIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open index %s", path)
	}
	defer f.Close()

	ix, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return ix, nil
}
