package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

// WriteJSON encodes d as indented JSON. The output can be read back with
// [ReadJSON].
func WriteJSON(d *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode json")
	}
	return nil
}

// WriteTOML encodes d as TOML.
func WriteTOML(d *Document, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(d); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode toml")
	}
	return nil
}

// Export writes d to path, choosing the encoder by extension.
func Export(d *Document, path string) error {
	var write func(*Document, io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		write = WriteJSON
	case ".toml":
		write = WriteTOML
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported document format %q (use .json or .toml)", ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return write(d, f)
}
