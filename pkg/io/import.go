package io

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/observability"
)

// ReadJSON decodes a document from r. FASTA files named by the document are
// not loaded; see [Document.LoadFASTA].
func ReadJSON(r io.Reader) (*Document, error) {
	var d Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	return &d, nil
}

// ReadTOML decodes a document from r.
func ReadTOML(r io.Reader) (*Document, error) {
	var d Document
	md, err := toml.NewDecoder(r).Decode(&d)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown key %q", keys[0].String())
	}
	return &d, nil
}

// Import reads the document at path, choosing the decoder by extension,
// and fills missing bases from its FASTA files.
func Import(ctx context.Context, path string) (d *Document, err error) {
	hooks := observability.Audit()
	hooks.OnImportStart(ctx, path)
	start := time.Now()
	defer func() {
		blocks := 0
		if d != nil {
			blocks = len(d.Blocks)
		}
		hooks.OnImportComplete(ctx, path, blocks, time.Since(start), err)
	}()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		d, err = ReadJSON(f)
	case ".toml":
		d, err = ReadTOML(f)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported document format %q (use .json or .toml)", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	if err := d.LoadFASTA(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return d, nil
}
