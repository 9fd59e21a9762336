package io

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/httputil"
	"github.com/matzehuels/hapaudit/pkg/observability"
)

// IsURL reports whether src names an http or https resource.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open imports src, which is either a local path or a URL downloaded with
// f. f may be nil for local paths.
func Open(ctx context.Context, src string, f *httputil.Fetcher) (*Document, error) {
	if !IsURL(src) {
		return Import(ctx, src)
	}
	if f == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "cannot download %s without a fetcher", src)
	}
	return ImportURL(ctx, f, src)
}

// ImportURL downloads the document at rawURL, choosing the decoder by the
// extension of the URL path. Relative FASTA names are resolved against
// rawURL.
func ImportURL(ctx context.Context, f *httputil.Fetcher, rawURL string) (d *Document, err error) {
	hooks := observability.Audit()
	hooks.OnImportStart(ctx, rawURL)
	start := time.Now()
	defer func() {
		blocks := 0
		if d != nil {
			blocks = len(d.Blocks)
		}
		hooks.OnImportComplete(ctx, rawURL, blocks, time.Since(start), err)
	}()

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "parse %s", rawURL)
	}
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(path.Ext(base.Path)); ext {
	case ".json":
		d, err = ReadJSON(bytes.NewReader(body))
	case ".toml":
		d, err = ReadTOML(bytes.NewReader(body))
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported document format %q (use .json or .toml)", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", rawURL)
	}
	err = d.fillFASTA(func(name string) (io.ReadCloser, error) {
		ref, err := url.Parse(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "parse %s", name)
		}
		data, err := f.Get(ctx, base.ResolveReference(ref).String())
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
