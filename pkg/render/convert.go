package render

import (
	"bytes"
	"os/exec"
	"strconv"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

// Formats lists the output formats renderers accept.
var Formats = []string{"dot", "svg", "pdf", "png"}

// ToPDF converts SVG to PDF with rsvg-convert.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(svg []byte) ([]byte, error) {
	return convert(svg, "-f", "pdf")
}

// ToPNG converts SVG to PNG with rsvg-convert. scale multiplies the SVG's
// natural size; values <= 0 mean 1.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(svg, "-f", "png", "-z", strconv.FormatFloat(scale, 'f', -1, 64))
}

func convert(svg []byte, args ...string) ([]byte, error) {
	bin, err := exec.LookPath("rsvg-convert")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err, "rsvg-convert not found (install librsvg)")
	}
	var out, stderr bytes.Buffer
	cmd := exec.Command(bin, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rsvg-convert: %s", bytes.TrimSpace(stderr.Bytes()))
	}
	return out.Bytes(), nil
}
