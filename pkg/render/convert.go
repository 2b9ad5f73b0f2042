package render

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/flowplan/pkg/errors"
)

// DefaultBinary is the librsvg command-line converter.
const DefaultBinary = "rsvg-convert"

// DefaultScale is the PNG zoom factor; 2 keeps labels sharp on HiDPI screens.
const DefaultScale = 2.0

// Converter turns rendered SVG into PNG or PDF by piping it through
// rsvg-convert. The zero value uses DefaultBinary and DefaultScale.
type Converter struct {
	Binary string
	Scale  float64
}

func (c Converter) binary() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

// Available reports whether the converter binary is on PATH.
func (c Converter) Available() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

// PNG rasterizes svg at the converter's scale.
func (c Converter) PNG(ctx context.Context, svg []byte) ([]byte, error) {
	scale := c.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	return c.run(ctx, svg, "png", "--zoom", strconv.FormatFloat(scale, 'f', 2, 64))
}

// PDF converts svg to a single-page PDF.
func (c Converter) PDF(ctx context.Context, svg []byte) ([]byte, error) {
	return c.run(ctx, svg, "pdf")
}

func (c Converter) run(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(c.binary())
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s output needs %s (apt install librsvg2-bin, brew install librsvg)", format, c.binary())
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", c.binary(), strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
