package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/observability"
	"github.com/matzehuels/flowplan/pkg/render"
	"github.com/matzehuels/flowplan/pkg/render/dot"
)

// Render draws snap at its current counts in every requested format. The
// bool reports whether all formats came from the cache.
func (r *Runner) Render(ctx context.Context, snap factory.Snapshot, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeUnsupported, err, "render")
	}

	hash, err := SnapshotHash(snap)
	if err != nil {
		return nil, false, err
	}

	// Try to get all formats from cache
	formats := opts.formatsSorted()
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format)))
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(formats) {
		observability.Cache().OnCacheHit(ctx, "render")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	g, fr := r.calculate(snap)
	rendered, err := RenderGraph(ctx, g, fr, snap.TargetSet(), opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		if err := r.Cache.Set(ctx, r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format)), data, DefaultRenderTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}
	r.Logger.Debug("rendered snapshot", "formats", formats, "nodes", g.NodeCount())
	return rendered, false, nil
}

// RenderGraph generates artifacts for g without caching. fr may be nil.
func RenderGraph(ctx context.Context, g *graph.Graph, fr *flow.Result, targets factory.TargetSet, opts Options) (map[string][]byte, error) {
	dotOpts := dot.Options{
		Detailed:    opts.Detailed,
		LeftToRight: opts.LeftToRight,
		Targets:     make(map[string]bool, len(targets)),
	}
	for id := range targets {
		dotOpts.Targets[id] = true
	}
	src := dot.ToDOT(g, fr, dotOpts)

	var (
		svg  []byte
		conv render.Converter
	)
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		if format == FormatDOT {
			artifacts[format] = []byte(src)
			continue
		}
		if svg == nil {
			var err error
			if svg, err = dot.RenderSVG(ctx, src); err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
		}

		var data []byte
		var err error
		switch format {
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = conv.PNG(ctx, svg)
		case FormatPDF:
			data, err = conv.PDF(ctx, svg)
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
