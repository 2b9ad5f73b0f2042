// Package render turns production graphs into images.
//
// The [dot] subpackage writes Graphviz DOT and lays it out as SVG in
// process. A [Converter] takes that SVG on to PNG or PDF through the
// external rsvg-convert tool from librsvg; when the tool is missing the
// conversion fails with an UNSUPPORTED error and DOT/SVG output still works.
//
//	svg, err := dot.RenderSVG(ctx, dot.ToDOT(g, fr, dot.Options{}))
//	pdf, err := render.Converter{}.PDF(ctx, svg)
//	png, err := render.Converter{Scale: 3}.PNG(ctx, svg)
package render
