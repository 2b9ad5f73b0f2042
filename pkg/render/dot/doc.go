// Package dot renders production graphs as Graphviz node-link diagrams.
//
// # Usage
//
// Compute the flow status, convert to DOT, then render to SVG:
//
//	fr := flow.Calculate(g, counts, edgeFlows)
//	src := dot.ToDOT(g, fr, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Machines are rounded boxes labelled with their count. Connections are
// labelled with the product and the flow they carry. Connections into a
// deficient input are drawn red, and machines with an over-producing output
// are filled amber, so imbalances stand out without reading numbers.
//
// Passing a nil flow result draws the topology alone.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion lives in the parent render package.
package dot
