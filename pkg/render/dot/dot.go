package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
)

// Colors used to flag imbalances.
const (
	colorDeficient = "#d1495b"
	colorExcess    = "#f6c85f"
	colorTarget    = "#6f9ceb"
)

// Options configures diagram generation.
type Options struct {
	// Detailed lists every handle with its needed or produced rate.
	Detailed bool
	// Targets are outlined in blue.
	Targets map[string]bool
	// LeftToRight lays the graph out horizontally.
	LeftToRight bool
}

// ToDOT converts a graph to Graphviz DOT. fr may be nil.
func ToDOT(g *graph.Graph, fr *flow.Result, opts Options) string {
	rankdir := "TB"
	if opts.LeftToRight {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	deficient := make(map[graph.HandleRef]bool)
	excess := make(map[string]bool)
	if fr != nil {
		for _, d := range fr.Deficiencies() {
			deficient[graph.HandleRef{NodeID: d.NodeID, Index: d.InputIndex}] = true
		}
		for _, e := range fr.Excesses() {
			excess[e.NodeID] = true
		}
	}

	for _, n := range g.Nodes() {
		var nf *flow.NodeFlow
		if fr != nil {
			nf, _ = fr.Node(n.ID)
		}
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, nf, opts.Detailed))}
		if excess[n.ID] {
			attrs = append(attrs, "fillcolor=\""+colorExcess+"\"")
		}
		if opts.Targets[n.ID] {
			attrs = append(attrs, "color=\""+colorTarget+"\"", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		label := e.ProductID
		if fr != nil {
			if v, ok := fr.Edge(e.ID); ok {
				label += "\n" + fmtRate(v)
			}
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if deficient[graph.HandleRef{NodeID: e.To, Index: e.ToIndex}] {
			attrs = append(attrs, "color=\""+colorDeficient+"\"", "fontcolor=\""+colorDeficient+"\"", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *graph.Node, nf *flow.NodeFlow, detailed bool) string {
	label := fmt.Sprintf("%s\n×%s", n.ID, strconv.FormatFloat(n.MachineCount, 'f', -1, 64))
	if nf != nil {
		label = fmt.Sprintf("%s\n×%s", n.ID, strconv.FormatFloat(nf.MachineCount, 'f', -1, 64))
	}
	if !detailed || nf == nil {
		return label
	}

	var parts []string
	for _, s := range nf.Inputs {
		parts = append(parts, fmtSlot("in", s, s.Needed))
	}
	for _, s := range nf.Outputs {
		parts = append(parts, fmtSlot("out", s, s.Produced))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtSlot(prefix string, s flow.SlotFlow, amount float64) string {
	if !s.Known {
		return fmt.Sprintf("%s %s: variable", prefix, s.ProductID)
	}
	return fmt.Sprintf("%s %s: %s", prefix, s.ProductID, fmtRate(amount))
}

func fmtRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "/s"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the drawing scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
