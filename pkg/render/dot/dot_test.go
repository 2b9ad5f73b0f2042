package dot

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
)

func slot(product string, q float64) factory.Slot {
	return factory.Slot{ProductID: product, Quantity: factory.Fixed(q)}
}

// starved builds a miner that delivers half of what the furnace needs.
func starved() *graph.Graph {
	nodes := []factory.Node{
		{ID: "miner", Outputs: []factory.Slot{slot("ore", 1)}, CycleTime: factory.Fixed(2), MachineCount: 1},
		{ID: "furnace", Inputs: []factory.Slot{slot("ore", 1)}, CycleTime: factory.Fixed(1), MachineCount: 1},
	}
	conns := []factory.Connection{{ID: "c1", SourceNodeID: "miner", TargetNodeID: "furnace"}}
	return graph.Build(nodes, conns, nil)
}

func TestToDOTTopologyOnly(t *testing.T) {
	out := ToDOT(starved(), nil, Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=TB;",
		`"miner" [label="miner\n×1"];`,
		`"miner" -> "furnace" [label="ore"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, colorDeficient) {
		t.Error("topology-only output must not flag deficiencies")
	}
}

func TestToDOTFlagsDeficiency(t *testing.T) {
	g := starved()
	out := ToDOT(g, flow.Calculate(g, nil, nil), Options{Detailed: true, LeftToRight: true})

	for _, want := range []string{
		"rankdir=LR;",
		`label="ore\n0.50/s", color="` + colorDeficient + `"`,
		`in ore: 1.00/s`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, out)
		}
	}
}

func TestToDOTMarksExcessAndTargets(t *testing.T) {
	nodes := []factory.Node{
		{ID: "miner", Outputs: []factory.Slot{slot("ore", 4)}, CycleTime: factory.Fixed(1), MachineCount: 1},
		{ID: "furnace", Inputs: []factory.Slot{slot("ore", 1)}, CycleTime: factory.Fixed(1), MachineCount: 1},
	}
	conns := []factory.Connection{{ID: "c1", SourceNodeID: "miner", TargetNodeID: "furnace"}}
	g := graph.Build(nodes, conns, nil)

	out := ToDOT(g, flow.Calculate(g, nil, nil), Options{Targets: map[string]bool{"furnace": true}})
	if !strings.Contains(out, `"miner" [label="miner\n×1", fillcolor="`+colorExcess+`"]`) {
		t.Errorf("excess producer not filled:\n%s", out)
	}
	if !strings.Contains(out, `color="`+colorTarget+`"`) {
		t.Errorf("target not outlined:\n%s", out)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}
