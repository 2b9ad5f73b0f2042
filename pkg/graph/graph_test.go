package graph

import (
	"slices"
	"testing"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
)

func slot(product string, q float64) factory.Slot {
	return factory.Slot{ProductID: product, Quantity: factory.Fixed(q)}
}

func conn(id, from string, fromIdx int, to string, toIdx int) factory.Connection {
	return factory.Connection{ID: id, SourceNodeID: from, SourceOutputIndex: fromIdx, TargetNodeID: to, TargetInputIndex: toIdx}
}

// chain builds miner -> smelter -> assembler.
func chain() ([]factory.Node, []factory.Connection) {
	nodes := []factory.Node{
		{ID: "miner", Outputs: []factory.Slot{slot("ore", 1)}, CycleTime: factory.Fixed(2), MachineCount: 2},
		{ID: "smelter", Inputs: []factory.Slot{slot("ore", 1)}, Outputs: []factory.Slot{slot("plate", 1)}, CycleTime: factory.Fixed(3.2), MachineCount: 1},
		{ID: "asm", Inputs: []factory.Slot{slot("plate", 2)}, Outputs: []factory.Slot{slot("gear", 1)}, CycleTime: factory.Fixed(0.5), MachineCount: 1},
	}
	conns := []factory.Connection{
		conn("c1", "miner", 0, "smelter", 0),
		conn("c2", "smelter", 0, "asm", 0),
	}
	return nodes, conns
}

func TestBuildResolvesRates(t *testing.T) {
	nodes := []factory.Node{
		{ID: "std", Inputs: []factory.Slot{slot("a", 4)}, Outputs: []factory.Slot{{ProductID: "b", Quantity: factory.Variable()}}, CycleTime: factory.Fixed(2)},
		{ID: "rate", Outputs: []factory.Slot{slot("a", 7.5)}, CycleTime: factory.Fixed(100), RateModel: true},
		{ID: "varcycle", Outputs: []factory.Slot{slot("a", 1)}, CycleTime: factory.Variable()},
	}
	g := Build(nodes, nil, nil)

	std, _ := g.Node("std")
	if r := std.Inputs[0].Rate; !r.Known || r.PerMachine != 2 {
		t.Errorf("std input rate = %+v, want 2/s", r)
	}
	if std.Outputs[0].Rate.Known {
		t.Error("variable quantity must leave the slot unresolved")
	}

	rate, _ := g.Node("rate")
	if r := rate.Outputs[0].Rate; !r.Known || r.PerMachine != 7.5 {
		t.Errorf("rate-model output = %+v, want 7.5/s", r)
	}

	vc, _ := g.Node("varcycle")
	if vc.Outputs[0].Rate.Known {
		t.Error("variable cycle time must leave the slot unresolved")
	}
}

func TestBuildAppliesKind(t *testing.T) {
	nodes := []factory.Node{{
		ID:        "asm",
		Outputs:   []factory.Slot{slot("gear", 1)},
		CycleTime: factory.Fixed(1),
		Kind:      factory.Assembler{Speed: 4},
	}}
	g := Build(nodes, nil, nil)
	n, _ := g.Node("asm")
	if got := n.Outputs[0].Rate.PerMachine; got != 4 {
		t.Errorf("rate = %v, want 4", got)
	}
}

func TestBuildIndexesProducts(t *testing.T) {
	nodes, conns := chain()
	g := Build(nodes, conns, nil)

	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("counts = %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	ore, ok := g.Product("ore")
	if !ok {
		t.Fatal("ore not indexed")
	}
	if len(ore.Producers) != 1 || ore.Producers[0].NodeID != "miner" {
		t.Errorf("ore producers = %v", ore.Producers)
	}
	if len(ore.Consumers) != 1 || ore.Consumers[0].NodeID != "smelter" {
		t.Errorf("ore consumers = %v", ore.Consumers)
	}
	if !slices.Equal(ore.Connections, []string{"c1"}) {
		t.Errorf("ore connections = %v", ore.Connections)
	}
	if got := g.ProductIDs(); !slices.Equal(got, []string{"gear", "ore", "plate"}) {
		t.Errorf("ProductIDs() = %v", got)
	}
}

func TestBuildDropsDrift(t *testing.T) {
	nodes, conns := chain()
	conns = append(conns,
		conn("ghost-src", "nowhere", 0, "asm", 0),
		conn("ghost-dst", "miner", 0, "nowhere", 0),
		conn("bad-out", "miner", 3, "smelter", 0),
		conn("bad-in", "miner", 0, "smelter", 5),
		conn("mismatch", "miner", 0, "asm", 0),
		conn("c1", "miner", 0, "smelter", 0),
	)
	g := Build(nodes, conns, nil)

	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	want := []string{"ghost-src", "ghost-dst", "bad-out", "bad-in", "mismatch", "c1"}
	if got := g.Dropped(); !slices.Equal(got, want) {
		t.Errorf("Dropped() = %v, want %v", got, want)
	}
	for _, id := range g.ProductIDs() {
		p, _ := g.Product(id)
		for _, c := range p.Connections {
			if _, ok := g.Edge(c); !ok {
				t.Errorf("product %s references dropped connection %s", id, c)
			}
		}
	}
}

func TestBuildWildcard(t *testing.T) {
	nodes := []factory.Node{
		{ID: "src", Outputs: []factory.Slot{slot("water", 10)}, RateModel: true},
		{ID: "tank", Inputs: []factory.Slot{slot(factory.AnyProduct, 1)}, CycleTime: factory.Variable()},
		{ID: "pump", Outputs: []factory.Slot{slot(factory.AnyProduct, 5)}, RateModel: true},
		{ID: "boiler", Inputs: []factory.Slot{slot("water", 6)}, RateModel: true},
	}
	conns := []factory.Connection{
		conn("w1", "src", 0, "tank", 0),
		conn("w2", "pump", 0, "boiler", 0),
	}
	g := Build(nodes, conns, nil)

	w1, ok := g.Edge("w1")
	if !ok || w1.ProductID != "water" {
		t.Errorf("w1 = %+v, want water edge", w1)
	}
	w2, ok := g.Edge("w2")
	if !ok || w2.ProductID != "water" {
		t.Errorf("w2 = %+v, want water edge", w2)
	}
	water, _ := g.Product("water")
	wild, _ := g.Product(factory.AnyProduct)
	if !slices.Equal(water.Connections, []string{"w1", "w2"}) {
		t.Errorf("water connections = %v", water.Connections)
	}
	if !slices.Equal(wild.Connections, []string{"w1", "w2"}) {
		t.Errorf("any connections = %v", wild.Connections)
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	nodes, conns := chain()
	g := Build(nodes, conns, nil)
	nodes[0].MachineCount = 99
	nodes[0].Outputs[0].ProductID = "changed"
	n, _ := g.Node("miner")
	if n.MachineCount != 2 || n.Outputs[0].ProductID != "ore" {
		t.Error("graph aliases caller nodes")
	}
}

func TestTraversal(t *testing.T) {
	nodes, conns := chain()
	nodes = append(nodes, factory.Node{ID: "island", CycleTime: factory.Fixed(1)})
	g := Build(nodes, conns, nil)

	if got := g.Reachable("smelter", nil); !slices.Equal(got, []string{"smelter", "miner", "asm"}) {
		t.Errorf("Reachable(smelter) = %v", got)
	}
	if got := g.Reachable("smelter", map[string]bool{"miner": true}); !slices.Equal(got, []string{"smelter", "asm"}) {
		t.Errorf("Reachable with exclusion = %v", got)
	}
	if got := g.Reachable("nope", nil); got != nil {
		t.Errorf("Reachable(unknown) = %v, want nil", got)
	}
	if got := g.Upstream("asm"); !slices.Equal(got, []string{"smelter", "miner"}) {
		t.Errorf("Upstream(asm) = %v", got)
	}
	if got := g.Downstream("miner"); !slices.Equal(got, []string{"smelter", "asm"}) {
		t.Errorf("Downstream(miner) = %v", got)
	}
	if got := g.DependencySet([]string{"smelter", "ghost"}); !slices.Equal(got, []string{"miner", "smelter"}) {
		t.Errorf("DependencySet = %v", got)
	}
	if got := g.Neighbors("smelter"); !slices.Equal(got, []string{"asm", "miner"}) {
		t.Errorf("Neighbors = %v", got)
	}
}

func TestSupplyRegion(t *testing.T) {
	nodes, conns := chain()
	g := Build(nodes, conns, nil)

	tests := []struct {
		name string
		id   string
		stop map[string]bool
		want []string
	}{
		{name: "no stop", id: "asm", want: []string{"asm", "smelter", "miner"}},
		{name: "stops at node", id: "asm", stop: map[string]bool{"smelter": true}, want: []string{"asm"}},
		{name: "start stopped", id: "asm", stop: map[string]bool{"asm": true}, want: nil},
		{name: "unknown", id: "ghost", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.SupplyRegion(tt.id, tt.stop); !slices.Equal(got, tt.want) {
				t.Errorf("SupplyRegion(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestSelfLoop(t *testing.T) {
	loop := []factory.Node{{
		ID:        "reactor",
		Inputs:    []factory.Slot{slot("fuel", 1)},
		Outputs:   []factory.Slot{slot("fuel", 2)},
		CycleTime: factory.Fixed(1),
	}}
	g := Build(loop, []factory.Connection{conn("self", "reactor", 0, "reactor", 0)}, nil)
	if got := g.Upstream("reactor"); !slices.Equal(got, []string{"reactor"}) {
		t.Errorf("Upstream of self-loop = %v", got)
	}
	if got := g.Neighbors("reactor"); len(got) != 0 {
		t.Errorf("Neighbors excludes self, got %v", got)
	}
}

func TestCategory(t *testing.T) {
	cat, err := factory.NewCatalog(factory.Product{ID: "water", Category: factory.CategoryFluid})
	if err != nil {
		t.Fatal(err)
	}
	g := Build(nil, nil, cat)
	if g.Category("water") != factory.CategoryFluid || g.Category("ore") != factory.CategoryItem {
		t.Error("Category should consult the catalog")
	}
}

func TestParseSide(t *testing.T) {
	for _, want := range []Side{SideInput, SideOutput} {
		got, err := ParseSide(want.String())
		if err != nil || got != want {
			t.Errorf("ParseSide(%q) = %v, %v", want.String(), got, err)
		}
	}
	if _, err := ParseSide("left"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseSide(left) error = %v, want INVALID_INPUT", err)
	}
}
