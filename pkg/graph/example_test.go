package graph_test

import (
	"fmt"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/graph"
)

func ExampleBuild() {
	nodes := []factory.Node{
		{ID: "miner", Outputs: []factory.Slot{{ProductID: "ore", Quantity: factory.Fixed(1)}}, CycleTime: factory.Fixed(2)},
		{ID: "smelter", Inputs: []factory.Slot{{ProductID: "ore", Quantity: factory.Fixed(1)}}, CycleTime: factory.Fixed(3.2)},
	}
	conns := []factory.Connection{
		{ID: "c1", SourceNodeID: "miner", TargetNodeID: "smelter"},
		{ID: "stale", SourceNodeID: "deleted", TargetNodeID: "smelter"},
	}

	g := graph.Build(nodes, conns, nil)
	miner, _ := g.Node("miner")
	fmt.Println("edges:", g.EdgeCount())
	fmt.Println("dropped:", g.Dropped())
	fmt.Println("ore per miner:", miner.Outputs[0].Rate.PerMachine)
	// Output:
	// edges: 1
	// dropped: [stale]
	// ore per miner: 0.5
}
