package flow_test

import (
	"fmt"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
)

func ExampleCalculate() {
	nodes := []factory.Node{
		{ID: "miner", Outputs: []factory.Slot{{ProductID: "ore", Quantity: factory.Fixed(1)}}, CycleTime: factory.Fixed(2), MachineCount: 1},
		{ID: "furnace", Inputs: []factory.Slot{{ProductID: "ore", Quantity: factory.Fixed(1)}}, CycleTime: factory.Fixed(1), MachineCount: 1},
	}
	conns := []factory.Connection{{ID: "c1", SourceNodeID: "miner", TargetNodeID: "furnace"}}
	g := graph.Build(nodes, conns, nil)

	r := flow.Calculate(g, nil, nil)
	for _, d := range r.Deficiencies() {
		fmt.Printf("%s needs %.1f/s, gets %.1f/s\n", d.NodeID, d.Needed, d.Connected)
	}
	// Output:
	// furnace needs 1.0/s, gets 0.5/s
}
