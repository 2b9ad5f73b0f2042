package solver

import (
	"context"
	"time"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/observability"
	"github.com/matzehuels/flowplan/pkg/solver/ratio"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// PropagateFromEdit rescales every node connected to nodeID by
// newCount/oldCount.
func PropagateFromEdit(nodes []factory.Node, conns []factory.Connection, nodeID string, oldCount, newCount float64) map[string]float64 {
	return Propagate(context.Background(), nodes, conns, ratio.Edit{NodeID: nodeID, OldCount: oldCount, NewCount: newCount}, nil)
}

// PropagateFromHandle is PropagateFromEdit that does not cross the given
// handle.
func PropagateFromHandle(nodes []factory.Node, conns []factory.Connection, nodeID string, side graph.Side, idx int, oldCount, newCount float64) map[string]float64 {
	return Propagate(context.Background(), nodes, conns, ratio.Edit{
		NodeID:   nodeID,
		OldCount: oldCount,
		NewCount: newCount,
		Handle:   &ratio.Handle{Side: side, Index: idx},
	}, nil)
}

// Propagate builds the graph and runs one ratio propagation, recording its
// passes to rec when non-nil.
func Propagate(ctx context.Context, nodes []factory.Node, conns []factory.Connection, e ratio.Edit, rec *trace.Recorder) map[string]float64 {
	start := time.Now()
	out := ratio.Propagate(graph.Build(nodes, conns, nil), e, rec)
	observability.Solver().OnPropagate(ctx, len(out), time.Since(start))
	return out
}
