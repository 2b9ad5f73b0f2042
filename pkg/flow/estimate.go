package flow

import (
	"github.com/matzehuels/flowplan/pkg/graph"
)

// Estimate assigns a flow to every connection without solving anything.
//
// Each connection first requests its share of the target handle's need,
// where the share is the source's production relative to every producer
// feeding that handle (an even split when none of them produces anything).
// A Variable target handle requests an even share of the source production.
// Each source handle then grants its requests scaled by
// min(1, produced / requested). Variable sources grant every request in
// full.
func Estimate(g *graph.Graph, counts map[string]float64) map[string]float64 {
	request := make(map[string]float64, g.EdgeCount())

	for _, n := range g.Nodes() {
		count := CountOf(g, counts, n.ID)
		for i, s := range n.Inputs {
			in := g.IncomingToSlot(n.ID, i)
			if len(in) == 0 {
				continue
			}
			if !s.Rate.Known {
				for _, e := range in {
					request[e.ID] = evenShare(g, counts, e)
				}
				continue
			}
			need := s.Rate.PerMachine * count
			supply := make([]float64, len(in))
			total := 0.0
			for k, e := range in {
				supply[k] = produced(g, counts, e.From, e.FromIndex)
				total += supply[k]
			}
			for k, e := range in {
				if total <= Epsilon {
					request[e.ID] = need / float64(len(in))
					continue
				}
				request[e.ID] = need * supply[k] / total
			}
		}
	}

	flows := make(map[string]float64, len(request))
	for _, n := range g.Nodes() {
		for i, s := range n.Outputs {
			out := g.OutgoingFromSlot(n.ID, i)
			if len(out) == 0 {
				continue
			}
			factor := 1.0
			if s.Rate.Known {
				asked := 0.0
				for _, e := range out {
					asked += request[e.ID]
				}
				if have := s.Rate.PerMachine * CountOf(g, counts, n.ID); asked > have {
					factor = have / asked
				}
			}
			for _, e := range out {
				flows[e.ID] = request[e.ID] * factor
			}
		}
	}
	return flows
}

// produced returns the output of one source handle, or 0 when the handle is
// Variable.
func produced(g *graph.Graph, counts map[string]float64, id string, idx int) float64 {
	n, ok := g.Node(id)
	if !ok {
		return 0
	}
	s, ok := n.Slot(graph.SideOutput, idx)
	if !ok || !s.Rate.Known {
		return 0
	}
	return s.Rate.PerMachine * CountOf(g, counts, id)
}

// evenShare splits a source handle's production across its connections.
func evenShare(g *graph.Graph, counts map[string]float64, e graph.Edge) float64 {
	out := g.OutgoingFromSlot(e.From, e.FromIndex)
	if len(out) == 0 {
		return 0
	}
	return produced(g, counts, e.From, e.FromIndex) / float64(len(out))
}

// Fill returns partial extended with an estimated flow for every connection
// it lacks. Estimates leaving one source handle are scaled so the handle
// ships no more than what remains after the flows already in partial.
func Fill(g *graph.Graph, counts, partial map[string]float64) map[string]float64 {
	est := Estimate(g, counts)
	flows := make(map[string]float64, g.EdgeCount())
	for id, v := range partial {
		flows[id] = v
	}

	for _, n := range g.Nodes() {
		for i, s := range n.Outputs {
			var given, asked float64
			var rest []graph.Edge
			for _, e := range g.OutgoingFromSlot(n.ID, i) {
				if v, ok := partial[e.ID]; ok {
					given += v
					continue
				}
				rest = append(rest, e)
				asked += est[e.ID]
			}
			if len(rest) == 0 {
				continue
			}
			factor := 1.0
			if s.Rate.Known {
				left := max(0, s.Rate.PerMachine*CountOf(g, counts, n.ID)-given)
				if asked > left {
					factor = left / asked
				}
			}
			for _, e := range rest {
				flows[e.ID] = est[e.ID] * factor
			}
		}
	}
	return flows
}
