package graph

import (
	"slices"
)

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Both follows incoming and outgoing edges.
	Both Direction = iota
	// Up follows incoming edges toward suppliers.
	Up
	// Down follows outgoing edges toward consumers.
	Down
)

// Reachable returns every node reachable from start in breadth-first order,
// start first. Nodes in exclude are never visited, so the walk does not pass
// through them. Returns nil if start is not in the graph.
func (g *Graph) Reachable(start string, exclude map[string]bool) []string {
	return g.walk([]string{start}, Both, exclude)
}

// Upstream returns the nodes that transitively supply id, in breadth-first
// order. id itself is included only when it feeds itself through a cycle.
func (g *Graph) Upstream(id string) []string {
	return g.walk(g.Suppliers(id), Up, nil)
}

// Downstream returns the nodes transitively fed by id, in breadth-first
// order. id itself is included only when it consumes its own output through
// a cycle.
func (g *Graph) Downstream(id string) []string {
	return g.walk(g.Consumers(id), Down, nil)
}

// DependencySet returns the given nodes plus everything upstream of them,
// sorted. Unknown IDs are ignored.
func (g *Graph) DependencySet(ids []string) []string {
	out := g.walk(ids, Up, nil)
	slices.Sort(out)
	return out
}

// walk is a worklist breadth-first search. The visited set bounds it by the
// node count.
func (g *Graph) walk(starts []string, dir Direction, exclude map[string]bool) []string {
	visited := make(map[string]bool, len(g.nodes))
	var order, queue []string
	for _, s := range starts {
		if _, ok := g.nodes[s]; !ok || visited[s] || exclude[s] {
			continue
		}
		visited[s] = true
		order = append(order, s)
		queue = append(queue, s)
	}

	for len(queue) > 0 && len(order) <= len(g.nodes) {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.step(id, dir) {
			if visited[next] || exclude[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	return order
}

// step returns the neighbors of id in the given direction, in edge order.
func (g *Graph) step(id string, dir Direction) []string {
	var out []string
	if dir == Both || dir == Up {
		for _, i := range g.incoming[id] {
			out = append(out, g.edges[i].From)
		}
	}
	if dir == Both || dir == Down {
		for _, i := range g.outgoing[id] {
			out = append(out, g.edges[i].To)
		}
	}
	return out
}

// SupplyRegion returns id and the nodes that transitively supply it without
// passing through any node in stop, in breadth-first order. Nodes in stop
// are neither returned nor expanded. Returns nil when id is unknown or in
// stop.
func (g *Graph) SupplyRegion(id string, stop map[string]bool) []string {
	return g.walk([]string{id}, Up, stop)
}
