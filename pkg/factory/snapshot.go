package factory

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowplan/pkg/errors"
)

// Snapshot is the immutable copy-in shape of a solve request: the topology,
// the pinned targets and optional per-node objective weights.
type Snapshot struct {
	Products    []Product          `json:"products,omitempty" yaml:"products,omitempty"`
	Nodes       []Node             `json:"nodes" yaml:"nodes"`
	Connections []Connection       `json:"connections" yaml:"connections"`
	Targets     []string           `json:"targets" yaml:"targets"`
	Weights     map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// Clone returns a deep copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Products:    slices.Clone(s.Products),
		Nodes:       make([]Node, len(s.Nodes)),
		Connections: slices.Clone(s.Connections),
		Targets:     slices.Clone(s.Targets),
		Weights:     maps.Clone(s.Weights),
	}
	for i, n := range s.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// TargetSet returns the targets as a set.
func (s Snapshot) TargetSet() TargetSet { return NewTargetSet(s.Targets...) }

// Catalog builds the product catalog declared by the snapshot.
func (s Snapshot) Catalog() (*Catalog, error) { return NewCatalog(s.Products...) }

// Counts returns the current machine count of every node.
func (s Snapshot) Counts() map[string]float64 {
	counts := make(map[string]float64, len(s.Nodes))
	for _, n := range s.Nodes {
		counts[n.ID] = n.MachineCount
	}
	return counts
}

// Node returns the node with the given ID.
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks every node and connection and rejects duplicate node IDs,
// unknown targets and negative weights. Connections pointing at missing nodes
// are not errors: the graph builder drops them.
func (s Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidNode, "duplicate node %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, c := range s.Connections {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, t := range s.Targets {
		if _, ok := seen[t]; !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "target %q is not a node", t)
		}
	}
	for id, w := range s.Weights {
		if w < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "weight for %q must be nonnegative", id)
		}
	}
	return nil
}

// ApplyUpdates returns a copy of nodes with the given machine counts merged
// in. IDs that match no node are ignored.
func ApplyUpdates(nodes []Node, updates map[string]float64) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
		if c, ok := updates[n.ID]; ok {
			out[i].MachineCount = c
		}
	}
	return out
}
