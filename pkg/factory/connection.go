package factory

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowplan/pkg/errors"
)

// Connection wires output SourceOutputIndex of SourceNodeID to input
// TargetInputIndex of TargetNodeID.
type Connection struct {
	ID                string `json:"id" yaml:"id"`
	SourceNodeID      string `json:"sourceNodeId" yaml:"sourceNodeId"`
	SourceOutputIndex int    `json:"sourceOutputIndex" yaml:"sourceOutputIndex"`
	TargetNodeID      string `json:"targetNodeId" yaml:"targetNodeId"`
	TargetInputIndex  int    `json:"targetInputIndex" yaml:"targetInputIndex"`
}

// IsSelfLoop reports whether the connection feeds a node from itself.
func (c Connection) IsSelfLoop() bool { return c.SourceNodeID == c.TargetNodeID }

// Validate checks the connection's own fields. Whether the endpoints exist is
// a property of the whole topology, not of the connection.
func (c Connection) Validate() error {
	if err := errors.ValidateID(errors.ErrCodeInvalidConnection, "connection", c.ID); err != nil {
		return err
	}
	if c.SourceNodeID == "" || c.TargetNodeID == "" {
		return errors.New(errors.ErrCodeInvalidConnection, "connection %q: missing endpoint", c.ID)
	}
	if c.SourceOutputIndex < 0 || c.TargetInputIndex < 0 {
		return errors.New(errors.ErrCodeInvalidConnection, "connection %q: negative handle index", c.ID)
	}
	return nil
}

// TargetSet is the set of node IDs whose machine counts are pinned.
type TargetSet map[string]struct{}

// NewTargetSet builds a set from IDs. Empty IDs are ignored.
func NewTargetSet(ids ...string) TargetSet {
	s := make(TargetSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s TargetSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in sorted order.
func (s TargetSet) IDs() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns an independent copy.
func (s TargetSet) Clone() TargetSet {
	return maps.Clone(s)
}
