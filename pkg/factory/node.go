package factory

import (
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowplan/pkg/errors"
)

// Slot is one input or output of a node.
type Slot struct {
	ProductID string   `json:"productId" yaml:"productId"`
	Quantity  Quantity `json:"quantity" yaml:"quantity"`
}

// Node is one machine instance in the production network.
//
// Quantities are per cycle for standard nodes and per second for rate-model
// nodes (RateModel == true), whose cycle time is ignored. MachineCount may be
// fractional.
type Node struct {
	ID           string
	Inputs       []Slot
	Outputs      []Slot
	CycleTime    Quantity
	MachineCount float64
	RateModel    bool
	Kind         Kind
}

// Projection is the common view of a node that solvers depend on.
// It never carries kind-specific settings.
type Projection struct {
	ID           string
	Inputs       []Slot
	Outputs      []Slot
	CycleTime    Quantity
	MachineCount float64
	RateModel    bool
}

// Project returns the solver view of the node with kind modifiers applied.
// The slot slices are copies; the node is left untouched.
func (n Node) Project() Projection {
	p := Projection{
		ID:           n.ID,
		Inputs:       slices.Clone(n.Inputs),
		Outputs:      slices.Clone(n.Outputs),
		CycleTime:    n.CycleTime,
		MachineCount: n.MachineCount,
		RateModel:    n.RateModel,
	}
	if n.Kind != nil {
		n.Kind.apply(&p)
	}
	return p
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Inputs = slices.Clone(n.Inputs)
	n.Outputs = slices.Clone(n.Outputs)
	return n
}

// Validate checks the node for values no solver can interpret.
func (n Node) Validate() error {
	if err := errors.ValidateID(errors.ErrCodeInvalidNode, "node", n.ID); err != nil {
		return err
	}
	if n.MachineCount < 0 {
		return errors.New(errors.ErrCodeInvalidNode, "node %q: negative machine count %g", n.ID, n.MachineCount)
	}
	if !n.RateModel && !n.CycleTime.IsVariable() && n.CycleTime.Value() <= 0 {
		return errors.New(errors.ErrCodeInvalidNode, "node %q: cycle time must be positive", n.ID)
	}
	for i, s := range n.Inputs {
		if err := validateSlot(n.ID, "input", i, s); err != nil {
			return err
		}
	}
	for i, s := range n.Outputs {
		if err := validateSlot(n.ID, "output", i, s); err != nil {
			return err
		}
	}
	return nil
}

func validateSlot(nodeID, side string, idx int, s Slot) error {
	if s.ProductID == "" {
		return errors.New(errors.ErrCodeInvalidNode, "node %q: %s %d has no product", nodeID, side, idx)
	}
	if !s.Quantity.IsVariable() && s.Quantity.Value() < 0 {
		return errors.New(errors.ErrCodeInvalidNode, "node %q: %s %d has negative quantity", nodeID, side, idx)
	}
	return nil
}

// nodeWire is the boundary shape of a node.
type nodeWire struct {
	ID           string        `json:"id" yaml:"id"`
	Inputs       []Slot        `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs      []Slot        `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	CycleTime    Quantity      `json:"cycleTime" yaml:"cycleTime"`
	MachineCount float64       `json:"machineCount" yaml:"machineCount"`
	RateModel    bool          `json:"isRateModel,omitempty" yaml:"isRateModel,omitempty"`
	Kind         *kindEnvelope `json:"kind,omitempty" yaml:"kind,omitempty"`
}

func (n Node) wire() nodeWire {
	return nodeWire{
		ID:           n.ID,
		Inputs:       n.Inputs,
		Outputs:      n.Outputs,
		CycleTime:    n.CycleTime,
		MachineCount: n.MachineCount,
		RateModel:    n.RateModel,
		Kind:         encodeKind(n.Kind),
	}
}

func (n *Node) fromWire(w nodeWire) error {
	kind, err := decodeKind(w.Kind)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidNode, err, "node %q", w.ID)
	}
	*n = Node{
		ID:           w.ID,
		Inputs:       w.Inputs,
		Outputs:      w.Outputs,
		CycleTime:    w.CycleTime,
		MachineCount: w.MachineCount,
		RateModel:    w.RateModel,
		Kind:         kind,
	}
	return nil
}

// MarshalJSON encodes the node in its boundary shape.
func (n Node) MarshalJSON() ([]byte, error) { return json.Marshal(n.wire()) }

// UnmarshalJSON decodes the boundary shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return n.fromWire(w)
}

// MarshalYAML encodes the node in its boundary shape.
func (n Node) MarshalYAML() (any, error) { return n.wire(), nil }

// UnmarshalYAML decodes the boundary shape.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var w nodeWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	return n.fromWire(w)
}
