package factory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// variableLiteral is the serialized form of a Variable quantity.
const variableLiteral = "variable"

// Quantity is a nonnegative amount or the symbolic Variable.
// The zero value is the fixed amount 0.
type Quantity struct {
	value    float64
	variable bool
}

// Fixed returns a fixed quantity.
func Fixed(v float64) Quantity { return Quantity{value: v} }

// Variable returns the symbolic undetermined quantity.
func Variable() Quantity { return Quantity{variable: true} }

// IsVariable reports whether the quantity is undetermined.
func (q Quantity) IsVariable() bool { return q.variable }

// Value returns the fixed amount, or 0 for a Variable quantity.
func (q Quantity) Value() float64 {
	if q.variable {
		return 0
	}
	return q.value
}

// String renders the quantity as a number or "variable".
func (q Quantity) String() string {
	if q.variable {
		return variableLiteral
	}
	return strconv.FormatFloat(q.value, 'g', -1, 64)
}

// MarshalJSON encodes a fixed quantity as a number and Variable as a string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.variable {
		return json.Marshal(variableLiteral)
	}
	return json.Marshal(q.value)
}

// UnmarshalJSON accepts a number, a numeric string or "variable".
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*q = Fixed(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("quantity: want number or %q, got %s", variableLiteral, data)
	}
	parsed, err := parseQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// MarshalYAML encodes a quantity the same way as MarshalJSON.
func (q Quantity) MarshalYAML() (any, error) {
	if q.variable {
		return variableLiteral, nil
	}
	return q.value, nil
}

// UnmarshalYAML accepts a scalar number or "variable".
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("quantity: line %d: want scalar", node.Line)
	}
	parsed, err := parseQuantity(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*q = parsed
	return nil
}

func parseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, variableLiteral) {
		return Variable(), nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("quantity: want number or %q, got %q", variableLiteral, s)
	}
	return Fixed(n), nil
}
