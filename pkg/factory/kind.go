package factory

import (
	"fmt"
)

// Kind is the tagged union of machine-kind settings. Each variant carries
// only the settings that exist for that kind of machine.
type Kind interface {
	// KindName returns the serialized tag of the variant.
	KindName() string
	// apply folds kind modifiers into a projection.
	apply(p *Projection)
}

// Kind tags.
const (
	KindAssembler = "assembler"
	KindFurnace   = "furnace"
	KindMiner     = "miner"
	KindGenerator = "generator"
	KindSource    = "source"
	KindSink      = "sink"
)

// Assembler crafts recipes. Speed scales the cycle time: a speed of 2
// halves it. Zero or negative speed means 1.
type Assembler struct {
	Speed float64
}

func (Assembler) KindName() string { return KindAssembler }

func (a Assembler) apply(p *Projection) {
	if a.Speed <= 0 || a.Speed == 1 || p.CycleTime.IsVariable() {
		return
	}
	p.CycleTime = Fixed(p.CycleTime.Value() / a.Speed)
}

// Furnace smelts with a named fuel. The fuel has no effect on rates.
type Furnace struct {
	Fuel string
}

func (Furnace) KindName() string   { return KindFurnace }
func (Furnace) apply(*Projection) {}

// Miner extracts a resource. Yield multiplies every fixed output quantity;
// zero or negative yield means 1.
type Miner struct {
	Resource string
	Yield    float64
}

func (Miner) KindName() string { return KindMiner }

func (m Miner) apply(p *Projection) {
	if m.Yield <= 0 || m.Yield == 1 {
		return
	}
	for i, s := range p.Outputs {
		if !s.Quantity.IsVariable() {
			p.Outputs[i].Quantity = Fixed(s.Quantity.Value() * m.Yield)
		}
	}
}

// Generator converts inputs into power. OutputMW is informational.
type Generator struct {
	OutputMW float64
}

func (Generator) KindName() string   { return KindGenerator }
func (Generator) apply(*Projection) {}

// Source is an external supplier, usually modeled with per-second rates.
type Source struct{}

func (Source) KindName() string   { return KindSource }
func (Source) apply(*Projection) {}

// Sink is an external consumer.
type Sink struct{}

func (Sink) KindName() string   { return KindSink }
func (Sink) apply(*Projection) {}

// kindEnvelope is the flat serialized form of a Kind.
type kindEnvelope struct {
	Type     string  `json:"type" yaml:"type"`
	Speed    float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
	Fuel     string  `json:"fuel,omitempty" yaml:"fuel,omitempty"`
	Resource string  `json:"resource,omitempty" yaml:"resource,omitempty"`
	Yield    float64 `json:"yield,omitempty" yaml:"yield,omitempty"`
	OutputMW float64 `json:"outputMW,omitempty" yaml:"outputMW,omitempty"`
}

func encodeKind(k Kind) *kindEnvelope {
	switch v := k.(type) {
	case nil:
		return nil
	case Assembler:
		return &kindEnvelope{Type: KindAssembler, Speed: v.Speed}
	case Furnace:
		return &kindEnvelope{Type: KindFurnace, Fuel: v.Fuel}
	case Miner:
		return &kindEnvelope{Type: KindMiner, Resource: v.Resource, Yield: v.Yield}
	case Generator:
		return &kindEnvelope{Type: KindGenerator, OutputMW: v.OutputMW}
	case Source:
		return &kindEnvelope{Type: KindSource}
	case Sink:
		return &kindEnvelope{Type: KindSink}
	default:
		return &kindEnvelope{Type: k.KindName()}
	}
}

func decodeKind(e *kindEnvelope) (Kind, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Type {
	case KindAssembler:
		return Assembler{Speed: e.Speed}, nil
	case KindFurnace:
		return Furnace{Fuel: e.Fuel}, nil
	case KindMiner:
		return Miner{Resource: e.Resource, Yield: e.Yield}, nil
	case KindGenerator:
		return Generator{OutputMW: e.OutputMW}, nil
	case KindSource:
		return Source{}, nil
	case KindSink:
		return Sink{}, nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown machine kind %q", e.Type)
	}
}
