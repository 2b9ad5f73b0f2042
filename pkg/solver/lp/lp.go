package lp

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	convex "gonum.org/v1/gonum/optimize/convex/lp"
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/graph"
)

const (
	// LPTolerance is passed to the simplex and used to snap tiny values to 0.
	LPTolerance = 1e-10

	// DefaultDeficiencyPenalty is the objective cost of one unit of shortfall
	// per second in permissive mode.
	DefaultDeficiencyPenalty = 1e6

	// shortfallEpsilon separates real shortfall from LP noise.
	shortfallEpsilon = 1e-6
)

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
)

// String returns "optimal" or "infeasible".
func (s Status) String() string {
	if s == StatusInfeasible {
		return "infeasible"
	}
	return "optimal"
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Shortfall reasons.
const (
	ReasonSelfLoopOnly = "self_loop_only"
	ReasonPinnedSupply = "pinned_supply"
	ReasonUnsupplied   = "insufficient_supply"
)

// Unsatisfied names an input handle whose demand cannot be met.
type Unsatisfied struct {
	NodeID     string  `json:"nodeId"`
	InputIndex int     `json:"inputIndex"`
	ProductID  string  `json:"productId"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

// Options configures a solve.
type Options struct {
	// AllowDeficiency adds a penalized shortfall variable to every demand row.
	AllowDeficiency bool

	// Weights scales each node's machine count in the objective. Missing
	// nodes weigh 1.
	Weights map[string]float64

	// DeficiencyPenalty is the cost of one unit of shortfall. Zero means
	// DefaultDeficiencyPenalty.
	DeficiencyPenalty float64
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.DeficiencyPenalty == 0 {
		o.DeficiencyPenalty = DefaultDeficiencyPenalty
	}
}

// Validate rejects negative weights and penalties.
func (o Options) Validate() error {
	if o.DeficiencyPenalty < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "deficiency penalty must be nonnegative, got %v", o.DeficiencyPenalty)
	}
	for id, w := range o.Weights {
		if w < 0 || math.IsNaN(w) {
			return errors.New(errors.ErrCodeInvalidInput, "weight for %q must be nonnegative, got %v", id, w)
		}
	}
	return nil
}

// Solution is the result of one LP solve.
type Solution struct {
	Status Status

	// MachineCounts holds a value for every node in the dependency set of
	// the targets, zeros included. Nodes outside it are not modeled and
	// absent. Targets keep their exact current count.
	MachineCounts map[string]float64

	// EdgeFlows holds a value for every connection into a modeled node.
	EdgeFlows map[string]float64

	// Shortfall lists the demand rows the permissive model left short.
	Shortfall []Unsatisfied

	// Unsatisfied lists the inputs that make a strict solve infeasible.
	Unsatisfied []Unsatisfied

	Objective float64
	Rows      int
	Columns   int
}

// Solve builds the model for g and solves it.
func Solve(g *graph.Graph, targets factory.TargetSet, opts Options) (*Solution, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := newModel(g, targets, opts)
	sol := &Solution{
		MachineCounts: make(map[string]float64, len(m.nodes)),
		EdgeFlows:     make(map[string]float64),
		Rows:          len(m.rows),
		Columns:       len(m.cols),
	}
	for _, id := range m.nodes {
		sol.MachineCounts[id] = 0
		for _, e := range g.Incoming(id) {
			sol.EdgeFlows[e.ID] = 0
		}
	}

	x, obj, err := m.solve()
	switch {
	case err == convex.ErrInfeasible:
		sol.Status = StatusInfeasible
		if !opts.AllowDeficiency {
			sol.Unsatisfied, err = diagnose(g, targets, opts)
			if err != nil {
				return nil, err
			}
		}
		return sol, nil
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeSolver, err, "simplex on %d rows, %d columns", len(m.rows), len(m.cols))
	}

	sol.Status = StatusOptimal
	sol.Objective = obj
	for j, col := range m.cols {
		v := snap(x[j])
		switch col.kind {
		case colMachine:
			sol.MachineCounts[col.id] = v
		case colFlow:
			sol.EdgeFlows[col.id] = v
		case colShortfall:
			if v > shortfallEpsilon {
				r := m.rows[col.row]
				sol.Shortfall = append(sol.Shortfall, m.unsatisfied(r, v))
			}
		}
	}
	for _, id := range targets.IDs() {
		if n, ok := g.Node(id); ok {
			sol.MachineCounts[id] = n.MachineCount
		}
	}
	SortUnsatisfied(sol.Shortfall)
	return sol, nil
}

// diagnose re-solves permissively and reports which demand rows go short.
func diagnose(g *graph.Graph, targets factory.TargetSet, opts Options) ([]Unsatisfied, error) {
	opts.AllowDeficiency = true
	sol, err := Solve(g, targets, opts)
	if err != nil {
		return nil, err
	}
	if sol.Status != StatusOptimal {
		return nil, errors.New(errors.ErrCodeSolver, "permissive model reported %s", sol.Status)
	}
	return sol.Shortfall, nil
}

func snap(v float64) float64 {
	if math.Abs(v) < LPTolerance {
		return 0
	}
	return v
}

// =============================================================================
// Model
// =============================================================================

type colKind int

const (
	colMachine colKind = iota
	colFlow
	colSlack
	colShortfall
)

type column struct {
	kind colKind
	id   string // node ID or connection ID
	row  int    // owning row for slack and shortfall columns
}

type rowKind int

const (
	rowTarget rowKind = iota
	rowCapacity
	rowDemand
)

type row struct {
	kind   rowKind
	nodeID string
	slot   int
	coef   map[int]float64
	rhs    float64
}

type model struct {
	g       *graph.Graph
	targets factory.TargetSet
	opts    Options

	// nodes is the dependency set of the targets. Nothing else is modeled.
	nodes   []string
	modeled map[string]bool

	cols  []column
	colOf map[column]int
	rows  []row
}

func newModel(g *graph.Graph, targets factory.TargetSet, opts Options) *model {
	m := &model{
		g:       g,
		targets: targets,
		opts:    opts,
		colOf:   make(map[column]int),
		nodes:   g.DependencySet(targets.IDs()),
	}
	m.modeled = make(map[string]bool, len(m.nodes))
	for _, id := range m.nodes {
		m.modeled[id] = true
	}

	for _, id := range targets.IDs() {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		r := m.addRow(rowTarget, id, -1)
		r.coef[m.col(colMachine, id)] = 1
		r.rhs = n.MachineCount
	}

	for _, id := range m.nodes {
		n, _ := g.Node(id)
		for i, s := range n.Outputs {
			out := slices.DeleteFunc(g.OutgoingFromSlot(id, i), func(e graph.Edge) bool { return !m.modeled[e.To] })
			if !s.Rate.Known || len(out) == 0 {
				continue
			}
			r := m.addRow(rowCapacity, id, i)
			for _, e := range out {
				r.coef[m.col(colFlow, e.ID)] += 1
			}
			if s.Rate.PerMachine > 0 {
				r.coef[m.col(colMachine, id)] -= s.Rate.PerMachine
			}
			r.coef[m.rowCol(colSlack, len(m.rows)-1)] = 1
		}
		for i, s := range n.Inputs {
			in := g.IncomingToSlot(id, i)
			if !s.Rate.Known || s.Rate.PerMachine <= 0 || len(in) == 0 {
				continue
			}
			r := m.addRow(rowDemand, id, i)
			for _, e := range in {
				r.coef[m.col(colFlow, e.ID)] += 1
			}
			r.coef[m.col(colMachine, id)] -= s.Rate.PerMachine
			r.coef[m.rowCol(colSlack, len(m.rows)-1)] = -1
			if opts.AllowDeficiency {
				r.coef[m.rowCol(colShortfall, len(m.rows)-1)] = 1
			}
		}
	}
	return m
}

func (m *model) addRow(kind rowKind, nodeID string, slot int) *row {
	m.rows = append(m.rows, row{kind: kind, nodeID: nodeID, slot: slot, coef: make(map[int]float64)})
	return &m.rows[len(m.rows)-1]
}

// col returns the column for a node or connection, adding it on first use.
func (m *model) col(kind colKind, id string) int {
	key := column{kind: kind, id: id}
	if j, ok := m.colOf[key]; ok {
		return j
	}
	m.cols = append(m.cols, key)
	m.colOf[key] = len(m.cols) - 1
	return len(m.cols) - 1
}

// rowCol adds a column owned by one row.
func (m *model) rowCol(kind colKind, row int) int {
	m.cols = append(m.cols, column{kind: kind, row: row})
	return len(m.cols) - 1
}

func (m *model) cost(c column) float64 {
	switch c.kind {
	case colMachine:
		if w, ok := m.opts.Weights[c.id]; ok {
			return w
		}
		return 1
	case colShortfall:
		return m.opts.DeficiencyPenalty
	}
	return 0
}

// solve runs the simplex. Every row holds at least one nonzero coefficient
// and every column appears in at least one row, so gonum's zero row and
// zero column checks never fire.
func (m *model) solve() ([]float64, float64, error) {
	if len(m.rows) == 0 {
		return make([]float64, len(m.cols)), 0, nil
	}

	c := make([]float64, len(m.cols))
	for j, col := range m.cols {
		c[j] = m.cost(col)
	}
	A := mat.NewDense(len(m.rows), len(m.cols), nil)
	b := make([]float64, len(m.rows))
	for i, r := range m.rows {
		for j, v := range r.coef {
			A.Set(i, j, v)
		}
		b[i] = r.rhs
	}

	obj, x, err := convex.Simplex(c, A, b, LPTolerance, nil)
	if err != nil {
		return nil, 0, err
	}
	return x, obj, nil
}

func (m *model) unsatisfied(r row, amount float64) Unsatisfied {
	u := Unsatisfied{NodeID: r.nodeID, InputIndex: r.slot, Amount: amount}
	n, _ := m.g.Node(r.nodeID)
	if s, ok := n.Slot(graph.SideInput, r.slot); ok {
		u.ProductID = s.ProductID
	}
	u.Reason = reason(m.g, m.targets, r.nodeID, r.slot)
	return u
}

// reason classifies why an input cannot be supplied. Supply is pinned when
// every supplier is a target or is fed, however indirectly, only through
// targets.
func reason(g *graph.Graph, targets factory.TargetSet, id string, slot int) string {
	stop := make(map[string]bool, len(targets))
	for t := range targets {
		stop[t] = true
	}
	selfOnly, pinned := true, true
	for _, e := range g.IncomingToSlot(id, slot) {
		if e.IsSelfLoop() {
			continue
		}
		selfOnly = false
		if !targets.Has(e.From) && canGrow(g, g.SupplyRegion(e.From, stop)) {
			pinned = false
		}
	}
	switch {
	case selfOnly:
		return ReasonSelfLoopOnly
	case pinned:
		return ReasonPinnedSupply
	}
	return ReasonUnsupplied
}

// canGrow reports whether region holds a node that needs nothing from the
// network, so scaling it up can raise supply.
func canGrow(g *graph.Graph, region []string) bool {
	for _, id := range region {
		n, _ := g.Node(id)
		free := true
		for i, s := range n.Inputs {
			if s.Rate.Known && s.Rate.PerMachine > 0 && len(g.IncomingToSlot(id, i)) > 0 {
				free = false
				break
			}
		}
		if free {
			return true
		}
	}
	return false
}

// String describes the shortfall.
func (u Unsatisfied) String() string {
	return fmt.Sprintf("%s[%d] %s short by %.6g/s (%s)", u.NodeID, u.InputIndex, u.ProductID, u.Amount, u.Reason)
}

// SortUnsatisfied orders entries by node and input index.
func SortUnsatisfied(us []Unsatisfied) {
	slices.SortFunc(us, func(a, b Unsatisfied) int {
		return cmp.Or(strings.Compare(a.NodeID, b.NodeID), cmp.Compare(a.InputIndex, b.InputIndex))
	})
}
