package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/flow"
	"github.com/matzehuels/flowplan/pkg/graph"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/solver"
	"github.com/matzehuels/flowplan/pkg/solver/balance"
	"github.com/matzehuels/flowplan/pkg/solver/ratio"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// editCommand creates the interactive edit command.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [snapshot]",
		Short: "Adjust machine counts interactively",
		Long: `Edit opens the snapshot in a terminal UI. Changing a node's count carries
the change to its neighbours by ratio, and the flow status updates live.

Keys: ↑/↓ select, +/- change count, p toggle propagation, b balance,
s solve, w write, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := flowio.ImportSnapshot(args[0])
			if err != nil {
				return err
			}
			popts := c.pipelineOptions()
			popts.Logger = log.NewWithOptions(io.Discard, log.Options{})
			popts.SetDefaults()
			m := NewEditModel(cmd.Context(), snap, popts.SolverOptions(snap))
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			em := final.(EditModel)
			if !em.Write {
				if em.Dirty {
					printInfo("Discarded changes")
				}
				return nil
			}
			if err := flowio.ExportSnapshot(args[0], em.Snapshot); err != nil {
				return err
			}
			printSuccess("Saved")
			printFile(args[0])
			return nil
		},
	}
}

// =============================================================================
// EditModel - Interactive count editing
// =============================================================================

// EditModel is the bubbletea model for the edit command.
type EditModel struct {
	Snapshot  factory.Snapshot
	IDs       []string
	Cursor    int
	Offset    int
	Height    int
	Propagate bool
	Dirty     bool
	Write     bool
	Status    string

	ctx     context.Context
	opts    solver.Options
	targets factory.TargetSet
	report  flowio.Report
}

// NewEditModel creates an edit model over a copy of snap.
func NewEditModel(ctx context.Context, snap factory.Snapshot, opts solver.Options) EditModel {
	snap = snap.Clone()
	ids := make([]string, len(snap.Nodes))
	for i, n := range snap.Nodes {
		ids[i] = n.ID
	}
	m := EditModel{
		Snapshot:  snap,
		IDs:       ids,
		Height:    15,
		Propagate: true,
		ctx:       ctx,
		opts:      opts,
		targets:   snap.TargetSet(),
	}
	m.refresh()
	return m
}

func (m EditModel) Init() tea.Cmd {
	return nil
}

func (m EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "w":
			m.Write = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.IDs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "+", "=":
			m.step(1)
		case "-", "_":
			m.step(-1)
		case "p":
			m.Propagate = !m.Propagate
			m.Status = fmt.Sprintf("propagation %s", onOff(m.Propagate))
		case "b":
			m.balance()
		case "s":
			m.solve()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// step changes the selected node's count by delta, never below zero.
func (m *EditModel) step(delta float64) {
	if len(m.IDs) == 0 {
		return
	}
	id := m.IDs[m.Cursor]
	old := m.Snapshot.Counts()[id]
	next := old + delta
	if next < 0 {
		next = 0
	}
	if next == old {
		return
	}

	updates := map[string]float64{id: next}
	if m.Propagate {
		updates = solver.Propagate(m.ctx, m.Snapshot.Nodes, m.Snapshot.Connections,
			ratio.Edit{NodeID: id, OldCount: old, NewCount: next}, nil)
	}
	m.apply(updates)
	m.Status = fmt.Sprintf("%s %s → %s, %d nodes changed", id, formatCount(old), formatCount(next), len(updates))
}

func (m *EditModel) balance() {
	g := graph.Build(m.Snapshot.Nodes, m.Snapshot.Connections, m.opts.Catalog)
	res := balance.Run(g, nil, m.targets, balance.Options{MaxPasses: m.opts.MaxBalancePasses}, nil)
	m.apply(changedCounts(m.Snapshot.Counts(), res.Counts))
	if res.Balanced {
		m.Status = fmt.Sprintf("balanced in %d passes", res.Passes)
	} else {
		m.Status = fmt.Sprintf("still short after %d passes", res.Passes)
	}
}

func (m *EditModel) solve() {
	res := solver.SolveContext(m.ctx, m.Snapshot.Nodes, m.Snapshot.Connections, m.targets, m.opts)
	if !res.Feasible && !res.Fallback {
		m.Status = fmt.Sprintf("no solution: %s", res.Status)
		return
	}
	m.apply(res.Updates)
	m.Status = fmt.Sprintf("solved, %d nodes changed", len(res.Updates))
}

func (m *EditModel) apply(updates map[string]float64) {
	if len(updates) == 0 {
		return
	}
	m.Snapshot.Nodes = factory.ApplyUpdates(m.Snapshot.Nodes, updates)
	m.Dirty = true
	m.refresh()
}

// refresh recomputes the flow status at the current counts.
func (m *EditModel) refresh() {
	g := graph.Build(m.Snapshot.Nodes, m.Snapshot.Connections, m.opts.Catalog)
	m.report = flowio.NewFlowReport(g, flow.Calculate(g, nil, nil))
}

func (m EditModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Edit Machine Counts"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select  +/- count  p propagation  b balance  s solve  w write  q quit"))
	b.WriteString("\n\n")

	short := make(map[string]float64)
	for _, d := range m.report.Deficiencies {
		short[d.NodeID] += d.Gap
	}
	over := make(map[string]bool)
	for _, e := range m.report.Excesses {
		over[e.NodeID] = true
	}

	end := min(m.Offset+m.Height, len(m.IDs))
	counts := m.Snapshot.Counts()
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		id := m.IDs[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		target := ""
		if m.targets.Has(id) {
			target = "●"
		}
		status := StyleSuccess.Render(iconSuccess)
		switch {
		case short[id] > 0:
			status = styleIconError.Render("short " + formatRate(short[id]) + "/s")
		case over[id]:
			status = StyleWarning.Render("excess")
		}
		rows = append(rows, []string{cursor, id, formatCount(counts[id]), target, status})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Count", "Target", "Flow").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			if m.Offset+row == m.Cursor && col < 3 {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	summary := StyleSuccess.Render("all connected inputs supplied")
	if !m.report.Feasible {
		summary = StyleWarning.Render(fmt.Sprintf("%d inputs short", len(m.report.Deficiencies)))
	}
	b.WriteString(fmt.Sprintf("  [%d/%d]  %s  propagation %s\n", m.Cursor+1, len(m.IDs), summary, onOff(m.Propagate)))
	if m.Status != "" {
		b.WriteString("  " + listDimStyle.Render(m.Status) + "\n")
	}
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
