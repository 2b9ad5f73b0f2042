package pipeline

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/flowplan/pkg/cache"
	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/factory"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/solver/ratio"
	"github.com/matzehuels/flowplan/pkg/trace"
)

// chain is a miner feeding a furnace that needs twice its output.
func chain() factory.Snapshot {
	return factory.Snapshot{
		Nodes: []factory.Node{
			{ID: "miner", Outputs: []factory.Slot{{ProductID: "ore", Quantity: factory.Fixed(1)}}, CycleTime: factory.Fixed(1), MachineCount: 1},
			{ID: "furnace", Inputs: []factory.Slot{{ProductID: "ore", Quantity: factory.Fixed(2)}}, CycleTime: factory.Fixed(1), MachineCount: 1},
		},
		Connections: []factory.Connection{{ID: "c1", SourceNodeID: "miner", TargetNodeID: "furnace"}},
		Targets:     []string{"furnace"},
	}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	r.Traces = trace.NewMemoryStore()
	t.Cleanup(func() { r.Close() })
	return r
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	opts.SetDefaults()

	if opts.DeficiencyPenalty != 1e6 {
		t.Errorf("DeficiencyPenalty should be 1e6, got %v", opts.DeficiencyPenalty)
	}
	if opts.TTL != DefaultTTL {
		t.Errorf("TTL should be %v, got %v", DefaultTTL, opts.TTL)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{Formats: []string{"svg"}}, false},
		{"negative penalty", Options{DeficiencyPenalty: -1}, true},
		{"negative passes", Options{MaxBalancePasses: -1}, true},
		{"bad format", Options{Formats: []string{"gif"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSolveCachesReport(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)

	first, err := r.Solve(ctx, chain(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.CacheHit || first.Solve == nil {
		t.Fatalf("first solve should miss the cache: %+v", first.Stats)
	}
	if !first.Report.Feasible || !approx(first.Report.Updates["miner"], 2) {
		t.Errorf("report = %+v, want miner 2", first.Report)
	}

	second, err := r.Solve(ctx, chain(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Stats.CacheHit || second.Solve != nil {
		t.Errorf("second solve should hit the cache: %+v", second.Stats)
	}
	if second.SnapshotHash != first.SnapshotHash {
		t.Error("identical snapshots must hash equally")
	}
	if diff := cmp.Diff(first.Report, second.Report, cmpopts.EquateApprox(0, 1e-9), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("cached report mismatch (-fresh +cached):\n%s", diff)
	}

	refreshed, err := r.Solve(ctx, chain(), Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Stats.CacheHit {
		t.Error("Refresh must bypass the cache")
	}

	permissive, err := r.Solve(ctx, chain(), Options{AllowDeficiency: true})
	if err != nil {
		t.Fatal(err)
	}
	if permissive.Stats.CacheHit {
		t.Error("different options must not share a cache entry")
	}
}

func TestSolveInvalidOptions(t *testing.T) {
	r := newRunner(t)
	_, err := r.Solve(context.Background(), chain(), Options{DeficiencyPenalty: -5})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Solve() error = %v, want INVALID_INPUT", err)
	}
}

func TestFlows(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)

	report, hit, err := r.Flows(ctx, chain())
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first Flows call should miss the cache")
	}
	if report.Feasible || len(report.Deficiencies) != 1 {
		t.Fatalf("report = %+v, want one deficiency", report)
	}
	if d := report.Deficiencies[0]; d.NodeID != "furnace" || d.Gap != 1 {
		t.Errorf("deficiency = %+v, want furnace short by 1", d)
	}

	if _, hit, _ := r.Flows(ctx, chain()); !hit {
		t.Error("second Flows call should hit the cache")
	}
}

func TestBalanceArchivesTrace(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)

	res, tr, err := r.Balance(ctx, chain(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Balanced || !approx(res.Counts["miner"], 2) || res.Counts["furnace"] != 1 {
		t.Errorf("Balance() = %+v", res)
	}

	stored, err := r.Traces.Load(ctx, tr.ID)
	if err != nil {
		t.Fatalf("trace not archived: %v", err)
	}
	replayed := trace.Replay(stored, map[string]float64{"miner": 1, "furnace": 1})
	if !approx(replayed["miner"], 2) {
		t.Errorf("replayed miner = %v, want 2", replayed["miner"])
	}
}

func TestPropagate(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)

	counts, tr, err := r.Propagate(ctx, chain(), ratio.Edit{NodeID: "miner", OldCount: 1, NewCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"miner": 2, "furnace": 2}
	if diff := cmp.Diff(want, counts, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Propagate() mismatch (-want +got):\n%s", diff)
	}
	if tr.Kind != trace.KindPropagate {
		t.Errorf("trace kind = %s", tr.Kind)
	}
	if _, err := r.Traces.Load(ctx, tr.ID); err != nil {
		t.Errorf("trace not archived: %v", err)
	}
}

func TestPropagateErrors(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)

	_, _, err := r.Propagate(ctx, chain(), ratio.Edit{NodeID: "ghost", OldCount: 1, NewCount: 2})
	if !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("unknown node error = %v, want NODE_NOT_FOUND", err)
	}

	_, _, err = r.Propagate(ctx, chain(), ratio.Edit{
		NodeID: "miner", OldCount: 1, NewCount: 2,
		Handle: &ratio.Handle{Side: graph.SideInput, Index: 0},
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing handle error = %v, want INVALID_INPUT", err)
	}
}

func TestRenderDOT(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	opts := Options{Formats: []string{FormatDOT}}

	artifacts, hit, err := r.Render(ctx, chain(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first render should miss the cache")
	}
	src := string(artifacts[FormatDOT])
	if !strings.HasPrefix(src, "digraph G {") || !strings.Contains(src, `"miner" -> "furnace"`) {
		t.Errorf("unexpected DOT:\n%s", src)
	}

	again, hit, err := r.Render(ctx, chain(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit || string(again[FormatDOT]) != src {
		t.Error("second render should come from the cache unchanged")
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	r := newRunner(t)
	_, _, err := r.Render(context.Background(), chain(), Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Render() error = %v, want UNSUPPORTED", err)
	}
}
