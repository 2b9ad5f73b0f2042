// Package pipeline runs snapshots through the solvers with caching.
//
// This package implements the load → solve → report path shared by the CLI
// and the API server. By centralizing it, both entry points key the cache
// the same way and archive traces the same way.
//
// # Stages
//
// A [Runner] exposes each operation as a method:
//
//  1. Solve: LP solve of a snapshot, cached by snapshot hash and options
//  2. Flows: flow status at the current counts, cached by snapshot hash
//  3. Render: DOT, SVG, PNG or PDF diagram of the flow status
//  4. Balance and Propagate: traced, never cached
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Solve(ctx, snap, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.Updates)
//
// Traces from Balance, Propagate and fallback solves go to Runner.Traces
// when it is set.
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowplan/pkg/cache"
	"github.com/matzehuels/flowplan/pkg/factory"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/solver"
	"github.com/matzehuels/flowplan/pkg/solver/lp"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultTTL is how long solve and flow reports stay cached.
	DefaultTTL = 24 * time.Hour

	// DefaultRenderTTL is how long rendered diagrams stay cached.
	DefaultRenderTTL = 7 * 24 * time.Hour
)

// Format constants for rendered outputs.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline call.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Solve options
	AllowDeficiency   bool    `json:"allow_deficiency,omitempty"`
	DeficiencyPenalty float64 `json:"deficiency_penalty,omitempty"`
	MaxBalancePasses  int     `json:"max_balance_passes,omitempty"`
	Refresh           bool    `json:"refresh,omitempty"` // skip the cache lookup

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"`
	LeftToRight bool     `json:"left_to_right,omitempty"`

	// Runtime options (not serialized)
	TTL    time.Duration `json:"-"`
	Logger *log.Logger   `json:"-"`
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.DeficiencyPenalty == 0 {
		o.DeficiencyPenalty = lp.DefaultDeficiencyPenalty
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option ranges and render formats.
func (o *Options) Validate() error {
	if o.DeficiencyPenalty < 0 {
		return fmt.Errorf("deficiency_penalty must not be negative, got %v", o.DeficiencyPenalty)
	}
	if o.MaxBalancePasses < 0 {
		return fmt.Errorf("max_balance_passes must not be negative, got %d", o.MaxBalancePasses)
	}
	return ValidateFormats(o.Formats)
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SolverOptions converts to solver options for snap.
func (o *Options) SolverOptions(snap factory.Snapshot) solver.Options {
	opts := solver.Options{
		AllowDeficiency:   o.AllowDeficiency,
		Weights:           snap.Weights,
		DeficiencyPenalty: o.DeficiencyPenalty,
		MaxBalancePasses:  o.MaxBalancePasses,
		Logger:            o.Logger,
	}
	if cat, err := snap.Catalog(); err == nil {
		opts.Catalog = cat
	}
	return opts
}

// SolveKeyOpts returns cache key options for a solve of snap.
func (o *Options) SolveKeyOpts(snap factory.Snapshot) cache.SolveKeyOpts {
	return cache.SolveKeyOpts{
		AllowDeficiency:   o.AllowDeficiency,
		DeficiencyPenalty: o.DeficiencyPenalty,
		Weights:           snap.Weights,
	}
}

// RenderKeyOpts returns cache key options for one rendered format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}

// formatsSorted returns the requested formats in a stable order.
func (o *Options) formatsSorted() []string {
	out := slices.Clone(o.Formats)
	slices.Sort(out)
	return slices.Compact(out)
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a solve.
type Result struct {
	// SnapshotHash is the content hash of the canonical snapshot JSON.
	SnapshotHash string

	// Report is the serialized outcome. It is the only field set on a
	// cache hit.
	Report flowio.Report

	// Solve is the full solver result; nil on a cache hit.
	Solve *solver.Result

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount int
	EdgeCount int
	SolveTime time.Duration
	CacheHit  bool
}
