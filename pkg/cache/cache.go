// Package cache stores solve results keyed by the content of their input.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the API server, and [NullCache] when caching is disabled. Keys come
// from a [Keyer], which hashes the canonical snapshot JSON together with
// every option that changes the answer, so identical requests hit the same
// entry no matter where they came from.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Pruner is implemented by caches whose expired entries linger until
// removed. Redis expires keys itself and does not need it.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// SolveKeyOpts holds the options that change a solve result.
type SolveKeyOpts struct {
	AllowDeficiency   bool               `json:"allow_deficiency"`
	DeficiencyPenalty float64            `json:"deficiency_penalty"`
	Weights           map[string]float64 `json:"weights,omitempty"`
}

// RenderKeyOpts holds the options that change a rendered artifact.
type RenderKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SolveKey addresses an LP solve of a snapshot.
	SolveKey(snapshotHash string, opts SolveKeyOpts) string

	// FlowsKey addresses a flow report of a snapshot.
	FlowsKey(snapshotHash string) string

	// RenderKey addresses a rendered diagram of a snapshot.
	RenderKey(snapshotHash string, opts RenderKeyOpts) string
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SolveKey hashes the snapshot hash together with the options.
func (DefaultKeyer) SolveKey(snapshotHash string, opts SolveKeyOpts) string {
	return hashKey("solve", snapshotHash, opts)
}

// FlowsKey prefixes the snapshot hash.
func (DefaultKeyer) FlowsKey(snapshotHash string) string {
	return "flows:" + snapshotHash
}

// RenderKey hashes the snapshot hash together with the render options.
func (DefaultKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return hashKey("render", snapshotHash, opts)
}
