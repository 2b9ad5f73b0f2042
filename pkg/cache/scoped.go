package cache

// ScopedKeyer wraps a Keyer with a prefix so several callers can share one
// backend without seeing each other's entries.
//
// Example usage:
//
//	// API server entries live apart from CLI entries in a shared Redis
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SolveKey generates a prefixed solve key.
func (k *ScopedKeyer) SolveKey(snapshotHash string, opts SolveKeyOpts) string {
	return k.prefix + k.inner.SolveKey(snapshotHash, opts)
}

// FlowsKey generates a prefixed flows key.
func (k *ScopedKeyer) FlowsKey(snapshotHash string) string {
	return k.prefix + k.inner.FlowsKey(snapshotHash)
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(snapshotHash, opts)
}
