package cache

// ScopedKeyer wraps a Keyer with a prefix so that several plants or tenants
// can share one cache backend without seeing each other's entries.
//
// Example usage:
//
//	// Per-line keys on a shared Redis instance
//	lineKeyer := NewScopedKeyer(NewDefaultKeyer(), "line:smt-3:")
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

// SequenceKey generates a prefixed key for sequence caching.
func (k *ScopedKeyer) SequenceKey(jobsHash string, opts SequenceKeyOpts) string {
	return k.prefix + k.inner.SequenceKey(jobsHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(reportHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(reportHash, format)
}
