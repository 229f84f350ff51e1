package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments, or
// several versions of the scoring code, can share one backend without
// reading each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ScoreKey generates a prefixed score key.
func (k *ScopedKeyer) ScoreKey(matrixHash, treeHash string, opts RunKeyOpts) string {
	return k.prefix + k.inner.ScoreKey(matrixHash, treeHash, opts)
}

// SearchKey generates a prefixed search key.
func (k *ScopedKeyer) SearchKey(matrixHash, treeHash string, opts RunKeyOpts) string {
	return k.prefix + k.inner.SearchKey(matrixHash, treeHash, opts)
}
