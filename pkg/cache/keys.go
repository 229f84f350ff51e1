package cache

// Keyer builds cache keys for pipeline stages.
type Keyer interface {
	// ScoreKey identifies the score of one tree against one matrix.
	ScoreKey(matrixHash, treeHash string, opts RunKeyOpts) string

	// SearchKey identifies a search. treeHash is empty for searches that
	// start from stepwise addition.
	SearchKey(matrixHash, treeHash string, opts RunKeyOpts) string
}

// RunKeyOpts holds every option that changes the outcome of a run.
type RunKeyOpts struct {
	Method            string `json:"method,omitempty"`
	MaxTrees          int    `json:"max_trees,omitempty"`
	MaxRearrangements int64  `json:"max_rearrangements,omitempty"`
	Replicates        int    `json:"replicates,omitempty"`
	Seed              uint64 `json:"seed,omitempty"`
	AddSeq            string `json:"addseq,omitempty"`
	NAAsMissing       bool   `json:"na_as_missing,omitempty"`
	Exclude           string `json:"exclude,omitempty"`
}

// DefaultKeyer hashes inputs into "score:" and "search:" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ScoreKey implements [Keyer].
func (DefaultKeyer) ScoreKey(matrixHash, treeHash string, opts RunKeyOpts) string {
	return hashKey("score", matrixHash, treeHash, opts)
}

// SearchKey implements [Keyer].
func (DefaultKeyer) SearchKey(matrixHash, treeHash string, opts RunKeyOpts) string {
	return hashKey("search", matrixHash, treeHash, opts)
}
