package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/parsimony/pkg/cache"
	"github.com/matzehuels/parsimony/pkg/charset"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/fitch"
	"github.com/matzehuels/parsimony/pkg/newick"
	"github.com/matzehuels/parsimony/pkg/observability"
	"github.com/matzehuels/parsimony/pkg/search"
	"github.com/matzehuels/parsimony/pkg/tree"
)

// Runner executes runs with caching. It holds no per-run state, so one
// Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default lifetime of cached results when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default keyer and a nil logger selects log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Score computes the length of opts.Tree on opts.Matrix, with per-character
// steps and fit indices.
func (r *Runner) Score(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Tree == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tree is required for scoring")
	}
	r.applyLogger(&opts)

	key := r.Keyer.ScoreKey(cache.Hash([]byte(opts.Matrix)), cache.Hash([]byte(opts.Tree)), opts.keyOpts(KindScore))
	return r.cached(ctx, KindScore, key, cache.TTLScore, opts.Refresh, func() (*Result, error) {
		return r.score(opts)
	})
}

func (r *Runner) score(opts Options) (*Result, error) {
	began := time.Now()
	m, warnings, err := LoadMatrix(opts)
	if err != nil {
		return nil, err
	}
	t, err := LoadTree(opts, m)
	if err != nil {
		return nil, err
	}
	res := newResult(KindScore, m, warnings)
	if err := measure(res, t, m); err != nil {
		return nil, err
	}
	res.Trees = []string{newick.Format(t, m.Taxa())}
	res.Duration = time.Since(began)

	r.Logger.Info("scored tree", "length", res.Length, "taxa", m.NumTaxa(), "chars", m.NumChars())
	return res, nil
}

// Search runs a heuristic search. Reaching the tree or rearrangement limit
// is reported in Result.Stop, not as an error.
func (r *Runner) Search(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	treeHash := ""
	if opts.Tree != "" {
		treeHash = cache.Hash([]byte(opts.Tree))
	}
	key := r.Keyer.SearchKey(cache.Hash([]byte(opts.Matrix)), treeHash, opts.keyOpts(KindSearch))
	return r.cached(ctx, KindSearch, key, cache.TTLSearch, opts.Refresh, func() (*Result, error) {
		return r.search(ctx, opts)
	})
}

func (r *Runner) search(ctx context.Context, opts Options) (*Result, error) {
	m, warnings, err := LoadMatrix(opts)
	if err != nil {
		return nil, err
	}
	start, err := LoadTree(opts, m)
	if err != nil {
		return nil, err
	}

	out, err := search.Run(ctx, start, m, search.Options{
		Method: search.Method(opts.Method),
		Limits: search.Limits{
			MaxTrees:          opts.MaxTrees,
			MaxRearrangements: opts.MaxRearrangements,
			Replicates:        opts.Replicates,
		},
		AddSeq: search.AddSeq(opts.AddSeq),
		Seed:   opts.Seed,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	if err := out.Verify(m); err != nil {
		return nil, err
	}

	res := newResult(KindSearch, m, warnings)
	trees := out.Trees()
	if err := measure(res, trees[0].Copy(), m); err != nil {
		return nil, err
	}
	res.Trees = make([]string, len(trees))
	for i, t := range trees {
		res.Trees[i] = newick.Format(t, m.Taxa())
	}
	res.Method = opts.Method
	res.Rearrangements = out.Rearrangements
	res.Improvements = out.Improvements
	res.Replicates = out.Replicates
	res.Stop = string(out.Stop)
	res.Duration = out.Duration

	r.Logger.Info("search finished",
		"length", res.Length,
		"trees", len(res.Trees),
		"rearrangements", res.Rearrangements,
		"stop", res.Stop,
		"duration", res.Duration)
	if out.Stop.AtLimit() {
		r.Logger.Warn("search stopped at limit", "stop", res.Stop)
	}
	return res, nil
}

// cached returns the stored result under key, or computes, stores and
// returns a fresh one. Cache failures are logged and never fail the run.
func (r *Runner) cached(ctx context.Context, kind Kind, key string, ttl time.Duration, refresh bool, compute func() (*Result, error)) (*Result, error) {
	hooks := observability.Cache()
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if !refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		if err == nil && hit {
			var res Result
			if err := json.Unmarshal(data, &res); err == nil {
				hooks.OnCacheHit(ctx, string(kind))
				res.Cached = true
				r.Logger.Debug("cache hit", "kind", kind, "id", res.ID)
				return &res, nil
			}
		}
		hooks.OnCacheMiss(ctx, string(kind))
	}

	res, err := compute()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, string(kind), len(data))
		}
	}
	return res, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func newResult(kind Kind, m *charset.Matrix, warnings []charset.Warning) *Result {
	return &Result{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		Taxa:      m.Taxa(),
		NumChars:  m.NumChars(),
		Warnings:  warningStrings(warnings),
	}
}

// measure fills the length, steps and indices of t.
func measure(res *Result, t *tree.Tree, m *charset.Matrix) error {
	steps, err := fitch.Steps(t, m)
	if err != nil {
		return err
	}
	ix := fitch.ComputeIndices(m, steps)
	res.Length = t.Length
	res.Steps = steps
	res.Indices = &ix
	return nil
}
