// Package pipeline runs parsimony analyses from text inputs, with caching.
//
// The pipeline is shared by the CLI and the HTTP server so both validate,
// cache and report runs the same way. A run has two stages:
//
//  1. Load: decode the matrix table (optionally dropping excluded characters)
//     and read the starting tree from Newick text
//  2. Analyze: score the tree, or search for the shortest trees
//
// Results are plain JSON-serializable values so they can be cached, archived
// and returned over HTTP unchanged.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Search(ctx, pipeline.Options{
//	    Matrix:     "5 2; 1 0 1 0 0 0 0 1 0 1;",
//	    Method:     "spr",
//	    Replicates: 10,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Length, res.Trees[0])
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/parsimony/pkg/cache"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/fitch"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMethod is the rearrangement used when none is given.
	DefaultMethod = "spr"

	// DefaultAddSeq orders taxa for the first stepwise-addition tree.
	DefaultAddSeq = "asis"

	// DefaultMaxTrees is the tree buffer capacity.
	DefaultMaxTrees = 100

	// DefaultReplicates is the number of starting trees searched.
	DefaultReplicates = 1
)

// Kind tells which analysis produced a result.
type Kind string

const (
	KindScore  Kind = "score"
	KindSearch Kind = "search"
)

// =============================================================================
// Options
// =============================================================================

// Options describes one run. The same struct is the JSON request body of the
// HTTP API.
type Options struct {
	// Matrix is the character table: "<ntax> <nchar>;" followed by the cells
	// and a closing ';'.
	Matrix string `json:"matrix" validate:"required"`

	// Taxa optionally names the matrix rows. Newick labels may use these
	// names or 1-based taxon numbers.
	Taxa []string `json:"taxa,omitempty" validate:"omitempty,dive,taxon"`

	// Tree is a Newick tree. Required for scoring; a search without one
	// starts from stepwise addition.
	Tree string `json:"tree,omitempty"`

	Method            string `json:"method,omitempty" validate:"omitempty,oneof=nni spr"`
	MaxTrees          int    `json:"max_trees,omitempty" validate:"gte=0,lte=100000"`
	MaxRearrangements int64  `json:"max_rearrangements,omitempty" validate:"gte=0"`
	Replicates        int    `json:"replicates,omitempty" validate:"gte=0,lte=10000"`
	Seed              uint64 `json:"seed,omitempty"`
	AddSeq            string `json:"addseq,omitempty" validate:"omitempty,oneof=asis random"`

	// NAAsMissing reads '-' as missing data instead of inapplicable.
	NAAsMissing bool `json:"na_as_missing,omitempty"`

	// Exclude lists characters to drop, e.g. "1-5 8".
	Exclude string `json:"exclude,omitempty" validate:"omitempty,charlist"`

	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-" validate:"-"`
}

// validate is shared by every Options value; validator caches struct
// metadata per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("taxon", func(fl validator.FieldLevel) bool {
		return errors.ValidateTaxonName(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("charlist", func(fl validator.FieldLevel) bool {
		return strings.Trim(fl.Field().String(), "0123456789- ,\t\n") == ""
	})
	return v
}

// Validate checks field ranges and enums. Failures are INVALID_INPUT errors
// naming the first offending field.
func (o *Options) Validate() error {
	o.Method = strings.ToLower(strings.TrimSpace(o.Method))
	o.AddSeq = strings.ToLower(strings.TrimSpace(o.AddSeq))
	if err := validate.Struct(o); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s", describe(verrs[0]))
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "taxon":
		return fmt.Sprintf("invalid taxon name %q", fe.Value())
	case "charlist":
		return fmt.Sprintf("invalid character list %q", fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// SetDefaults fills zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Method == "" {
		o.Method = DefaultMethod
	}
	if o.AddSeq == "" {
		o.AddSeq = DefaultAddSeq
	}
	if o.MaxTrees == 0 {
		o.MaxTrees = DefaultMaxTrees
	}
	if o.Replicates == 0 {
		o.Replicates = DefaultReplicates
	}
}

// ValidateAndSetDefaults validates o and then fills its defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.Validate(); err != nil {
		return err
	}
	o.SetDefaults()
	return nil
}

// keyOpts returns the options that change a run's outcome. Score runs only
// depend on how the matrix is read.
func (o *Options) keyOpts(kind Kind) cache.RunKeyOpts {
	k := cache.RunKeyOpts{
		NAAsMissing: o.NAAsMissing,
		Exclude:     strings.Join(strings.Fields(o.Exclude), " "),
	}
	if kind == KindSearch {
		k.Method = o.Method
		k.MaxTrees = o.MaxTrees
		k.MaxRearrangements = o.MaxRearrangements
		k.Replicates = o.Replicates
		k.Seed = o.Seed
		k.AddSeq = o.AddSeq
	}
	return k
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of a score or search run.
type Result struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	Taxa     []string `json:"taxa"`
	NumChars int      `json:"nchar"`

	// Length is the score of the tree, or of the best trees found.
	Length  int            `json:"length"`
	Steps   []int          `json:"steps,omitempty"`
	Indices *fitch.Indices `json:"indices,omitempty"`

	// Trees holds Newick strings: the scored tree, or the buffer contents.
	Trees []string `json:"trees"`

	Method         string        `json:"method,omitempty"`
	Rearrangements int64         `json:"rearrangements,omitempty"`
	Improvements   int           `json:"improvements,omitempty"`
	Replicates     int           `json:"replicates,omitempty"`
	Stop           string        `json:"stop,omitempty"`
	Duration       time.Duration `json:"duration"`

	// Warnings lists matrix tokens that were skipped.
	Warnings []string `json:"warnings,omitempty"`

	// Cached is set when the result was served from cache.
	Cached bool `json:"cached"`
}

// Summary is a one-line description for listings.
func (r *Result) Summary() string {
	switch r.Kind {
	case KindScore:
		return fmt.Sprintf("score %d (%d taxa, %d chars)", r.Length, len(r.Taxa), r.NumChars)
	default:
		return fmt.Sprintf("%s length %d, %d trees, %s (%d taxa, %d chars)",
			r.Method, r.Length, len(r.Trees), r.Stop, len(r.Taxa), r.NumChars)
	}
}
