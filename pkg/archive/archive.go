// Package archive keeps finished results so they can be listed, shown and
// rendered later.
//
// Two backends implement [Store]:
//   - [FileStore]: one JSON file per result, for the CLI
//   - [MongoStore]: a MongoDB collection, for the HTTP server
//
// Results are identified by their UUID. Archived results are records of
// finished runs; a search cannot be resumed from them.
//
// # Usage
//
//	store, err := archive.Open(ctx, archive.Config{Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if err := store.Save(ctx, res); err != nil {
//	    return err
//	}
//	recent, err := store.List(ctx, 20)
package archive

import (
	"context"
	"fmt"

	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/pipeline"
)

// ErrNotFound is returned for unknown result IDs.
var ErrNotFound = errors.New(errors.ErrCodeResultNotFound, "result not found")

// DefaultListLimit bounds List when the caller passes a limit <= 0.
const DefaultListLimit = 50

// Store persists finished results.
type Store interface {
	// Save stores res under res.ID, replacing any earlier copy.
	Save(ctx context.Context, res *pipeline.Result) error

	// Get returns the result with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*pipeline.Result, error)

	// List returns up to limit results, newest first.
	List(ctx context.Context, limit int) ([]*pipeline.Result, error)

	// Delete removes a result. Deleting an unknown ID returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendMongo = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string // "file" (default) or "mongo"
	Dir           string // file backend directory
	MongoURI      string
	MongoDatabase string // defaults to "parsimony"
}

// Open creates the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
