// Package pkg provides the libraries behind the parsimony tool.
//
// # Overview
//
// Parsimony scores unrooted phylogenetic trees against discrete character
// matrices with the Fitch algorithm and searches tree space for the shortest
// trees by nearest-neighbor interchange (NNI) or subtree pruning and
// regrafting (SPR). The pkg directory is organized into three areas:
//
//  1. Analysis core: [charset], [tree], [fitch], [search]
//  2. Formats and errors: [newick], [render], [errors]
//  3. Infrastructure: [pipeline], [cache], [archive], [server], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	Matrix table + Newick tree
//	         ↓
//	    [charset] package (decode states into bit sets)
//	    [newick] package (read the starting tree)
//	         ↓
//	    [search] package (stepwise addition, NNI/SPR, tree buffer)
//	         ↓
//	    [fitch] package (length, steps, CI/RI)
//	         ↓
//	    Newick / DOT / SVG output
//
// # Quick Start
//
//	m, _, err := charset.ParseTable("5 2; 1 0 1 0 0 0 0 1 0 1;", charset.EncodeOptions{})
//	if err != nil {
//	    return err
//	}
//	res, err := search.Run(ctx, nil, m, search.Options{Method: search.SPR})
//	if err != nil {
//	    return err
//	}
//	for _, t := range res.Trees() {
//	    fmt.Println(newick.Format(t, m.Taxa()))
//	}
//
// # Main Packages
//
// ## Analysis Core
//
// [charset] - State sets as 32-bit masks, the token encoder, the matrix
// container and character exclusion lists.
//
// [tree] - Arena-allocated unrooted binary trees built from three-slot rings,
// with the join, clip and insert operations rearrangements are made of.
//
// [fitch] - Full and incremental Fitch passes and consistency indices.
//
// [search] - Rearrangement engines, the tree buffer and the search controller.
//
// ## Infrastructure
//
// [pipeline] - Validated, cached score and search runs shared by the CLI and
// the HTTP API.
//
// [cache] - Result cache with file, Redis and null backends.
//
// [archive] - Finished results, stored as files or in MongoDB.
//
// [server] - HTTP API over [pipeline] and [archive].
//
// [observability] - Hooks for metrics, with a Prometheus implementation.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/search/...     # Specific package
package pkg
