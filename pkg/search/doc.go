// Package search finds most parsimonious trees by branch rearrangement.
//
// A search runs one or more replicates. Each replicate starts from a tree
// (the caller's tree for the first replicate, otherwise a stepwise-addition
// tree), then repeatedly applies the configured rearrangement family to every
// tree in the replicate's range of the [Buffer] until none yields a shorter
// or an equally short but new topology.
//
// # Rearrangements
//
// [NNI] tries both nearest-neighbor interchanges across every internal edge
// and scores each candidate with a full Fitch pass.
//
// [SPR] prunes every subtree, reoptimizes the remainder over the characters
// the pruning can affect, and prices each regraft position from the final
// state sets at both ends of the target edge without rebuilding the tree.
// When the matrix holds inapplicable codings the local price is only an
// estimate, so candidates it accepts are confirmed with a full pass.
//
// Both families adopt the first improving move they find.
//
// # Tree buffer
//
// Co-optimal trees are kept in a bounded [Buffer]. Two trees are the same
// topology when their bipartition sets are equal. Filling the buffer or
// reaching the rearrangement ceiling ends the search normally with a
// [StopReason] describing the limit.
//
// # Usage
//
//	res, err := search.Run(ctx, start, matrix, search.Options{
//	    Method: search.SPR,
//	    Limits: search.Limits{MaxTrees: 100, Replicates: 10},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Length, res.Buffer.Len(), res.Stop)
package search
