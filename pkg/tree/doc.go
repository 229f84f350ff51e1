// Package tree provides the unrooted binary tree graph that parsimony
// analyses score and rearrange.
//
// # Overview
//
// A [Tree] is an arena of nodes addressed by [NodeID] handles. The first
// NumTaxa handles are terminals; every internal vertex is a ring of exactly
// three slots, each slot a node of its own. A node has one edge to a node
// outside its ring, stored symmetrically: if a's edge is b then b's edge is a.
// A node whose edge is [None] is disconnected.
//
// Rings are allocated once, when the tree is created, at the size a fully
// resolved tree needs (NumTaxa-2 rings plus one reserved for temporary
// rooting). Searches reuse them: edges are detached and reattached in place and
// nothing is reallocated per candidate.
//
// # Orientation
//
// The tree itself is unrooted. Passes that need a direction start from the
// terminal returned by [Tree.Start]: reaching a ring through one of its slots
// makes that slot the "bottom" of the ring and the edges of the other two slots
// lead to its children. [Tree.TempRoot] splices a synthetic bifurcation into an
// edge for the length of one optimization pass; [Tree.Unroot] removes it and
// must be called before any structural mutation.
//
// # Mutations
//
//   - [Tree.Join] / [Tree.Disconnect] connect and disconnect two nodes
//   - [Tree.Clip] detaches a subtree together with its parent ring and joins the
//     ring's two other neighbors; [Tree.Insert] splices it into any edge and
//     [Tree.Restore] is its exact inverse
//   - [Tree.Swap] exchanges the subtrees behind two nodes (nearest-neighbor
//     interchange when the nodes flank one internal edge)
//   - [Tree.Graft] allocates a ring and attaches a terminal to an edge
//
// Every mutator either succeeds and leaves the edge relation symmetric, or
// fails with a STRUCTURAL error before touching the tree.
//
// # Identity
//
// [Tree.Bipartitions] fingerprints a topology independent of which rings and
// slots happen to realize it, and [Tree.Topology] / [FromTopology] convert to
// and from plain edge lists.
//
// # Concurrency
//
// Trees are not safe for concurrent use. Copies made with [Tree.Copy] share
// nothing with their source.
package tree
