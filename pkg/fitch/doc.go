// Package fitch computes parsimony lengths and state sets over a [tree.Tree].
//
// A full evaluation runs two passes from a temporary root placed on the edge
// of the start terminal. The postorder pass combines the preliminary sets of
// both children of every ring (intersection when they overlap, union plus one
// step otherwise) and sums the steps into the tree length. The preorder pass
// refines each preliminary set into a final set using the ancestor's final set
// and the children's preliminary sets.
//
// The inapplicable flag (bit 0) never costs a step on its own: a union only
// charges a step, and drops the flag, when both sides hold applicable states.
// Two inapplicable children stay inapplicable.
//
// [Reoptimize] repeats both passes for a [Changing] set of characters only.
// It marks nodes whose subtree produced no difference as converged, and the
// preorder pass stops descending below a converged node whose final set did
// not change. Rearrangement searches use it after clipping a subtree, where
// only a few characters can change.
//
// [InsertionCost] is the local cost of joining a subtree with root set src to
// the edge between two nodes: one step for every character where src shares
// no state with the union of the two final sets.
package fitch
