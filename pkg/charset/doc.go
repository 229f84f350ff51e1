// Package charset encodes discrete character observations as bit-vectors.
//
// Every cell of a character matrix is a [StateSet]: bit 0 flags the
// inapplicable state and bit i+1 stands for observed state i. A polymorphic
// cell carries several state bits, and missing data is the all-ones value
// [Missing]. Missing and inapplicable are distinct values and the optimizer
// treats them differently: a missing cell is compatible with everything while
// an inapplicable cell only merges with other inapplicable cells for free.
//
// # Tokens
//
// [Encode] reads a stream of tokens:
//
//	0-9, A-U    single state (A is state 10, U is state 30)
//	{01} (12)   polymorphism, the union of the listed states
//	?           missing
//	-           inapplicable, or missing when EncodeOptions.NAAsMissing is set
//
// Whitespace and newlines separate nothing and are absorbed. A ';' ends the
// stream. Malformed tokens are skipped and reported as [Warning] values.
//
// # Matrices
//
// [ParseTable] reads the simple table format: a "<ntax> <nchar>;" header
// followed by ntax*nchar cells and a closing ';'. [ParseMatrix] reads only the
// cells when the caller already knows the dimensions.
package charset
