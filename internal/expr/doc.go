// Package expr parses and evaluates arithmetic formulas over the plane
// coordinates x and y.
//
// Formulas are parsed into a small tree of numbers, variables, unary and
// binary operators and calls to an allow-listed set of math functions.
// Nothing outside that tree is reachable: unknown identifiers, strings,
// attribute access and any other syntax are rejected with an *Error that
// points at the offending position.
//
// Evaluation is vectorized: every variable binds to a slice and the tree is
// walked once per node, not once per point.
package expr
