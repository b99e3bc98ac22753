// Package document is an ordered JSON document tree with explicit ownership.
//
// Every [Node] is accounted against an [Allocator] when it is created and handed back
// when it is released. A node attached to a parent (via [Node.Set] or [Node.Append]) is
// owned by that parent; releasing a root releases the whole subtree exactly once. This
// lets callers prove that no document outlives the call that built it, and gives the
// node budget of a [Heap] a real out-of-memory failure mode.
//
// Parsing and serialization go through json-iterator and preserve object key order.
//
// # What this package must NOT do
//
//   - Know about host values or tokens.
//   - Share nodes between trees; attaching an owned node is an error.
package document
