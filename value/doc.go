// Package value models the dynamic tree values exchanged with a scripting host: null,
// boolean, number, string and the host table container.
//
// A [Table] is the only container kind. Whether a table is an object or an array is not
// stored anywhere; it is decided by [Table.IsSequence] at the moment a JSON document is
// produced from it. Arrays use 1-based integer keys.
//
// # What this package must NOT do
//
//   - Know anything about JSON documents or tokens.
//   - Retain references to caller tables beyond the call that received them.
package value
