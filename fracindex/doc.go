// Package fracindex generates lexicographic order keys for list positioning.
//
//	Overview
//
// An order key is an opaque string over the alphabet '0'-'9','a'-'z',
// compared with ordinary lexicographic string ordering. Items in an ordered
// collection each carry one key; the collection's display order is the sort
// order of the keys. Moving an item means generating a fresh key between its
// new neighbors and assigning it to the moved item only. Existing items are
// never renumbered.
//
//	Key generation
//
// KeyBetween produces a key strictly between two neighbors, where either
// neighbor may be absent (the empty string):
//
//   - no neighbors: the fixed start key "a0"
//   - after only: a key greater than after, by stepping the leading
//     character up (or growing the key when it is already at 'z')
//   - before only: a key less than before, by stepping the leading
//     character down (or prefixing the boundary digit '0')
//   - both: the midpoint past the longest common prefix, growing the key
//     by one character whenever the diverging characters are adjacent and
//     leave no room for a direct midpoint
//
// Because keys grow in length instead of exhausting precision, any two
// adjacent generated keys always admit another key between them. The cost
// is that pathological repeated insertion at one point produces keys whose
// length grows linearly; that trade is deliberate, since the alternative is
// periodically renumbering the whole collection.
//
//	Validity
//
// A key is valid when it is non-empty, uses only alphabet characters, and
// is not composed entirely of '0'. All-zero keys are reserved as the
// virtual left boundary of the key space: nothing can sort before them, so
// accepting one would make "insert at the start" impossible later. The
// generator never emits a reserved key.
//
//	Uniqueness
//
// The generator is pure and stateless. It guarantees ordering, not
// uniqueness: two callers racing from the same stale neighbors can compute
// identical keys. Collision detection belongs to the storage layer (see the
// board package, which retries against fresh neighbors on conflict).
package fracindex
