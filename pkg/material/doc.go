// Package material models the individual-material fingerprint of a job and
// the changeover cost between two fingerprints.
//
// # Sets
//
// A [Set] is a sorted, de-duplicated slice of material identifiers. Because
// the representation is canonical, two sets built from the same identifiers
// in different insertion orders compare equal and produce identical costs:
//
//	a := material.NewSet("m2", "m1")
//	b := material.NewSet("m1", "m2", "m1")
//	a.Equal(b) // true
//
// # Changeover Cost
//
// [Cost] returns the size of the symmetric difference of two sets: the number
// of feeders that must be unloaded plus the number that must be loaded when
// switching from one job to the next. Cost is zero for equal sets and
// symmetric, but it is not required to satisfy the triangle inequality.
//
// Both [Cost] and [Shared] walk the two sorted slices once, so they run in
// O(len(a)+len(b)) without allocating.
//
// # Common Materials
//
// Materials classified as common (always mounted) never contribute to
// changeover. [Purge] removes them from a set once, at ingestion time.
package material
