// Package neigh provides the neighbor-search core of a parallel particle
// simulation: spatial binning, stencil generation, and the pair-list
// builder family that every force evaluator consumes.
//
// # Reading Guide
//
// Start with these three files to understand the rebuild pipeline:
//   - grid.go: binning of owned+ghost particles into a cutoff-sized grid
//   - stencil.go: which neighboring bins must be scanned per bin, and the
//     forward-offset decomposition behind half newton-on lists
//   - build.go: the owned-particle loop, ordering tie-breaks, cutoff and
//     special-bond tests, and page-allocated output
//
// # Architecture
//
// A Manager owns one BinGrid per rank and satisfies any number of
// concurrently registered Requests (half/full, newton on/off, fixed or
// size-based cutoff, single or multi collection) from a single grid
// rebuild. Lists are disposable: each Rebuild produces fresh NeighborList
// values and never mutates earlier ones.
//
// The domain/communication layer is an external collaborator: it owns
// particle state, pads the ghost halo to at least one cutoff, and decides
// when a rebuild is due. This package only reads particle arrays.
//
// # Correctness rules
//
//   - Cutoff tests are strict less-than on squared distance.
//   - Half lists store each unordered pair exactly once, resolved by the
//     forward-bin order (newton on) or particle-index order (newton off).
//   - Exclusion decisions flow through one shared routine
//     (SpecialPolicy.Classify) for every variant, including the mandatory
//     minimum-image escape for bonded pairs separated by more than half
//     the box.
package neigh
