// Package testutil provides the brute-force reference enumeration and
// pair-set extraction helpers shared by the neighbor-list property tests.
package testutil

import (
	"testing"

	"github.com/neighbor-sim/neighbor-sim/neigh"
)

// TagPair is an unordered pair of global particle tags, stored sorted.
type TagPair [2]int64

// MakeTagPair normalizes the tag order.
func MakeTagPair(a, b int64) TagPair {
	if a > b {
		a, b = b, a
	}
	return TagPair{a, b}
}

// BrutePairs enumerates every unordered owned-particle pair whose
// minimum-image squared distance is strictly below cutsq(i, j). It is the
// ground truth the grid/stencil/builder pipeline is checked against; boxes
// used with it must be wider than two cutoffs per axis so the nearest
// image is the only image in range.
func BrutePairs(ps *neigh.ParticleSet, box *neigh.Box, cutsq func(i, j int) float64) map[TagPair]bool {
	pairs := make(map[TagPair]bool)
	for i := 0; i < ps.NLocal; i++ {
		for j := i + 1; j < ps.NLocal; j++ {
			d := box.MinimumImage([3]float64{
				ps.X[i][0] - ps.X[j][0],
				ps.X[i][1] - ps.X[j][1],
				ps.X[i][2] - ps.X[j][2],
			})
			rsq := d[0]*d[0] + d[1]*d[1] + d[2]*d[2]
			if rsq < cutsq(i, j) {
				pairs[MakeTagPair(ps.Tag[i], ps.Tag[j])] = true
			}
		}
	}
	return pairs
}

// FixedCutsq adapts a scalar cutoff for BrutePairs.
func FixedCutsq(cutoff float64) func(i, j int) float64 {
	c := cutoff * cutoff
	return func(i, j int) float64 { return c }
}

// CollectionCutsq adapts a per-collection cutoff matrix for BrutePairs.
func CollectionCutsq(ps *neigh.ParticleSet, cut [][]float64) func(i, j int) float64 {
	return func(i, j int) float64 {
		c := cut[ps.Collection[i]][ps.Collection[j]]
		return c * c
	}
}

// SizeCutsq adapts per-particle radii plus skin for BrutePairs.
func SizeCutsq(ps *neigh.ParticleSet, skin float64) func(i, j int) float64 {
	return func(i, j int) float64 {
		c := ps.Radius[i] + ps.Radius[j] + skin
		return c * c
	}
}

// PairCounts maps each unordered tag pair stored in the list to the number
// of directed entries referencing it. A correct half list yields count 1
// everywhere; a correct full list yields count 2 for owned-owned pairs.
// Ghost entries are folded onto their source tag.
func PairCounts(list *neigh.NeighborList, ps *neigh.ParticleSet) map[TagPair]int {
	counts := make(map[TagPair]int)
	for i := 0; i < list.NumParticles(); i++ {
		for _, e := range list.Run(i) {
			j := neigh.EntryIndex(e)
			counts[MakeTagPair(ps.Tag[i], ps.Tag[j])]++
		}
	}
	return counts
}

// HalfPairSet asserts every pair in the list is stored exactly once and
// returns the pair set.
func HalfPairSet(t *testing.T, list *neigh.NeighborList, ps *neigh.ParticleSet) map[TagPair]bool {
	t.Helper()
	counts := PairCounts(list, ps)
	set := make(map[TagPair]bool, len(counts))
	for p, n := range counts {
		if n != 1 {
			t.Errorf("half list stores pair %v %d times, want exactly 1", p, n)
		}
		set[p] = true
	}
	return set
}

// FullPairSet asserts every owned-owned pair is stored in both directions
// and returns the unordered pair set.
func FullPairSet(t *testing.T, list *neigh.NeighborList, ps *neigh.ParticleSet) map[TagPair]bool {
	t.Helper()
	counts := PairCounts(list, ps)
	set := make(map[TagPair]bool, len(counts))
	for p, n := range counts {
		if n != 2 {
			t.Errorf("full list stores pair %v %d times, want both directions", p, n)
		}
		set[p] = true
	}
	return set
}

// SamePairs reports mismatches between a produced pair set and the
// reference set.
func SamePairs(t *testing.T, got map[TagPair]bool, want map[TagPair]bool) {
	t.Helper()
	for p := range want {
		if !got[p] {
			t.Errorf("missing pair %v", p)
		}
	}
	for p := range got {
		if !want[p] {
			t.Errorf("spurious pair %v", p)
		}
	}
}
