// Defines the read-only particle arrays this core consumes. The
// domain/communication layer owns particle state; it hands this core a
// consistent owned+ghost snapshot before every rebuild and guarantees the
// ghost halo is at least one neighbor cutoff deep.

package neigh

import "fmt"

// ParticleSet is a struct-of-arrays view over the locally resident
// particles: the first NLocal entries are owned, the remaining NGhost are
// ghost copies of particles owned elsewhere. All slices are indexed by the
// same local particle index and are never written by this package.
type ParticleSet struct {
	NLocal int // number of owned particles
	NGhost int // number of ghost particles following the owned block

	X   [][3]float64 // positions, length NLocal+NGhost
	Tag []int64      // stable global identifiers, length NLocal+NGhost

	// Collection assigns each particle to a cutoff class for
	// multi-collection builds. Nil means every particle is in collection 0.
	Collection []int

	// Radius holds per-particle interaction radii for size-based builds.
	// Nil for fixed-cutoff systems.
	Radius []float64

	// Special lists the global tags of bonded partners of each OWNED
	// particle, grouped by bond class: the first NSpecial[i][0] entries are
	// 1-2 partners, entries up to NSpecial[i][1] are 1-3, entries up to
	// NSpecial[i][2] are 1-4. Nil when the system has no bonds.
	Special  [][]int64
	NSpecial [][3]int
}

// NAll returns the total number of locally resident particles.
func (ps *ParticleSet) NAll() int { return ps.NLocal + ps.NGhost }

// MaxRadius returns the largest per-particle radius, or 0 if the set has no
// radii. Stencil sizing for size-based lists depends on this value.
func (ps *ParticleSet) MaxRadius() float64 {
	max := 0.0
	for _, r := range ps.Radius {
		if r > max {
			max = r
		}
	}
	return max
}

// MaxCollection returns the highest collection id present, or 0 when the
// set is single-collection.
func (ps *ParticleSet) MaxCollection() int {
	max := 0
	for _, c := range ps.Collection {
		if c > max {
			max = c
		}
	}
	return max
}

// Validate checks the internal consistency of the array lengths. A
// malformed set indicates a defect in the layer that assembled it, so
// callers should treat an error as fatal.
func (ps *ParticleSet) Validate() error {
	n := ps.NAll()
	if ps.NLocal < 0 || ps.NGhost < 0 {
		return fmt.Errorf("particle set: negative counts nlocal=%d nghost=%d", ps.NLocal, ps.NGhost)
	}
	if len(ps.X) != n {
		return fmt.Errorf("particle set: %d positions for %d particles", len(ps.X), n)
	}
	if len(ps.Tag) != n {
		return fmt.Errorf("particle set: %d tags for %d particles", len(ps.Tag), n)
	}
	if ps.Collection != nil && len(ps.Collection) != n {
		return fmt.Errorf("particle set: %d collection ids for %d particles", len(ps.Collection), n)
	}
	if ps.Radius != nil && len(ps.Radius) != n {
		return fmt.Errorf("particle set: %d radii for %d particles", len(ps.Radius), n)
	}
	if ps.Special != nil {
		if len(ps.Special) < ps.NLocal || len(ps.NSpecial) < ps.NLocal {
			return fmt.Errorf("particle set: special lists cover %d of %d owned particles",
				len(ps.Special), ps.NLocal)
		}
		for i := 0; i < ps.NLocal; i++ {
			ns := ps.NSpecial[i]
			if ns[0] > ns[1] || ns[1] > ns[2] || ns[2] != len(ps.Special[i]) {
				return fmt.Errorf("particle set: particle %d has inconsistent special counts %v for list of %d",
					i, ns, len(ps.Special[i]))
			}
		}
	}
	return nil
}

// collectionOf returns the cutoff class of particle i.
func (ps *ParticleSet) collectionOf(i int) int {
	if ps.Collection == nil {
		return 0
	}
	return ps.Collection[i]
}
