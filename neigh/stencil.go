// Stencil generation: for a reference bin, precompute which neighboring
// bin offsets can contain a particle within cutoff of a particle in the
// reference bin. Half stencils for newton-on builds keep only offsets that
// are forward under the (z, y, x) total order on bin coordinates, which is
// what lets each unordered pair be enumerated exactly once system-wide.

package neigh

// Stencil is the ordered offset list for one (reference-collection,
// scanned-collection) pair. Linear offsets are used on the fast path for
// owned reference bins; the coordinate triples support bounds-checked
// traversal when the reference bin is itself in the ghost extension.
type Stencil struct {
	Offsets []int32  // linear bin offsets, deterministic (z, y, x) order
	Triples [][3]int // (dx, dy, dz) per offset
	Cutoff  float64  // Cartesian distance the stencil guarantees to cover

	// SelfScanned reports whether the reference bin (0,0,0) is part of the
	// offset list. Builders that exclude it (half newton-on orthogonal)
	// scan the reference bin with their own intra-bin ordering rule.
	SelfScanned bool
}

// stencilShape selects which offsets of the candidate cube survive.
type stencilShape int

const (
	// shapeFull keeps every offset in range, reference bin included.
	shapeFull stencilShape = iota
	// shapeHalfForward keeps only strictly forward offsets under the
	// (z, y, x) order; the reference bin is excluded.
	shapeHalfForward
	// shapeHalfZ keeps all offsets with dz >= 0, reference bin included;
	// the builder applies a per-pair coordinate tie-break. Used by
	// newton-on builds that cannot pre-select direction at the bin level:
	// triclinic (bin rows are not orthogonal) and multi-collection
	// (per-class-pair stencils).
	shapeHalfZ
)

// buildStencil enumerates offsets within cutoff+slack of the reference
// bin. Pruning uses a per-offset lower bound on the bin-to-bin distance
// (see binDistSq), so the only tolerance a caller normally needs is
// slack = 0; slack is exposed as a safety margin and its adequacy is
// verified by the completeness tests.
func buildStencil(g *BinGrid, cutoff, slack float64, shape stencilShape) *Stencil {
	s := &Stencil{Cutoff: cutoff}
	reach := cutoff + slack
	reachSq := reach * reach

	var span [3]int
	for d := 0; d < 3; d++ {
		n := int(reach / g.spacing[d])
		if float64(n)*g.spacing[d] < reach {
			n++
		}
		// Offsets beyond the ghost extension address no storable particle
		// and no addressable bin; clamp rather than index out of range.
		if n > g.ext[d] {
			n = g.ext[d]
		}
		span[d] = n
	}

	for dz := -span[2]; dz <= span[2]; dz++ {
		for dy := -span[1]; dy <= span[1]; dy++ {
			for dx := -span[0]; dx <= span[0]; dx++ {
				switch shape {
				case shapeHalfForward:
					if dz < 0 || (dz == 0 && (dy < 0 || (dy == 0 && dx <= 0))) {
						continue
					}
				case shapeHalfZ:
					if dz < 0 {
						continue
					}
				}
				if binDistSq(g, dx, dy, dz) >= reachSq {
					continue
				}
				if dx == 0 && dy == 0 && dz == 0 {
					s.SelfScanned = true
				}
				off := (dz*g.mbin[1]+dy)*g.mbin[0] + dx
				s.Offsets = append(s.Offsets, int32(off))
				s.Triples = append(s.Triples, [3]int{dx, dy, dz})
			}
		}
	}
	return s
}

// binDistSq lower-bounds the squared Cartesian distance between any point
// in the reference bin and any point in the bin at the given offset.
// Adjacent bins (|d| <= 1) contribute zero on their axis. Two bins n slabs
// apart on axis d are separated by at least (n-1)*spacing[d], the
// perpendicular distance across the intervening slabs. In an orthogonal
// grid the slab normals are mutually perpendicular, so the per-axis gaps
// combine as a sum of squares; in a tilted grid they are not, and the only
// combination that stays a lower bound is the largest single gap.
func binDistSq(g *BinGrid, dx, dy, dz int) float64 {
	f := func(d int, spacing float64) float64 {
		if d < 0 {
			d = -d
		}
		if d <= 1 {
			return 0
		}
		return float64(d-1) * spacing
	}
	x := f(dx, g.spacing[0])
	y := f(dy, g.spacing[1])
	z := f(dz, g.spacing[2])
	if g.box.Triclinic {
		m := x
		if y > m {
			m = y
		}
		if z > m {
			m = z
		}
		return m * m
	}
	return x*x + y*y + z*z
}

// StencilSet holds one stencil per (reference-collection,
// scanned-collection) pair. Single-collection builds store a 1x1 set.
type StencilSet struct {
	ncoll    int
	stencils []*Stencil // row-major [ic][jc]
}

// At returns the stencil for reference collection ic scanning collection jc.
func (ss *StencilSet) At(ic, jc int) *Stencil {
	return ss.stencils[ic*ss.ncoll+jc]
}

// NCollections returns the number of collections the set was built for.
func (ss *StencilSet) NCollections() int { return ss.ncoll }

// buildStencilSet generates the per-class-pair stencils. cutoffs is an
// ncoll x ncoll matrix of Cartesian cutoff distances; it is consumed as
// given, with no symmetry assumption, so a class with a larger cutoff
// scans farther even from a smaller-cutoff reference class.
func buildStencilSet(g *BinGrid, cutoffs [][]float64, slack float64, shape stencilShape) *StencilSet {
	ncoll := len(cutoffs)
	ss := &StencilSet{ncoll: ncoll, stencils: make([]*Stencil, ncoll*ncoll)}
	for ic := 0; ic < ncoll; ic++ {
		for jc := 0; jc < ncoll; jc++ {
			ss.stencils[ic*ncoll+jc] = buildStencil(g, cutoffs[ic][jc], slack, shape)
		}
	}
	return ss
}
