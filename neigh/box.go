// Implements the simulation box: bounds, periodicity, and the triclinic
// lattice transform. The domain/communication layer owns the authoritative
// box; this core only reads its geometry.

package neigh

import (
	"fmt"
	"math"
)

// Box describes the global simulation domain. Orthogonal boxes have zero
// tilt; triclinic boxes carry the three tilt factors (xy, xz, yz) and map
// positions into lamda (fractional lattice) coordinates for binning and
// tie-break ordering.
type Box struct {
	Lo, Hi    [3]float64 // lower and upper bounds of the untilted edges
	Tilt      [3]float64 // xy, xz, yz tilt factors (triclinic only)
	Triclinic bool       // true if any tilt factor is meaningful
	Periodic  [3]bool    // per-axis periodicity

	prd  [3]float64 // edge lengths (xprd, yprd, zprd)
	half [3]float64 // half edge lengths, for minimum-image tests
	h    [6]float64 // upper-triangular cell matrix: xx yy zz yz xz xy
	hInv [6]float64 // inverse of h, same storage order
}

// NewBox validates the bounds and precomputes the lattice transform.
func NewBox(lo, hi [3]float64, tilt [3]float64, triclinic bool, periodic [3]bool) (*Box, error) {
	b := &Box{Lo: lo, Hi: hi, Tilt: tilt, Triclinic: triclinic, Periodic: periodic}
	for d := 0; d < 3; d++ {
		if !(hi[d] > lo[d]) {
			return nil, fmt.Errorf("box: axis %d has non-positive extent [%g, %g]", d, lo[d], hi[d])
		}
	}
	if !triclinic && (tilt[0] != 0 || tilt[1] != 0 || tilt[2] != 0) {
		return nil, fmt.Errorf("box: tilt factors %v given but triclinic flag is off", tilt)
	}
	b.setup()
	return b, nil
}

// NewOrthoBox is a convenience constructor for orthogonal, fully periodic
// boxes, the common case in tests and benchmarks.
func NewOrthoBox(lo, hi [3]float64) (*Box, error) {
	return NewBox(lo, hi, [3]float64{}, false, [3]bool{true, true, true})
}

func (b *Box) setup() {
	for d := 0; d < 3; d++ {
		b.prd[d] = b.Hi[d] - b.Lo[d]
		b.half[d] = 0.5 * b.prd[d]
	}
	xy, xz, yz := b.Tilt[0], b.Tilt[1], b.Tilt[2]
	b.h = [6]float64{b.prd[0], b.prd[1], b.prd[2], yz, xz, xy}
	b.hInv[0] = 1 / b.h[0]
	b.hInv[1] = 1 / b.h[1]
	b.hInv[2] = 1 / b.h[2]
	b.hInv[3] = -b.h[3] / (b.h[1] * b.h[2])
	b.hInv[4] = (b.h[3]*b.h[5] - b.h[1]*b.h[4]) / (b.h[0] * b.h[1] * b.h[2])
	b.hInv[5] = -b.h[5] / (b.h[0] * b.h[1])
}

// Prd returns the per-axis edge lengths of the box.
func (b *Box) Prd() [3]float64 { return b.prd }

// XToLamda maps a Cartesian position into fractional lattice coordinates,
// where the box spans [0,1) on each axis.
func (b *Box) XToLamda(x [3]float64) [3]float64 {
	dx := x[0] - b.Lo[0]
	dy := x[1] - b.Lo[1]
	dz := x[2] - b.Lo[2]
	return [3]float64{
		b.hInv[0]*dx + b.hInv[5]*dy + b.hInv[4]*dz,
		b.hInv[1]*dy + b.hInv[3]*dz,
		b.hInv[2] * dz,
	}
}

// LamdaToX maps fractional lattice coordinates back to Cartesian space.
func (b *Box) LamdaToX(l [3]float64) [3]float64 {
	return [3]float64{
		b.h[0]*l[0] + b.h[5]*l[1] + b.h[4]*l[2] + b.Lo[0],
		b.h[1]*l[1] + b.h[3]*l[2] + b.Lo[1],
		b.h[2]*l[2] + b.Lo[2],
	}
}

// MinimumImage remaps a displacement vector to its nearest periodic image.
// Triclinic boxes wrap axes in z, y, x order so the tilt contributions of an
// outer wrap are applied before testing the inner axes.
func (b *Box) MinimumImage(d [3]float64) [3]float64 {
	if b.Triclinic {
		if b.Periodic[2] {
			for math.Abs(d[2]) > b.half[2] {
				s := math.Copysign(1, d[2])
				d[2] -= s * b.prd[2]
				d[1] -= s * b.Tilt[2] // yz
				d[0] -= s * b.Tilt[1] // xz
			}
		}
		if b.Periodic[1] {
			for math.Abs(d[1]) > b.half[1] {
				s := math.Copysign(1, d[1])
				d[1] -= s * b.prd[1]
				d[0] -= s * b.Tilt[0] // xy
			}
		}
		if b.Periodic[0] {
			for math.Abs(d[0]) > b.half[0] {
				d[0] -= math.Copysign(b.prd[0], d[0])
			}
		}
		return d
	}
	for a := 0; a < 3; a++ {
		if !b.Periodic[a] {
			continue
		}
		for math.Abs(d[a]) > b.half[a] {
			d[a] -= math.Copysign(b.prd[a], d[a])
		}
	}
	return d
}

// MinimumImageCheck reports whether a displacement exceeds half the box on
// any periodic axis, i.e. whether the displacement is NOT the nearest image.
// Special-bond filtering must treat such pairs as ordinary: the interacting
// image is a different periodic copy than the bonded one.
func (b *Box) MinimumImageCheck(dx, dy, dz float64) bool {
	if b.Periodic[0] && math.Abs(dx) > b.half[0] {
		return true
	}
	if b.Periodic[1] && math.Abs(dy) > b.half[1] {
		return true
	}
	if b.Periodic[2] && math.Abs(dz) > b.half[2] {
		return true
	}
	return false
}

// LamdaMargin converts a Cartesian distance into per-axis margins in lamda
// space: the halo a ghost layer of the given depth occupies beyond the
// [0,1) box on each fractional axis.
func (b *Box) LamdaMargin(dist float64) [3]float64 {
	return [3]float64{
		dist * b.lamdaCutLength(0),
		dist * b.lamdaCutLength(1),
		dist * b.lamdaCutLength(2),
	}
}

// lamdaCutLength returns the conversion factor from a Cartesian distance to
// a lamda-space margin on axis d: the norm of row d of hInv. For orthogonal
// boxes this reduces to 1/prd[d].
func (b *Box) lamdaCutLength(d int) float64 {
	switch d {
	case 0:
		return math.Sqrt(b.hInv[0]*b.hInv[0] + b.hInv[5]*b.hInv[5] + b.hInv[4]*b.hInv[4])
	case 1:
		return math.Sqrt(b.hInv[1]*b.hInv[1] + b.hInv[3]*b.hInv[3])
	default:
		return math.Abs(b.hInv[2])
	}
}
