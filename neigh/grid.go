// Implements the spatial bin grid: a regular decomposition of the
// ghost-extended local sub-volume into bins sized relative to the largest
// neighbor cutoff. Binning is the only step of a rebuild where concurrent
// writers touch shared state; it is resolved with one atomic reservation
// per insertion and a bounded regrow-and-retry loop on overflow.

package neigh

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ErrOutOfDomain reports a particle whose coordinate falls outside the
// ghost-extended grid. This means the communication layer under-built its
// ghost halo; the grid never clamps or recovers such positions.
var ErrOutOfDomain = fmt.Errorf("particle coordinate outside ghost-extended domain")

// GridConfig tunes bin geometry and initial storage.
type GridConfig struct {
	// BinSizeRatio sets the target bin edge length as a fraction of the
	// largest cutoff. Smaller bins shrink the candidates scanned per
	// stencil cell but enlarge the stencil; 0.5 is the conventional
	// trade-off and the default.
	BinSizeRatio float64

	// InitialBinCap is the starting per-bin particle capacity. Overflowing
	// bins grow geometrically and re-run the binning pass.
	InitialBinCap int
}

func (c GridConfig) withDefaults() GridConfig {
	if c.BinSizeRatio <= 0 {
		c.BinSizeRatio = 0.5
	}
	if c.InitialBinCap <= 0 {
		c.InitialBinCap = 8
	}
	return c
}

// BinGrid assigns particles to bins over the local box extended by one
// ghost margin per axis. Triclinic boxes are binned in lamda coordinates,
// where bin rows are axis-aligned again.
type BinGrid struct {
	box *Box
	cfg GridConfig

	cutGhost float64    // ghost margin the grid must cover, in Cartesian distance
	lo       [3]float64 // binning-space lower bound of the local box
	binsize  [3]float64 // bin edge length in binning space
	bininv   [3]float64
	prd      [3]float64 // binning-space extent of the local box
	nbin     [3]int     // bins covering the local box
	ext      [3]int     // ghost-extension bins per axis on each side
	mbinlo   [3]int     // lowest bin index per axis (ghost extension, negative)
	mbin     [3]int     // total bins per axis including ghost extension
	nbins    int

	// spacing is the minimum Cartesian distance between adjacent bin
	// planes per axis; the stencil generator uses it to lower-bound
	// bin-to-bin distances.
	spacing [3]float64

	binCap  int32
	counts  []int32
	slots   []int32
	atomBin []int32 // per-particle linear bin index, valid after Rebuild

	// lamda caches fractional coordinates per particle for triclinic
	// boxes; builders reuse it for the newton-on tie-break ordering.
	lamda [][3]float64

	retries int // regrow passes performed by the last Rebuild
}

// Setup computes bin counts so the bin edge is roughly
// BinSizeRatio*cutoff, and extends the grid index range by enough bins to
// cover a ghost margin of one cutoff per axis. cutoff must be the largest
// neighbor cutoff any request will scan with.
func (g *BinGrid) Setup(box *Box, cutoff float64, cfg GridConfig) error {
	if cutoff <= 0 {
		return fmt.Errorf("grid setup: cutoff must be positive, got %g", cutoff)
	}
	g.box = box
	g.cfg = cfg.withDefaults()
	g.cutGhost = cutoff

	target := g.cfg.BinSizeRatio * cutoff
	prdCart := box.Prd()
	for d := 0; d < 3; d++ {
		n := int(prdCart[d] / target)
		if n < 1 {
			n = 1
		}
		g.nbin[d] = n
	}

	if box.Triclinic {
		// Bin in lamda space: the local box spans [0,1) per axis and the
		// ghost margin converts through the reciprocal row lengths.
		for d := 0; d < 3; d++ {
			g.lo[d] = 0
			g.prd[d] = 1
			g.binsize[d] = 1 / float64(g.nbin[d])
			g.bininv[d] = float64(g.nbin[d])
			g.spacing[d] = g.binsize[d] / box.lamdaCutLength(d)
		}
	} else {
		for d := 0; d < 3; d++ {
			g.lo[d] = box.Lo[d]
			g.prd[d] = prdCart[d]
			g.binsize[d] = prdCart[d] / float64(g.nbin[d])
			g.bininv[d] = 1 / g.binsize[d]
			g.spacing[d] = g.binsize[d]
		}
	}

	for d := 0; d < 3; d++ {
		margin := cutoff
		if box.Triclinic {
			margin = cutoff * box.lamdaCutLength(d)
		}
		ext := int(math.Ceil(margin * g.bininv[d]))
		g.ext[d] = ext
		g.mbinlo[d] = -ext
		g.mbin[d] = g.nbin[d] + 2*ext
	}
	g.nbins = g.mbin[0] * g.mbin[1] * g.mbin[2]

	g.binCap = int32(g.cfg.InitialBinCap)
	g.counts = make([]int32, g.nbins)
	g.slots = make([]int32, g.nbins*int(g.binCap))
	return nil
}

// NBins returns the total bin count including the ghost extension.
func (g *BinGrid) NBins() int { return g.nbins }

// Retries returns how many regrow passes the last Rebuild needed.
func (g *BinGrid) Retries() int { return g.retries }

// binSpace maps a particle position into binning space (lamda coordinates
// for triclinic boxes, Cartesian otherwise).
func (g *BinGrid) binSpace(x [3]float64) [3]float64 {
	if g.box.Triclinic {
		return g.box.XToLamda(x)
	}
	return x
}

// coord2bin maps a binning-space coordinate to per-axis bin indices.
// Coordinates in the ghost margin land in the extension bins; anything
// beyond that is a domain-consistency error.
func (g *BinGrid) coord2bin(c [3]float64) (ix, iy, iz int, err error) {
	var ib [3]int
	for d := 0; d < 3; d++ {
		off := c[d] - g.lo[d]
		switch {
		case off >= g.prd[d]:
			ib[d] = int((off-g.prd[d])*g.bininv[d]) + g.nbin[d]
		case off >= 0:
			ib[d] = int(off * g.bininv[d])
			if ib[d] > g.nbin[d]-1 {
				ib[d] = g.nbin[d] - 1
			}
		default:
			ib[d] = int(off*g.bininv[d]) - 1
		}
		if ib[d] < g.mbinlo[d] || ib[d] >= g.mbinlo[d]+g.mbin[d] {
			return 0, 0, 0, fmt.Errorf("%w: axis %d coordinate %g maps to bin %d outside [%d, %d)",
				ErrOutOfDomain, d, c[d], ib[d], g.mbinlo[d], g.mbinlo[d]+g.mbin[d])
		}
	}
	return ib[0], ib[1], ib[2], nil
}

// linearBin flattens per-axis bin indices into the grid's linear index.
func (g *BinGrid) linearBin(ix, iy, iz int) int {
	return ((iz-g.mbinlo[2])*g.mbin[1]+(iy-g.mbinlo[1]))*g.mbin[0] + (ix - g.mbinlo[0])
}

// binInRange reports whether per-axis bin indices address a bin inside the
// ghost-extended grid.
func (g *BinGrid) binInRange(ix, iy, iz int) bool {
	return ix >= g.mbinlo[0] && ix < g.mbinlo[0]+g.mbin[0] &&
		iy >= g.mbinlo[1] && iy < g.mbinlo[1]+g.mbin[1] &&
		iz >= g.mbinlo[2] && iz < g.mbinlo[2]+g.mbin[2]
}

// binCoords is the inverse of linearBin.
func (g *BinGrid) binCoords(b int) (ix, iy, iz int) {
	ix = b%g.mbin[0] + g.mbinlo[0]
	iy = (b/g.mbin[0])%g.mbin[1] + g.mbinlo[1]
	iz = b/(g.mbin[0]*g.mbin[1]) + g.mbinlo[2]
	return
}

// Rebuild re-bins every owned and ghost particle from scratch. Workers
// reserve slots with an atomic per-bin increment; if any bin overflows its
// capacity mid-pass the pass is re-run with grown storage, using the exact
// occupancy counts the failed pass produced. A coordinate outside the
// ghost-extended domain aborts with ErrOutOfDomain.
func (g *BinGrid) Rebuild(ps *ParticleSet, workers int) error {
	if g.box == nil {
		panic("BinGrid.Rebuild called before Setup")
	}
	if workers < 1 {
		workers = 1
	}
	n := ps.NAll()
	if cap(g.atomBin) < n {
		g.atomBin = make([]int32, n)
	}
	g.atomBin = g.atomBin[:n]
	if g.box.Triclinic {
		if cap(g.lamda) < n {
			g.lamda = make([][3]float64, n)
		}
		g.lamda = g.lamda[:n]
	}

	g.retries = 0
	for {
		overflowed, maxCount, err := g.binPass(ps, n, workers)
		if err != nil {
			return err
		}
		if !overflowed {
			return nil
		}
		// The counts from the failed pass are exact, so one regrow to the
		// observed maximum guarantees the next pass fits.
		newCap := g.binCap * 2
		for newCap < maxCount {
			newCap *= 2
		}
		logrus.Warnf("bin grid overflow: growing per-bin capacity %d -> %d and re-binning",
			g.binCap, newCap)
		g.binCap = newCap
		g.slots = make([]int32, g.nbins*int(g.binCap))
		g.retries++
	}
}

func (g *BinGrid) binPass(ps *ParticleSet, n, workers int) (overflowed bool, maxCount int32, err error) {
	for i := range g.counts {
		g.counts[i] = 0
	}
	var overflow atomic.Bool
	var badIdx atomic.Int64
	badIdx.Store(-1)

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				c := g.binSpace(ps.X[i])
				if g.box.Triclinic {
					g.lamda[i] = c
				}
				ix, iy, iz, cerr := g.coord2bin(c)
				if cerr != nil {
					badIdx.CompareAndSwap(-1, int64(i))
					return
				}
				b := g.linearBin(ix, iy, iz)
				g.atomBin[i] = int32(b)
				slot := atomic.AddInt32(&g.counts[b], 1) - 1
				if slot >= g.binCap {
					overflow.Store(true)
					continue
				}
				g.slots[b*int(g.binCap)+int(slot)] = int32(i)
			}
		}(lo, hi)
	}
	wg.Wait()

	if i := badIdx.Load(); i >= 0 {
		c := g.binSpace(ps.X[i])
		_, _, _, cerr := g.coord2bin(c)
		return false, 0, fmt.Errorf("binning particle %d (tag %d) at %v: %w",
			i, ps.Tag[i], ps.X[i], cerr)
	}
	if overflow.Load() {
		for _, c := range g.counts {
			if c > maxCount {
				maxCount = c
			}
		}
		return true, maxCount, nil
	}
	return false, 0, nil
}

// Content returns the particle indices currently assigned to linear bin b.
// The slice aliases grid storage and is only valid until the next Rebuild.
func (g *BinGrid) Content(b int) []int32 {
	c := g.counts[b]
	return g.slots[b*int(g.binCap) : b*int(g.binCap)+int(c)]
}

// BinOf returns the linear bin index particle i was assigned in the last
// Rebuild.
func (g *BinGrid) BinOf(i int) int { return int(g.atomBin[i]) }
