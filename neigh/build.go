// The pair-list builder family. One algorithm body serves every variant;
// the half/full, newton, triclinic, size, multi-collection and ghost
// switches select branch conditions, and all variants share the same
// special-bond filter (SpecialPolicy.Classify) and entry encoding.
//
// The owned-particle loop is embarrassingly parallel over a read-only bin
// grid: each worker writes only its own particles' runs, carved from a
// private page pool.

package neigh

import (
	"fmt"
	"sync"
)

type listBuilder struct {
	ps     *ParticleSet
	box    *Box
	grid   *BinGrid
	sten   *StencilSet
	policy *SpecialPolicy

	cutsq [][]float64 // squared fixed cutoffs per collection pair
	skin  float64     // extra margin on size-based cutoffs

	half    bool
	newton  bool
	tri     bool
	size    bool
	multi   bool
	ghost   bool
	history bool
}

// buildList enumerates neighbors for one request against the current grid
// state and returns a freshly allocated list. The grid must be current and
// the stencil set must cover the request's cutoffs.
func buildList(ps *ParticleSet, box *Box, grid *BinGrid, req *Request,
	policy *SpecialPolicy, skin float64, pageSize, workers int) (*NeighborList, error) {

	cfg := req.cfg
	b := &listBuilder{
		ps:      ps,
		box:     box,
		grid:    grid,
		sten:    req.stencils,
		policy:  policy,
		skin:    skin,
		half:    cfg.Kind == HalfList,
		newton:  cfg.Kind == HalfList && cfg.Newton,
		tri:     box.Triclinic,
		size:    cfg.Size,
		multi:   cfg.Multi(),
		ghost:   cfg.Ghost,
		history: cfg.History,
	}

	if b.size && ps.Radius == nil {
		return nil, fmt.Errorf("size-based request but particle set carries no radii")
	}
	if b.multi {
		ncoll := b.sten.NCollections()
		if mc := ps.MaxCollection(); mc >= ncoll {
			return nil, fmt.Errorf("particle collection id %d outside the %d-collection cutoff matrix", mc, ncoll)
		}
		b.cutsq = squareMatrix(cfg.CollectionCutoffs)
	} else {
		b.cutsq = [][]float64{{cfg.Cutoff * cfg.Cutoff}}
	}

	nref := ps.NLocal
	if b.ghost {
		nref = ps.NAll()
	}

	list := &NeighborList{
		kind:        cfg.Kind,
		newton:      b.newton,
		history:     b.history,
		runs:        make([][]uint64, nref),
		scaleCoeffs: [4]float64{1, 1, 1, 1},
	}
	if policy != nil {
		list.scaleCoeffs = policy.Coeffs()
	}

	if workers < 1 {
		workers = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pools := make([]*PagePool, 0, workers)
	errs := make([]error, workers)
	chunk := (nref + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > nref {
			hi = nref
		}
		if lo >= hi {
			break
		}
		pool := NewPagePool(pageSize)
		pools = append(pools, pool)
		wg.Add(1)
		go func(w, lo, hi int, pool *PagePool) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				run, err := b.neighborsOf(i, pool, pool.Begin())
				if err != nil {
					errs[w] = fmt.Errorf("building neighbors of particle %d: %w", i, err)
					return
				}
				pool.Commit(run)
				list.runs[i] = run
			}
		}(w, lo, hi, pool)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	list.pools = pools
	list.finalize()
	return list, nil
}

// neighborsOf walks the stencil bins applicable to particle i and returns
// its completed run.
func (b *listBuilder) neighborsOf(i int, pool *PagePool, run []uint64) ([]uint64, error) {
	xi := b.ps.X[i]
	ic := 0
	ncoll := 1
	if b.multi {
		ic = b.ps.collectionOf(i)
		ncoll = b.sten.NCollections()
	}
	ibin := b.grid.BinOf(i)
	ownedRef := i < b.ps.NLocal
	var err error

	for jc := 0; jc < ncoll; jc++ {
		st := b.sten.At(ic, jc)
		wantJc := -1
		if b.multi {
			wantJc = jc
		}

		// Single-collection half newton-on orthogonal stencils exclude the
		// reference bin; intra-bin pairs are resolved by their own ordering
		// rule. Triclinic and multi-collection builds scan the reference
		// bin through their dz >= 0 stencil instead.
		if b.half && b.newton && !b.tri && !b.multi {
			run, err = b.scanSelfBinNewton(i, ibin, wantJc, xi, ic, jc, pool, run)
			if err != nil {
				return nil, err
			}
		}

		if ownedRef {
			// Owned reference bins sit in the interior, so every stencil
			// offset addresses a valid bin and linear arithmetic is exact.
			for _, off := range st.Offsets {
				run, err = b.scanBin(i, b.grid.Content(ibin+int(off)), wantJc, xi, ic, jc, pool, run)
				if err != nil {
					return nil, err
				}
			}
		} else {
			// Ghost reference bins can sit at the grid edge; traverse with
			// bounds-checked coordinate triples instead.
			ix, iy, iz := b.grid.binCoords(ibin)
			for _, t := range st.Triples {
				jx, jy, jz := ix+t[0], iy+t[1], iz+t[2]
				if !b.grid.binInRange(jx, jy, jz) {
					continue
				}
				bin := b.grid.linearBin(jx, jy, jz)
				run, err = b.scanBin(i, b.grid.Content(bin), wantJc, xi, ic, jc, pool, run)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	return run, nil
}

// scanBin applies the variant's pair-ordering rule to every candidate in a
// bin, then hands survivors to the shared cutoff/exclusion test.
func (b *listBuilder) scanBin(i int, content []int32, wantJc int, xi [3]float64,
	ic, jc int, pool *PagePool, run []uint64) ([]uint64, error) {

	var err error
	for _, jj := range content {
		j := int(jj)
		if wantJc >= 0 && b.ps.collectionOf(j) != wantJc {
			continue
		}
		switch {
		case !b.half:
			if j == i {
				continue
			}
		case !b.newton:
			// Newton-off tie-break: linear particle-index order decides
			// which side stores the pair. Ghost partners always have the
			// larger index, so cross-rank pairs are stored on both ranks.
			if j <= i {
				continue
			}
		case b.tri || b.multi:
			// Newton-on variants whose stencil keeps the whole dz >= 0
			// half-space (triclinic bins are not orthogonal; multi-collection
			// scans per class pair) decide direction per pair.
			if !b.forward(i, j) {
				continue
			}
		default:
			// Single-collection orthogonal newton-on: the forward stencil
			// already picked a direction for cross-bin pairs.
		}
		run, err = b.tryPair(i, j, ic, jc, xi, pool, run)
		if err != nil {
			return nil, err
		}
	}
	return run, nil
}

// scanSelfBinNewton resolves intra-bin pairs for half newton-on orthogonal
// builds: owned partners later in index order are stored here, and ghost
// partners are stored only when the (z, y, x) coordinate order says this
// side owns the pair.
func (b *listBuilder) scanSelfBinNewton(i, ibin, wantJc int, xi [3]float64,
	ic, jc int, pool *PagePool, run []uint64) ([]uint64, error) {

	var err error
	for _, jj := range b.grid.Content(ibin) {
		j := int(jj)
		if j == i {
			continue
		}
		if wantJc >= 0 && b.ps.collectionOf(j) != wantJc {
			continue
		}
		if j < b.ps.NLocal {
			if j < i {
				continue
			}
		} else {
			xj := b.ps.X[j]
			if xj[2] < xi[2] {
				continue
			}
			if xj[2] == xi[2] {
				if xj[1] < xi[1] {
					continue
				}
				if xj[1] == xi[1] {
					if xj[0] < xi[0] {
						continue
					}
					// Coincident positions: fall back to index order so
					// the pair is still counted exactly once.
					if xj[0] == xi[0] && j < i {
						continue
					}
				}
			}
		}
		run, err = b.tryPair(i, j, ic, jc, xi, pool, run)
		if err != nil {
			return nil, err
		}
	}
	return run, nil
}

// forward reports whether pair (i, j) is stored on i's side under the
// per-pair (z, y, x) total order, with index order breaking exact ties.
// Triclinic builds order in lattice coordinates (cached by the grid);
// orthogonal multi-collection builds order in Cartesian coordinates.
// Either way the forward partner's bin has dz >= 0, which is exactly what
// the half-space stencil scans.
func (b *listBuilder) forward(i, j int) bool {
	if b.tri {
		return b.forwardTri(i, j)
	}
	xi, xj := b.ps.X[i], b.ps.X[j]
	if xj[2] != xi[2] {
		return xj[2] > xi[2]
	}
	if xj[1] != xi[1] {
		return xj[1] > xi[1]
	}
	if xj[0] != xi[0] {
		return xj[0] > xi[0]
	}
	return j > i
}

func (b *listBuilder) forwardTri(i, j int) bool {
	li, lj := b.grid.lamda[i], b.grid.lamda[j]
	if lj[2] != li[2] {
		return lj[2] > li[2]
	}
	if lj[1] != li[1] {
		return lj[1] > li[1]
	}
	if lj[0] != li[0] {
		return lj[0] > li[0]
	}
	return j > i
}

// tryPair is the shared tail of every variant: squared-distance cutoff
// test (strict less-than), special-bond filtering with the mandatory
// minimum-image escape, optional contact-history tagging, and append.
func (b *listBuilder) tryPair(i, j, ic, jc int, xi [3]float64,
	pool *PagePool, run []uint64) ([]uint64, error) {

	xj := b.ps.X[j]
	dx := xi[0] - xj[0]
	dy := xi[1] - xj[1]
	dz := xi[2] - xj[2]
	rsq := dx*dx + dy*dy + dz*dz

	var cutsq float64
	if b.size {
		cut := b.ps.Radius[i] + b.ps.Radius[j] + b.skin
		cutsq = cut * cut
	} else {
		cutsq = b.cutsq[ic][jc]
	}
	if rsq >= cutsq {
		return run, nil
	}

	verdict := NotSpecial
	if b.policy != nil && b.ps.Special != nil && i < b.ps.NLocal {
		verdict = b.policy.Classify(b.ps, i, b.ps.Tag[j])
		// A bonded pair whose current displacement is not the nearest
		// periodic image is interacting through a different image than
		// the bond; it must be treated as an ordinary pair.
		if verdict != NotSpecial && b.box.MinimumImageCheck(dx, dy, dz) {
			verdict = NotSpecial
		}
		if verdict == Excluded {
			return run, nil
		}
	}

	touching := false
	if b.history {
		sum := b.ps.Radius[i] + b.ps.Radius[j]
		touching = rsq < sum*sum
	}
	return pool.Push(run, EncodeEntry(j, verdict.ScaleClass(), touching))
}

func squareMatrix(cut [][]float64) [][]float64 {
	sq := make([][]float64, len(cut))
	for i, row := range cut {
		sq[i] = make([]float64, len(row))
		for j, c := range row {
			sq[i][j] = c * c
		}
	}
	return sq
}
