// Reference ghost replication. In production the domain/communication
// layer migrates particles and exchanges ghost copies across ranks; this
// single-rank stand-in replicates periodic images into the halo so
// benchmarks and tests can exercise the core under the same contract:
// every particle within one cutoff of the sub-volume has a resident copy.

package neigh

// ReplicateGhosts returns a copy of ps extended with periodic-image ghosts
// of the owned particles that fall within halo of the box boundary. Ghost
// copies keep the tag, collection, and radius of their source particle.
// The input set must have no ghosts of its own.
func ReplicateGhosts(ps *ParticleSet, box *Box, halo float64) *ParticleSet {
	if ps.NGhost != 0 {
		panic("ReplicateGhosts: input set already has ghosts")
	}
	out := &ParticleSet{
		NLocal:   ps.NLocal,
		X:        append([][3]float64{}, ps.X...),
		Tag:      append([]int64{}, ps.Tag...),
		Special:  ps.Special,
		NSpecial: ps.NSpecial,
	}
	if ps.Collection != nil {
		out.Collection = append([]int{}, ps.Collection...)
	}
	if ps.Radius != nil {
		out.Radius = append([]float64{}, ps.Radius...)
	}

	// Edge vectors of the (possibly tilted) cell.
	prd := box.Prd()
	a := [3]float64{prd[0], 0, 0}
	b := [3]float64{box.Tilt[0], prd[1], 0}
	c := [3]float64{box.Tilt[1], box.Tilt[2], prd[2]}

	margin := box.LamdaMargin(halo)

	for sz := -1; sz <= 1; sz++ {
		for sy := -1; sy <= 1; sy++ {
			for sx := -1; sx <= 1; sx++ {
				if sx == 0 && sy == 0 && sz == 0 {
					continue
				}
				if (sx != 0 && !box.Periodic[0]) ||
					(sy != 0 && !box.Periodic[1]) ||
					(sz != 0 && !box.Periodic[2]) {
					continue
				}
				for i := 0; i < ps.NLocal; i++ {
					x := ps.X[i]
					img := [3]float64{
						x[0] + float64(sx)*a[0] + float64(sy)*b[0] + float64(sz)*c[0],
						x[1] + float64(sy)*b[1] + float64(sz)*c[1],
						x[2] + float64(sz)*c[2],
					}
					l := box.XToLamda(img)
					if l[0] < -margin[0] || l[0] > 1+margin[0] ||
						l[1] < -margin[1] || l[1] > 1+margin[1] ||
						l[2] < -margin[2] || l[2] > 1+margin[2] {
						continue
					}
					out.X = append(out.X, img)
					out.Tag = append(out.Tag, ps.Tag[i])
					if out.Collection != nil {
						out.Collection = append(out.Collection, ps.collectionOf(i))
					}
					if out.Radius != nil {
						out.Radius = append(out.Radius, ps.Radius[i])
					}
					out.NGhost++
				}
			}
		}
	}
	return out
}
